package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeflowdata/exim_backend/models"
)

// PIItemStatus is one proforma invoice line with its dispatch progress.
type PIItemStatus struct {
	ProductId          int             `json:"product_id"`
	Sku                string          `json:"sku"`
	ProductName        string          `json:"product_name"`
	PiQuantity         decimal.Decimal `json:"pi_quantity"`
	DispatchedQuantity decimal.Decimal `json:"dispatched_quantity"`
	RemainingQuantity  decimal.Decimal `json:"remaining_quantity"`
}

// POContribution aggregates how much one purchase order has dispatched
// against the proforma invoice.
type POContribution struct {
	PurchaseOrderId    int             `json:"purchase_order_id"`
	OrderNumber        string          `json:"order_number"`
	SupplierName       string          `json:"supplier_name"`
	DispatchedQuantity decimal.Decimal `json:"dispatched_quantity"`
	MovementCount      int             `json:"movement_count"`
}

// PIPOMapping is the resolved dispatch picture of one proforma invoice.
type PIPOMapping struct {
	PiId                   int               `json:"pi_id"`
	VoucherNumber          string            `json:"voucher_number"`
	Consignee              string            `json:"consignee"`
	PiDate                 time.Time         `json:"pi_date"`
	Items                  []*PIItemStatus   `json:"items"`
	LinkedPOs              []*POContribution `json:"linked_pos"`
	PiTotalQuantity        decimal.Decimal   `json:"pi_total_quantity"`
	TotalPoQuantity        decimal.Decimal   `json:"total_po_quantity"`
	TotalRemainingQuantity decimal.Decimal   `json:"total_remaining_quantity"`
}

// computePIPOMapping folds the outward movements referencing a proforma
// invoice into per-item and per-PO dispatch totals.
//
// A dispatch plan that has been promoted into an export invoice (the
// invoice carries the plan's id) is excluded so the same physical
// dispatch is not counted twice. Movement items are attributed to the PI
// line with the same (product_id, sku); failing that, to the first line
// matching on product_id or on sku alone, since legacy movements carry
// stale SKUs. Items matching no PI line, and movements referencing no PI,
// contribute nothing.
//
// Remaining quantities are PI minus dispatched; when clampNegative is set
// an over-dispatched line reports zero remaining instead of a negative.
func computePIPOMapping(pi *models.ProformaInvoice, movements []*models.OutwardMovement, clampNegative bool) *PIPOMapping {
	mapping := &PIPOMapping{
		PiId:                   pi.ID,
		VoucherNumber:          pi.VoucherNumber,
		Consignee:              pi.Consignee,
		PiDate:                 pi.PiDate,
		Items:                  make([]*PIItemStatus, 0, len(pi.Items)),
		LinkedPOs:              []*POContribution{},
		PiTotalQuantity:        decimal.Zero,
		TotalPoQuantity:        decimal.Zero,
		TotalRemainingQuantity: decimal.Zero,
	}

	type identity struct {
		productId int
		sku       string
	}
	exact := make(map[identity]*PIItemStatus, len(pi.Items))
	for i := range pi.Items {
		line := &pi.Items[i]
		status := &PIItemStatus{
			ProductId:          line.ProductId,
			Sku:                line.Sku,
			ProductName:        line.ProductName,
			PiQuantity:         line.Quantity,
			DispatchedQuantity: decimal.Zero,
		}
		mapping.Items = append(mapping.Items, status)
		key := identity{productId: line.ProductId, sku: line.Sku}
		if _, dup := exact[key]; !dup {
			exact[key] = status
		}
		mapping.PiTotalQuantity = mapping.PiTotalQuantity.Add(line.Quantity)
	}

	promoted := make(map[int]bool)
	for _, m := range movements {
		if m.Status != models.MovementStatusActive {
			continue
		}
		if m.DispatchType == models.DispatchTypeExportInvoice && m.DispatchPlanId != nil && *m.DispatchPlanId > 0 {
			promoted[*m.DispatchPlanId] = true
		}
	}

	contributions := make(map[int]*POContribution)
	for _, m := range movements {
		if m.Status != models.MovementStatusActive {
			continue
		}
		if m.DispatchType == models.DispatchTypeDirectExport {
			continue
		}
		if m.DispatchType == models.DispatchTypePlan && promoted[m.ID] {
			continue
		}
		if len(m.ReferencedPiIds()) == 0 {
			continue
		}

		dispatched := decimal.Zero
		for i := range m.Items {
			item := &m.Items[i]
			qty := item.EffectiveQty()
			target := exact[identity{productId: item.ProductId, sku: item.Sku}]
			if target == nil {
				target = fuzzyMatch(mapping.Items, item.ProductId, item.Sku)
			}
			if target == nil {
				continue
			}
			target.DispatchedQuantity = target.DispatchedQuantity.Add(qty)
			dispatched = dispatched.Add(qty)
		}

		if m.PurchaseOrderId != nil && *m.PurchaseOrderId > 0 {
			c := contributions[*m.PurchaseOrderId]
			if c == nil {
				c = &POContribution{PurchaseOrderId: *m.PurchaseOrderId, DispatchedQuantity: decimal.Zero}
				contributions[*m.PurchaseOrderId] = c
				mapping.LinkedPOs = append(mapping.LinkedPOs, c)
			}
			c.DispatchedQuantity = c.DispatchedQuantity.Add(dispatched)
			c.MovementCount++
		}
	}

	// Aggregate totals sum across items, not across PO contributions: a
	// movement with no purchase order still dispatched real quantity, so
	// total_po + total_remaining must keep adding up to pi_total.
	for _, status := range mapping.Items {
		remaining := status.PiQuantity.Sub(status.DispatchedQuantity)
		if clampNegative && remaining.IsNegative() {
			remaining = decimal.Zero
		}
		status.RemainingQuantity = remaining
		mapping.TotalPoQuantity = mapping.TotalPoQuantity.Add(status.DispatchedQuantity)
		mapping.TotalRemainingQuantity = mapping.TotalRemainingQuantity.Add(remaining)
	}

	return mapping
}

// fuzzyMatch finds the first PI line sharing the product id, then falls
// back to the first line sharing the sku.
func fuzzyMatch(items []*PIItemStatus, productId int, sku string) *PIItemStatus {
	for _, s := range items {
		if s.ProductId == productId {
			return s
		}
	}
	if sku == "" {
		return nil
	}
	for _, s := range items {
		if s.Sku == sku {
			return s
		}
	}
	return nil
}

// attachPurchaseOrders enriches the contribution rows with order metadata
// and surfaces POs linked to the PI that have not dispatched anything yet.
func attachPurchaseOrders(mapping *PIPOMapping, pos []*models.PurchaseOrder) {
	byId := make(map[int]*POContribution, len(mapping.LinkedPOs))
	for _, c := range mapping.LinkedPOs {
		byId[c.PurchaseOrderId] = c
	}
	for _, po := range pos {
		if c := byId[po.ID]; c != nil {
			c.OrderNumber = po.OrderNumber
			c.SupplierName = po.SupplierName
			continue
		}
		mapping.LinkedPOs = append(mapping.LinkedPOs, &POContribution{
			PurchaseOrderId:    po.ID,
			OrderNumber:        po.OrderNumber,
			SupplierName:       po.SupplierName,
			DispatchedQuantity: decimal.Zero,
		})
	}
}
