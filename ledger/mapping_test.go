package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeflowdata/exim_backend/models"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func testPI() *models.ProformaInvoice {
	return &models.ProformaInvoice{
		ID:            7,
		VoucherNumber: "PI-2026-007",
		Consignee:     "Nordsee Handels GmbH",
		PiDate:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Items: []models.ProformaInvoiceItem{
			{ProductId: 101, Sku: "FZ-SHRIMP-1KG", ProductName: "Frozen Shrimp 1kg", Quantity: d("200")},
			{ProductId: 102, Sku: "FZ-SQUID-500G", ProductName: "Frozen Squid 500g", Quantity: d("50")},
		},
	}
}

func outward(id int, dt models.DispatchType, poId *int, items ...models.OutwardMovementItem) *models.OutwardMovement {
	return &models.OutwardMovement{
		ID:              id,
		DispatchType:    dt,
		PiId:            intPtr(7),
		PurchaseOrderId: poId,
		Status:          models.MovementStatusActive,
		Items:           items,
	}
}

func TestComputeMappingAggregatesPerPO(t *testing.T) {
	pi := testPI()
	movements := []*models.OutwardMovement{
		outward(1, models.DispatchTypeExportInvoice, intPtr(31),
			models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("80")}),
		outward(2, models.DispatchTypeExportInvoice, intPtr(32),
			models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("60")}),
	}

	mapping := computePIPOMapping(pi, movements, false)

	if !mapping.Items[0].DispatchedQuantity.Equal(d("140")) {
		t.Errorf("shrimp dispatched: got %s, want 140", mapping.Items[0].DispatchedQuantity)
	}
	if !mapping.Items[0].RemainingQuantity.Equal(d("60")) {
		t.Errorf("shrimp remaining: got %s, want 60", mapping.Items[0].RemainingQuantity)
	}
	if !mapping.Items[1].DispatchedQuantity.IsZero() {
		t.Errorf("squid should be untouched, got %s", mapping.Items[1].DispatchedQuantity)
	}
	if len(mapping.LinkedPOs) != 2 {
		t.Fatalf("expected 2 PO contributions, got %d", len(mapping.LinkedPOs))
	}
	if mapping.LinkedPOs[0].PurchaseOrderId != 31 || !mapping.LinkedPOs[0].DispatchedQuantity.Equal(d("80")) {
		t.Errorf("PO 31 contribution wrong: %+v", mapping.LinkedPOs[0])
	}
	if mapping.LinkedPOs[1].PurchaseOrderId != 32 || !mapping.LinkedPOs[1].DispatchedQuantity.Equal(d("60")) {
		t.Errorf("PO 32 contribution wrong: %+v", mapping.LinkedPOs[1])
	}
	if !mapping.TotalPoQuantity.Equal(d("140")) {
		t.Errorf("total PO quantity: got %s, want 140", mapping.TotalPoQuantity)
	}
	if !mapping.PiTotalQuantity.Equal(d("250")) {
		t.Errorf("PI total quantity: got %s, want 250", mapping.PiTotalQuantity)
	}
	if !mapping.TotalRemainingQuantity.Equal(d("110")) {
		t.Errorf("total remaining: got %s, want 110", mapping.TotalRemainingQuantity)
	}
}

func TestComputeMappingExcludesPromotedPlans(t *testing.T) {
	pi := testPI()
	plan := outward(5, models.DispatchTypePlan, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("40")})
	invoice := outward(6, models.DispatchTypeExportInvoice, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("40")})
	invoice.DispatchPlanId = intPtr(5)

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{plan, invoice}, false)

	// The plan was promoted into the invoice; only the invoice counts.
	if !mapping.Items[0].DispatchedQuantity.Equal(d("40")) {
		t.Errorf("promoted plan double counted: got %s, want 40", mapping.Items[0].DispatchedQuantity)
	}
	if len(mapping.LinkedPOs) != 1 || mapping.LinkedPOs[0].MovementCount != 1 {
		t.Errorf("expected one movement on the PO, got %+v", mapping.LinkedPOs)
	}
}

func TestComputeMappingUnpromotedPlanStillCounts(t *testing.T) {
	pi := testPI()
	plan := outward(5, models.DispatchTypePlan, nil,
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("40")})

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{plan}, false)
	if !mapping.Items[0].DispatchedQuantity.Equal(d("40")) {
		t.Errorf("standalone plan should count: got %s", mapping.Items[0].DispatchedQuantity)
	}
	if len(mapping.LinkedPOs) != 0 {
		t.Errorf("movement without a PO should not create a contribution: %+v", mapping.LinkedPOs)
	}
	if !mapping.TotalPoQuantity.Equal(d("40")) {
		t.Errorf("total PO quantity should still count the dispatch: got %s, want 40", mapping.TotalPoQuantity)
	}
}

func TestComputeMappingTotalsBalanceWithoutPO(t *testing.T) {
	pi := testPI()
	invoice := outward(1, models.DispatchTypeExportInvoice, nil,
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("80")})

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{invoice}, false)

	if !mapping.TotalPoQuantity.Equal(d("80")) {
		t.Errorf("total PO quantity: got %s, want 80", mapping.TotalPoQuantity)
	}
	if !mapping.TotalRemainingQuantity.Equal(d("170")) {
		t.Errorf("total remaining: got %s, want 170", mapping.TotalRemainingQuantity)
	}
	sum := mapping.TotalPoQuantity.Add(mapping.TotalRemainingQuantity)
	if !sum.Equal(mapping.PiTotalQuantity) {
		t.Errorf("totals out of balance: %s + %s != %s",
			mapping.TotalPoQuantity, mapping.TotalRemainingQuantity, mapping.PiTotalQuantity)
	}
}

func TestComputeMappingFuzzyFallback(t *testing.T) {
	pi := testPI()

	// Stale SKU on the movement: product id still matches line 1.
	staleSku := outward(1, models.DispatchTypeExportInvoice, nil,
		models.OutwardMovementItem{ProductId: 101, Sku: "OLD-SKU", DispatchQuantity: decPtr("10")})
	// Unknown product id: sku alone matches line 2.
	skuOnly := outward(2, models.DispatchTypeExportInvoice, nil,
		models.OutwardMovementItem{ProductId: 999, Sku: "FZ-SQUID-500G", DispatchQuantity: decPtr("5")})
	// Matches nothing: silently dropped.
	unmatched := outward(3, models.DispatchTypeExportInvoice, nil,
		models.OutwardMovementItem{ProductId: 888, Sku: "NO-SUCH", DispatchQuantity: decPtr("3")})

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{staleSku, skuOnly, unmatched}, false)

	if !mapping.Items[0].DispatchedQuantity.Equal(d("10")) {
		t.Errorf("product-id fallback failed: got %s, want 10", mapping.Items[0].DispatchedQuantity)
	}
	if !mapping.Items[1].DispatchedQuantity.Equal(d("5")) {
		t.Errorf("sku fallback failed: got %s, want 5", mapping.Items[1].DispatchedQuantity)
	}
}

func TestComputeMappingSkipsRevertedDirectAndUnreferenced(t *testing.T) {
	pi := testPI()

	reverted := outward(1, models.DispatchTypeExportInvoice, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("10")})
	reverted.Status = models.MovementStatusReverted

	direct := outward(2, models.DispatchTypeDirectExport, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("10")})

	noPI := outward(3, models.DispatchTypeExportInvoice, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("10")})
	noPI.PiId = nil
	noPI.PiIds = nil

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{reverted, direct, noPI}, false)
	if !mapping.Items[0].DispatchedQuantity.IsZero() {
		t.Errorf("excluded movements contributed: got %s", mapping.Items[0].DispatchedQuantity)
	}
	if len(mapping.LinkedPOs) != 0 {
		t.Errorf("excluded movements created PO contributions: %+v", mapping.LinkedPOs)
	}
}

func TestComputeMappingEffectiveQtyFallsBackToQuantity(t *testing.T) {
	pi := testPI()
	m := outward(1, models.DispatchTypeExportInvoice, nil,
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", Quantity: decPtr("25")},
		models.OutwardMovementItem{ProductId: 102, Sku: "FZ-SQUID-500G"})

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{m}, false)
	if !mapping.Items[0].DispatchedQuantity.Equal(d("25")) {
		t.Errorf("quantity fallback failed: got %s", mapping.Items[0].DispatchedQuantity)
	}
	if !mapping.Items[1].DispatchedQuantity.IsZero() {
		t.Errorf("item without quantities should contribute zero, got %s", mapping.Items[1].DispatchedQuantity)
	}
}

func TestComputeMappingClampNegativeRemaining(t *testing.T) {
	pi := testPI()
	m := outward(1, models.DispatchTypeExportInvoice, nil,
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("250")})

	unclamped := computePIPOMapping(pi, []*models.OutwardMovement{m}, false)
	if !unclamped.Items[0].RemainingQuantity.Equal(d("-50")) {
		t.Errorf("unclamped remaining: got %s, want -50", unclamped.Items[0].RemainingQuantity)
	}

	clamped := computePIPOMapping(pi, []*models.OutwardMovement{m}, true)
	if !clamped.Items[0].RemainingQuantity.IsZero() {
		t.Errorf("clamped remaining: got %s, want 0", clamped.Items[0].RemainingQuantity)
	}
	if !clamped.TotalRemainingQuantity.Equal(d("50")) {
		t.Errorf("clamped total remaining: got %s, want 50 (squid only)", clamped.TotalRemainingQuantity)
	}
}

func TestComputeMappingMultiPIReference(t *testing.T) {
	pi := testPI()
	m := outward(1, models.DispatchTypeExportInvoice, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("30")})
	m.PiId = nil
	m.PiIds = []int{7, 8}

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{m}, false)
	if !mapping.Items[0].DispatchedQuantity.Equal(d("30")) {
		t.Errorf("multi-PI movement should count: got %s", mapping.Items[0].DispatchedQuantity)
	}
}

func TestAttachPurchaseOrdersAddsZeroQuantityLinks(t *testing.T) {
	pi := testPI()
	m := outward(1, models.DispatchTypeExportInvoice, intPtr(31),
		models.OutwardMovementItem{ProductId: 101, Sku: "FZ-SHRIMP-1KG", DispatchQuantity: decPtr("80")})

	mapping := computePIPOMapping(pi, []*models.OutwardMovement{m}, false)
	attachPurchaseOrders(mapping, []*models.PurchaseOrder{
		{ID: 31, OrderNumber: "PO-031", SupplierName: "Coastal Foods"},
		{ID: 40, OrderNumber: "PO-040", SupplierName: "Bluewater Traders"},
	})

	if len(mapping.LinkedPOs) != 2 {
		t.Fatalf("expected 2 linked POs, got %d", len(mapping.LinkedPOs))
	}
	if mapping.LinkedPOs[0].OrderNumber != "PO-031" {
		t.Errorf("existing contribution not enriched: %+v", mapping.LinkedPOs[0])
	}
	if mapping.LinkedPOs[1].PurchaseOrderId != 40 || !mapping.LinkedPOs[1].DispatchedQuantity.IsZero() {
		t.Errorf("undispatched PO missing or nonzero: %+v", mapping.LinkedPOs[1])
	}
}
