package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/utils"
	"gorm.io/gorm"
)

// PurchaseOrder is a supply order drawing against one or more PIs.
type PurchaseOrder struct {
	ID           int                 `gorm:"primary_key" json:"id"`
	OrderNumber  string              `gorm:"size:100;index;not null" json:"order_number" binding:"required"`
	SupplierName string              `gorm:"size:255" json:"supplier_name"`
	PiIds        []int               `gorm:"serializer:json" json:"pi_ids"`
	OrderDate    time.Time           `gorm:"index;not null" json:"order_date" binding:"required"`
	Notes        string              `gorm:"type:text" json:"notes"`
	Items        []PurchaseOrderItem `json:"items"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type PurchaseOrderItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	PurchaseOrderId int             `gorm:"index;not null" json:"purchase_order_id"`
	ProductId       int             `gorm:"index;not null" json:"product_id"`
	Sku             string          `gorm:"size:100" json:"sku"`
	ProductName     string          `gorm:"size:255" json:"product_name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	Rate            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
}

func (po PurchaseOrder) GetCursor() string {
	return fmt.Sprint(po.ID)
}

type NewPurchaseOrder struct {
	OrderNumber  string                 `json:"order_number" binding:"required"`
	SupplierName string                 `json:"supplier_name"`
	PiIds        []int                  `json:"pi_ids"`
	OrderDate    time.Time              `json:"order_date" binding:"required"`
	Notes        string                 `json:"notes"`
	Items        []NewPurchaseOrderItem `json:"items" binding:"required,dive"`
}

type NewPurchaseOrderItem struct {
	ProductId   int             `json:"product_id" binding:"required"`
	Sku         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewPurchaseOrder) validate(ctx context.Context, id int) error {
	if err := utils.ValidateUnique[PurchaseOrder](ctx, "order_number", input.OrderNumber, id); err != nil {
		return err
	}
	for _, piId := range utils.UniqueSlice(input.PiIds) {
		if err := utils.ValidateResourceId[ProformaInvoice](ctx, piId); err != nil {
			return errors.New("proforma invoice not found")
		}
	}
	return nil
}

func (input *NewPurchaseOrder) items() []PurchaseOrderItem {
	items := make([]PurchaseOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, PurchaseOrderItem{
			ProductId:   item.ProductId,
			Sku:         item.Sku,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		})
	}
	return items
}

func CreatePurchaseOrder(ctx context.Context, input *NewPurchaseOrder) (*PurchaseOrder, error) {

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	po := PurchaseOrder{
		OrderNumber:  input.OrderNumber,
		SupplierName: input.SupplierName,
		PiIds:        utils.UniqueSlice(input.PiIds),
		OrderDate:    input.OrderDate,
		Notes:        input.Notes,
		Items:        input.items(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func UpdatePurchaseOrder(ctx context.Context, id int, input *NewPurchaseOrder) (*PurchaseOrder, error) {

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	po, err := utils.FetchModel[PurchaseOrder](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", po.ID).Delete(&PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		po.OrderNumber = input.OrderNumber
		po.SupplierName = input.SupplierName
		po.PiIds = utils.UniqueSlice(input.PiIds)
		po.OrderDate = input.OrderDate
		po.Notes = input.Notes
		po.Items = input.items()
		return tx.Save(po).Error
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func DeletePurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {

	po, err := utils.FetchModel[PurchaseOrder](ctx, id, "Items")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", po.ID).Delete(&PurchaseOrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(po).Error
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func GetPurchaseOrder(ctx context.Context, id int) (*PurchaseOrder, error) {
	return utils.FetchModel[PurchaseOrder](ctx, id, "Items")
}

// GetPurchaseOrdersForPI returns the POs whose pi_ids reference the PI.
func GetPurchaseOrdersForPI(tx *gorm.DB, piId int) ([]*PurchaseOrder, error) {
	var results []*PurchaseOrder
	err := tx.Preload("Items").
		Where("JSON_CONTAINS(pi_ids, ?)", fmt.Sprint(piId)).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func PaginatePurchaseOrder(
	ctx context.Context, limit int, after *string,

	orderNumber *string,
	supplierName *string,
	startOrderDate *time.Time,
	endOrderDate *time.Time,
) ([]Edge[PurchaseOrder], *PageInfo, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&PurchaseOrder{}).Preload("Items")
	if orderNumber != nil && *orderNumber != "" {
		dbCtx.Where("order_number LIKE ?", "%"+*orderNumber+"%")
	}
	if supplierName != nil && *supplierName != "" {
		dbCtx.Where("supplier_name LIKE ?", "%"+*supplierName+"%")
	}
	if startOrderDate != nil && endOrderDate != nil {
		dbCtx.Where("order_date BETWEEN ? AND ?", startOrderDate, endOrderDate)
	}

	return FetchPagePureCursor[PurchaseOrder](dbCtx, limit, after, "id", "<")
}
