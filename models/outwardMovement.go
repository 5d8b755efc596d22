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

// OutwardMovement is an immutable dispatch of stock out of a warehouse.
// Its only mutable fields are the lifecycle status and the reversal
// metadata, both written exclusively by the reversal engine.
type OutwardMovement struct {
	ID              int                   `gorm:"primary_key" json:"id"`
	VoucherNumber   string                `gorm:"size:100;index;not null" json:"voucher_number" binding:"required"`
	WarehouseId     int                   `gorm:"index;not null" json:"warehouse_id" binding:"required"`
	DispatchType    DispatchType          `gorm:"type:enum('dispatch_plan','export_invoice','direct_export');not null" json:"dispatch_type" binding:"required"`
	DispatchPlanId  *int                  `gorm:"index" json:"dispatch_plan_id"`
	PiId            *int                  `gorm:"index" json:"pi_id"`
	PiIds           []int                 `gorm:"serializer:json" json:"pi_ids"`
	PurchaseOrderId *int                  `gorm:"index" json:"purchase_order_id"`
	Status          MovementStatus        `gorm:"type:enum('Active','Reverted');default:'Active'" json:"status"`
	ReversalReason  *string               `gorm:"type:text" json:"reversal_reason"`
	RevertedAt      *time.Time            `gorm:"index" json:"reverted_at"`
	MovementDate    time.Time             `gorm:"index;not null" json:"movement_date" binding:"required"`
	Items           []OutwardMovementItem `json:"items"`
	CreatedAt       time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type OutwardMovementItem struct {
	ID                int              `gorm:"primary_key" json:"id"`
	OutwardMovementId int              `gorm:"index;not null" json:"outward_movement_id"`
	ProductId         int              `gorm:"index;not null" json:"product_id"`
	Sku               string           `gorm:"size:100" json:"sku"`
	ProductName       string           `gorm:"size:255" json:"product_name"`
	DispatchQuantity  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"dispatch_quantity"`
	Quantity          *decimal.Decimal `gorm:"type:decimal(20,4)" json:"quantity"`
}

// EffectiveQty is the dispatched quantity of one line item: the dedicated
// dispatch quantity when present, else the generic quantity, else zero.
// Resolved per item so one incomplete item never aborts its batch.
func (item *OutwardMovementItem) EffectiveQty() decimal.Decimal {
	if item.DispatchQuantity != nil {
		return *item.DispatchQuantity
	}
	return utils.DecimalOrZero(item.Quantity)
}

// ReferencedPiIds returns every PI the movement draws against,
// combining the single reference and the multi-reference list.
func (m *OutwardMovement) ReferencedPiIds() []int {
	ids := make([]int, 0, len(m.PiIds)+1)
	if m.PiId != nil && *m.PiId > 0 {
		ids = append(ids, *m.PiId)
	}
	ids = append(ids, m.PiIds...)
	return utils.UniqueSlice(ids)
}

func (m OutwardMovement) GetCursor() string {
	return fmt.Sprint(m.ID)
}

type NewOutwardMovement struct {
	VoucherNumber   string                   `json:"voucher_number" binding:"required"`
	WarehouseId     int                      `json:"warehouse_id" binding:"required"`
	DispatchType    DispatchType             `json:"dispatch_type" binding:"required"`
	DispatchPlanId  *int                     `json:"dispatch_plan_id"`
	PiId            *int                     `json:"pi_id"`
	PiIds           []int                    `json:"pi_ids"`
	PurchaseOrderId *int                     `json:"purchase_order_id"`
	MovementDate    time.Time                `json:"movement_date" binding:"required"`
	Items           []NewOutwardMovementItem `json:"items" binding:"required,dive"`
}

type NewOutwardMovementItem struct {
	ProductId        int              `json:"product_id" binding:"required"`
	Sku              string           `json:"sku"`
	ProductName      string           `json:"product_name"`
	DispatchQuantity *decimal.Decimal `json:"dispatch_quantity"`
	Quantity         *decimal.Decimal `json:"quantity"`
}

func (input *NewOutwardMovement) validate(ctx context.Context) error {
	if err := utils.ValidateUnique[OutwardMovement](ctx, "voucher_number", input.VoucherNumber, 0); err != nil {
		return err
	}
	if err := input.DispatchType.Validate(); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	if input.DispatchPlanId != nil && *input.DispatchPlanId > 0 {
		if input.DispatchType != DispatchTypeExportInvoice {
			return errors.New("dispatch_plan_id is only valid on an export invoice")
		}
		if err := utils.ValidateResourceId[OutwardMovement](ctx, *input.DispatchPlanId); err != nil {
			return errors.New("dispatch plan not found")
		}
	}
	if len(input.Items) == 0 {
		return errors.New("at least one line item is required")
	}
	return nil
}

// CreateOutwardMovementTx inserts the movement and its items inside the
// caller's transaction. Ledger posting happens in the same tx (ledger pkg).
func CreateOutwardMovementTx(tx *gorm.DB, ctx context.Context, input *NewOutwardMovement) (*OutwardMovement, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	movement := OutwardMovement{
		VoucherNumber:   input.VoucherNumber,
		WarehouseId:     input.WarehouseId,
		DispatchType:    input.DispatchType,
		DispatchPlanId:  input.DispatchPlanId,
		PiId:            input.PiId,
		PiIds:           utils.UniqueSlice(input.PiIds),
		PurchaseOrderId: input.PurchaseOrderId,
		Status:          MovementStatusActive,
		MovementDate:    input.MovementDate,
	}
	for _, item := range input.Items {
		movement.Items = append(movement.Items, OutwardMovementItem{
			ProductId:        item.ProductId,
			Sku:              item.Sku,
			ProductName:      item.ProductName,
			DispatchQuantity: item.DispatchQuantity,
			Quantity:         item.Quantity,
		})
	}

	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func GetOutwardMovement(ctx context.Context, id int) (*OutwardMovement, error) {
	return utils.FetchModel[OutwardMovement](ctx, id, "Items")
}

func GetOutwardMovementTx(tx *gorm.DB, id int) (*OutwardMovement, error) {
	var movement OutwardMovement
	err := tx.Preload("Items").First(&movement, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func PaginateOutwardMovements(
	ctx context.Context, limit int, after *string,

	voucherNumber *string,
	warehouseId *int,
	dispatchType *DispatchType,
	status *MovementStatus,
	startDate *time.Time,
	endDate *time.Time,
) ([]Edge[OutwardMovement], *PageInfo, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&OutwardMovement{}).Preload("Items")
	if voucherNumber != nil && *voucherNumber != "" {
		dbCtx.Where("voucher_number LIKE ?", "%"+*voucherNumber+"%")
	}
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if dispatchType != nil {
		dbCtx.Where("dispatch_type = ?", *dispatchType)
	}
	if status != nil {
		dbCtx.Where("status = ?", *status)
	}
	if startDate != nil && endDate != nil {
		dbCtx.Where("movement_date BETWEEN ? AND ?", startDate, endDate)
	}

	return FetchPagePureCursor[OutwardMovement](dbCtx, limit, after, "id", "<")
}

// GetActiveOutwardMovementsForPI loads Active dispatch plans and export
// invoices referencing the PI, directly (pi_id) or via the multi-PI list.
// Direct exports carry no PI linkage and are excluded by dispatch type.
func GetActiveOutwardMovementsForPI(tx *gorm.DB, piId int) ([]*OutwardMovement, error) {
	var movements []*OutwardMovement
	err := tx.Preload("Items").
		Where("status = ?", MovementStatusActive).
		Where("dispatch_type IN ?", []DispatchType{DispatchTypePlan, DispatchTypeExportInvoice}).
		Where("pi_id = ? OR JSON_CONTAINS(pi_ids, ?)", piId, fmt.Sprint(piId)).
		Order("id").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// GetActiveOutwardQuantity sums the effective dispatched quantity of the
// product across all Active outward movements at the warehouse.
func GetActiveOutwardQuantity(tx *gorm.DB, productId, warehouseId int) (decimal.Decimal, *time.Time, error) {
	var movements []*OutwardMovement
	err := tx.Preload("Items", "product_id = ?", productId).
		Where("warehouse_id = ? AND status = ?", warehouseId, MovementStatusActive).
		Where("id IN (SELECT outward_movement_id FROM outward_movement_items WHERE product_id = ?)", productId).
		Order("id").
		Find(&movements).Error
	if err != nil {
		return decimal.Zero, nil, err
	}

	total := decimal.Zero
	var lastDate *time.Time
	for _, m := range movements {
		for i := range m.Items {
			total = total.Add(m.Items[i].EffectiveQty())
		}
		d := m.MovementDate
		if lastDate == nil || d.After(*lastDate) {
			lastDate = &d
		}
	}
	return total, lastDate, nil
}
