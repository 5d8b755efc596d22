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

// InwardMovement is an immutable receipt of stock into a warehouse.
// One inward movement is one inventory batch: its tracking rows carry
// per-lot provenance and are destroyed only when the movement is deleted.
type InwardMovement struct {
	ID           int                  `gorm:"primary_key" json:"id"`
	EntryNumber  string               `gorm:"size:100;index;not null" json:"entry_number" binding:"required"`
	WarehouseId  int                  `gorm:"index;not null" json:"warehouse_id" binding:"required"`
	CompanyId    int                  `gorm:"index" json:"company_id"`
	Status       MovementStatus       `gorm:"type:enum('Active','Reverted');default:'Active'" json:"status"`
	MovementDate time.Time            `gorm:"index;not null" json:"movement_date" binding:"required"`
	Items        []InwardMovementItem `json:"items"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

type InwardMovementItem struct {
	ID               int             `gorm:"primary_key" json:"id"`
	InwardMovementId int             `gorm:"index;not null" json:"inward_movement_id"`
	ProductId        int             `gorm:"index;not null" json:"product_id"`
	Sku              string          `gorm:"size:100" json:"sku"`
	ProductName      string          `gorm:"size:255" json:"product_name"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
}

func (m InwardMovement) GetCursor() string {
	return fmt.Sprint(m.ID)
}

type NewInwardMovement struct {
	EntryNumber  string                  `json:"entry_number" binding:"required"`
	WarehouseId  int                     `json:"warehouse_id" binding:"required"`
	CompanyId    int                     `json:"company_id"`
	MovementDate time.Time               `json:"movement_date" binding:"required"`
	Items        []NewInwardMovementItem `json:"items" binding:"required,dive"`
}

type NewInwardMovementItem struct {
	ProductId   int             `json:"product_id" binding:"required"`
	Sku         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
}

func (input *NewInwardMovement) validate(ctx context.Context) error {
	if err := utils.ValidateUnique[InwardMovement](ctx, "entry_number", input.EntryNumber, 0); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Warehouse](ctx, input.WarehouseId); err != nil {
		return errors.New("warehouse not found")
	}
	if len(input.Items) == 0 {
		return errors.New("at least one line item is required")
	}
	return nil
}

// CreateInwardMovementTx inserts the movement and its items inside the
// caller's transaction. Ledger posting happens in the same tx (ledger pkg).
func CreateInwardMovementTx(tx *gorm.DB, ctx context.Context, input *NewInwardMovement) (*InwardMovement, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	movement := InwardMovement{
		EntryNumber:  input.EntryNumber,
		WarehouseId:  input.WarehouseId,
		CompanyId:    input.CompanyId,
		Status:       MovementStatusActive,
		MovementDate: input.MovementDate,
	}
	for _, item := range input.Items {
		movement.Items = append(movement.Items, InwardMovementItem{
			ProductId:   item.ProductId,
			Sku:         item.Sku,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}

	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// DeleteInwardMovementTx removes the movement and its items inside the
// caller's transaction. Tracking rows are cascade-deleted by the ledger
// in the same tx; a cascade failure aborts the whole delete.
func DeleteInwardMovementTx(tx *gorm.DB, id int) (*InwardMovement, error) {

	var movement InwardMovement
	err := tx.Preload("Items").First(&movement, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Where("inward_movement_id = ?", movement.ID).Delete(&InwardMovementItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Delete(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func GetInwardMovement(ctx context.Context, id int) (*InwardMovement, error) {
	return utils.FetchModel[InwardMovement](ctx, id, "Items")
}

func PaginateInwardMovements(
	ctx context.Context, limit int, after *string,

	entryNumber *string,
	warehouseId *int,
	startDate *time.Time,
	endDate *time.Time,
) ([]Edge[InwardMovement], *PageInfo, error) {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&InwardMovement{}).Preload("Items")
	if entryNumber != nil && *entryNumber != "" {
		dbCtx.Where("entry_number LIKE ?", "%"+*entryNumber+"%")
	}
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if startDate != nil && endDate != nil {
		dbCtx.Where("movement_date BETWEEN ? AND ?", startDate, endDate)
	}

	return FetchPagePureCursor[InwardMovement](dbCtx, limit, after, "id", "<")
}

// GetActiveInwardBatches loads Active inward movements carrying the
// product at the warehouse, oldest batch first. Used by the rebuild oracle.
func GetActiveInwardBatches(tx *gorm.DB, productId, warehouseId int) ([]*InwardMovement, error) {
	var movements []*InwardMovement
	err := tx.Preload("Items", "product_id = ?", productId).
		Where("warehouse_id = ? AND status = ?", warehouseId, MovementStatusActive).
		Where("id IN (SELECT inward_movement_id FROM inward_movement_items WHERE product_id = ?)", productId).
		Order("id").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}
	return movements, nil
}

// StockScope identifies one (product, warehouse) ledger scope.
type StockScope struct {
	ProductId   int
	WarehouseId int
}

// GetActiveStockScopes lists every (product, warehouse) pair touched by
// an Active inward movement, for whole-ledger repair jobs.
func GetActiveStockScopes(tx *gorm.DB) ([]StockScope, error) {
	var scopes []StockScope
	err := tx.Model(&InwardMovementItem{}).
		Select("DISTINCT inward_movement_items.product_id AS product_id, inward_movements.warehouse_id AS warehouse_id").
		Joins("JOIN inward_movements ON inward_movements.id = inward_movement_items.inward_movement_id").
		Where("inward_movements.status = ?", MovementStatusActive).
		Order("warehouse_id, product_id").
		Scan(&scopes).Error
	if err != nil {
		return nil, err
	}
	return scopes, nil
}
