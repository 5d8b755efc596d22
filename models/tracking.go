package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflowdata/exim_backend/config"
	"gorm.io/gorm"
)

// TrackingRecord is the derived ledger row for one inventory batch:
// cumulative inward/outward quantities and remaining stock for a product
// received by one inward movement at one warehouse.
//
// Invariant after every completed ledger operation:
//
//	remaining_stock == quantity_inward - quantity_outward
//
// Total on-hand stock for a product at a warehouse is the SUM of
// remaining_stock across its batches, never a single counter.
type TrackingRecord struct {
	ID               int              `gorm:"primary_key" json:"id"`
	InwardMovementId int              `gorm:"uniqueIndex:idx_tracking_batch;not null" json:"inward_movement_id"`
	ProductId        int              `gorm:"uniqueIndex:idx_tracking_batch;index;not null" json:"product_id"`
	WarehouseId      int              `gorm:"uniqueIndex:idx_tracking_batch;index;not null" json:"warehouse_id"`
	Sku              string           `gorm:"size:100" json:"sku"`
	ProductName      string           `gorm:"size:255" json:"product_name"`
	QuantityInward   decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"quantity_inward"`
	QuantityOutward  decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"quantity_outward"`
	RemainingStock   decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"remaining_stock"`
	LastUpdated      time.Time        `json:"last_updated"`
	LastOutwardDate  *time.Time       `json:"last_outward_date"`
}

// GetBatchRecords loads the product's batch rows at the warehouse,
// oldest batch first (FIFO consumption order).
func GetBatchRecords(tx *gorm.DB, productId, warehouseId int) ([]*TrackingRecord, error) {
	var records []*TrackingRecord
	err := tx.
		Where("product_id = ? AND warehouse_id = ?", productId, warehouseId).
		Order("inward_movement_id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetProductStockOnHand is the canonical "current stock" aggregation:
// the sum of remaining_stock across the product's batches.
func GetProductStockOnHand(tx *gorm.DB, productId, warehouseId int) (decimal.Decimal, error) {
	var onHand decimal.Decimal
	err := tx.Model(&TrackingRecord{}).
		Where("product_id = ? AND warehouse_id = ?", productId, warehouseId).
		Select("COALESCE(SUM(remaining_stock), 0)").
		Scan(&onHand).Error
	if err != nil {
		return decimal.Zero, err
	}
	return onHand, nil
}

func GetTrackingRecords(ctx context.Context, productId, warehouseId, inwardMovementId *int) ([]*TrackingRecord, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&TrackingRecord{})
	if productId != nil && *productId > 0 {
		dbCtx.Where("product_id = ?", *productId)
	}
	if warehouseId != nil && *warehouseId > 0 {
		dbCtx.Where("warehouse_id = ?", *warehouseId)
	}
	if inwardMovementId != nil && *inwardMovementId > 0 {
		dbCtx.Where("inward_movement_id = ?", *inwardMovementId)
	}

	var records []*TrackingRecord
	if err := dbCtx.Order("inward_movement_id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
