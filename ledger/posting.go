package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeflowdata/exim_backend/models"
)

// PostInward applies an inward movement to the tracking table. Each item
// upserts its batch row in a single statement so concurrent postings to
// the same batch both land: the increment happens in SQL, not in Go.
func PostInward(tx *gorm.DB, logger *logrus.Logger, movement *models.InwardMovement) error {
	if tx == nil {
		return fmt.Errorf("post inward: nil transaction handle")
	}
	if movement == nil || len(movement.Items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range movement.Items {
		item := &movement.Items[i]
		record := models.TrackingRecord{
			InwardMovementId: movement.ID,
			ProductId:        item.ProductId,
			WarehouseId:      movement.WarehouseId,
			Sku:              item.Sku,
			ProductName:      item.ProductName,
			QuantityInward:   item.Quantity,
			QuantityOutward:  decimal.Zero,
			RemainingStock:   item.Quantity,
			LastUpdated:      now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "inward_movement_id"},
				{Name: "product_id"},
				{Name: "warehouse_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity_inward": gorm.Expr("quantity_inward + ?", item.Quantity),
				"remaining_stock": gorm.Expr("remaining_stock + ?", item.Quantity),
				"last_updated":    now,
			}),
		}).Create(&record).Error
		if err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{
		"inward_movement_id": movement.ID,
		"warehouse_id":       movement.WarehouseId,
		"items":              len(movement.Items),
	}).Info("ledger.post_inward")
	return nil
}

// PostOutward applies an outward movement to the tracking table: each
// item's effective quantity is consumed FIFO across the product's batch
// rows at the movement's warehouse. Rows are updated with atomic column
// increments so concurrent outward postings never clobber each other.
//
// An item with no tracking rows at all is logged and skipped; dispatch is
// never blocked by a ledger gap.
func PostOutward(tx *gorm.DB, logger *logrus.Logger, movement *models.OutwardMovement) error {
	if tx == nil {
		return fmt.Errorf("post outward: nil transaction handle")
	}
	if movement == nil || len(movement.Items) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range movement.Items {
		item := &movement.Items[i]
		qty := item.EffectiveQty()
		if !qty.IsPositive() {
			continue
		}

		batches, err := models.GetBatchRecords(tx, item.ProductId, movement.WarehouseId)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			logger.WithFields(logrus.Fields{
				"outward_movement_id": movement.ID,
				"product_id":          item.ProductId,
				"warehouse_id":        movement.WarehouseId,
			}).Warn("ledger.post_outward.no_tracking")
			continue
		}

		for _, a := range AllocateOutward(batchStates(batches), qty) {
			err := tx.Model(&models.TrackingRecord{}).
				Where("id = ?", a.TrackingId).
				UpdateColumns(map[string]interface{}{
					"quantity_outward":  gorm.Expr("quantity_outward + ?", a.Qty),
					"remaining_stock":   gorm.Expr("remaining_stock - ?", a.Qty),
					"last_outward_date": movement.MovementDate,
					"last_updated":      now,
				}).Error
			if err != nil {
				return err
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"outward_movement_id": movement.ID,
		"warehouse_id":        movement.WarehouseId,
		"items":               len(movement.Items),
	}).Info("ledger.post_outward")
	return nil
}

func batchStates(records []*models.TrackingRecord) []BatchState {
	states := make([]BatchState, len(records))
	for i, r := range records {
		states[i] = BatchState{TrackingId: r.ID, Remaining: r.RemainingStock, Outward: r.QuantityOutward}
	}
	return states
}
