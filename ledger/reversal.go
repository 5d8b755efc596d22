package ledger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/models"
)

// RevertResult reports the outcome of a reversal attempt.
type RevertResult struct {
	AlreadyReverted bool
}

// RevertOutward undoes an outward movement's tracking postings and marks
// the movement Reverted, all inside the caller's transaction. The status
// flip is a guarded update keyed on the current Active status, so a
// concurrent or repeated revert of the same movement is a no-op reported
// via AlreadyReverted rather than a double decrement.
//
// Decrements walk the batches newest first (the inverse of the FIFO
// posting order) and are floored at zero per row; remaining stock is then
// recomputed as inward minus outward so the row stays internally
// consistent even when postings interleaved since the original dispatch.
func RevertOutward(tx *gorm.DB, logger *logrus.Logger, movement *models.OutwardMovement, reason string) (*RevertResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("revert outward: nil transaction handle")
	}
	if movement == nil {
		return nil, fmt.Errorf("revert outward: nil movement")
	}

	now := time.Now().UTC()
	flip := tx.Model(&models.OutwardMovement{}).
		Where("id = ? AND status = ?", movement.ID, models.MovementStatusActive).
		Updates(map[string]interface{}{
			"status":          models.MovementStatusReverted,
			"reversal_reason": reason,
			"reverted_at":     now,
		})
	if flip.Error != nil {
		return nil, flip.Error
	}
	if flip.RowsAffected == 0 {
		logger.WithFields(logrus.Fields{
			"outward_movement_id": movement.ID,
		}).Warn("ledger.revert_outward.already_reverted")
		return &RevertResult{AlreadyReverted: true}, nil
	}

	for i := range movement.Items {
		item := &movement.Items[i]
		qty := item.EffectiveQty()
		if !qty.IsPositive() {
			continue
		}

		batches, err := models.GetBatchRecords(tx, item.ProductId, movement.WarehouseId)
		if err != nil {
			return nil, err
		}

		for _, a := range AllocateReversal(batchStates(batches), qty) {
			// GREATEST guards against a concurrent revert of another
			// movement racing this one past the planned floor.
			err := tx.Model(&models.TrackingRecord{}).
				Where("id = ?", a.TrackingId).
				UpdateColumns(map[string]interface{}{
					"quantity_outward": gorm.Expr("GREATEST(quantity_outward - ?, 0)", a.Qty),
					"last_updated":     now,
				}).Error
			if err != nil {
				return nil, err
			}
			err = tx.Model(&models.TrackingRecord{}).
				Where("id = ?", a.TrackingId).
				UpdateColumn("remaining_stock", gorm.Expr("quantity_inward - quantity_outward")).Error
			if err != nil {
				return nil, err
			}
		}
	}

	movement.Status = models.MovementStatusReverted
	movement.ReversalReason = &reason
	movement.RevertedAt = &now

	logger.WithFields(logrus.Fields{
		"outward_movement_id": movement.ID,
		"warehouse_id":        movement.WarehouseId,
		"reason":              reason,
	}).Info("ledger.revert_outward")
	return &RevertResult{}, nil
}
