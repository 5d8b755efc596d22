package ledger

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/models"
)

// CascadeDeleteInward removes every tracking row derived from an inward
// movement and returns the number of rows deleted. It runs in the same
// transaction that deletes the movement: a failure here must roll the
// whole deletion back, never leave orphan tracking rows behind.
func CascadeDeleteInward(tx *gorm.DB, logger *logrus.Logger, inwardMovementId int) (int64, error) {
	if tx == nil {
		return 0, fmt.Errorf("cascade delete: nil transaction handle")
	}

	res := tx.Where("inward_movement_id = ?", inwardMovementId).Delete(&models.TrackingRecord{})
	if res.Error != nil {
		return 0, res.Error
	}

	logger.WithFields(logrus.Fields{
		"inward_movement_id": inwardMovementId,
		"rows_deleted":       res.RowsAffected,
	}).Info("ledger.cascade_delete")
	return res.RowsAffected, nil
}
