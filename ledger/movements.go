package ledger

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/models"
	"github.com/tradeflowdata/exim_backend/utils"
)

// RecordInward creates an inward movement and posts it to the tracking
// table in one transaction: either both the movement row and its tracking
// increments land, or neither does.
func RecordInward(ctx context.Context, db *gorm.DB, logger *logrus.Logger, input *models.NewInwardMovement) (*models.InwardMovement, error) {
	var movement *models.InwardMovement
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := models.CreateInwardMovementTx(tx, ctx, input)
		if err != nil {
			return err
		}
		if err := PostInward(tx, logger, m); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"movement_id":  movement.ID,
		"entry_number": movement.EntryNumber,
		"actor":        actorOrSystem(ctx),
	}).Info("ledger.inward.recorded")
	return movement, nil
}

// RecordOutward creates an outward movement and posts its FIFO
// consumption to the tracking table in one transaction, then drops any
// cached mapping for the PIs it references.
func RecordOutward(ctx context.Context, db *gorm.DB, logger *logrus.Logger, input *models.NewOutwardMovement) (*models.OutwardMovement, error) {
	var movement *models.OutwardMovement
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := models.CreateOutwardMovementTx(tx, ctx, input)
		if err != nil {
			return err
		}
		if err := PostOutward(tx, logger, m); err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"movement_id":    movement.ID,
		"voucher_number": movement.VoucherNumber,
		"actor":          actorOrSystem(ctx),
	}).Info("ledger.outward.recorded")
	invalidateMappings(logger, movement.ReferencedPiIds())
	return movement, nil
}

// DeleteInward deletes an inward movement and cascades its tracking rows
// in one transaction, returning the movement and the number of tracking
// rows removed. A cascade failure rolls back the movement deletion.
func DeleteInward(ctx context.Context, db *gorm.DB, logger *logrus.Logger, id int) (*models.InwardMovement, int64, error) {
	var movement *models.InwardMovement
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := models.DeleteInwardMovementTx(tx, id)
		if err != nil {
			return err
		}
		n, err := CascadeDeleteInward(tx, logger, id)
		if err != nil {
			return err
		}
		movement = m
		deleted = n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	logger.WithFields(logrus.Fields{
		"movement_id":   id,
		"tracking_rows": deleted,
		"actor":         actorOrSystem(ctx),
	}).Info("ledger.inward.deleted")
	return movement, deleted, nil
}

// CancelOutward reverts an outward movement inside one transaction and
// invalidates the cached mappings of every PI the movement referenced.
func CancelOutward(ctx context.Context, db *gorm.DB, logger *logrus.Logger, id int, reason string) (*models.OutwardMovement, *RevertResult, error) {
	var movement *models.OutwardMovement
	var result *RevertResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := models.GetOutwardMovementTx(tx, id)
		if err != nil {
			return err
		}
		res, err := RevertOutward(tx, logger, m, reason)
		if err != nil {
			return err
		}
		movement = m
		result = res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if !result.AlreadyReverted {
		logger.WithFields(logrus.Fields{
			"movement_id": movement.ID,
			"reason":      reason,
			"actor":       actorOrSystem(ctx),
		}).Info("ledger.outward.reverted")
		invalidateMappings(logger, movement.ReferencedPiIds())
	}
	return movement, result, nil
}

// actorOrSystem labels audit logs with the request actor, or "system"
// for CLI and scheduled callers that carry no actor header.
func actorOrSystem(ctx context.Context) string {
	if actor, ok := utils.GetActorFromContext(ctx); ok {
		return actor
	}
	return "system"
}

func invalidateMappings(logger *logrus.Logger, piIds []int) {
	if len(piIds) == 0 {
		return
	}
	if err := utils.InvalidateMappingCache(piIds); err != nil {
		logger.WithFields(logrus.Fields{"pi_ids": piIds, "error": err.Error()}).
			Warn("ledger.mapping_cache.invalidate_failed")
	}
}
