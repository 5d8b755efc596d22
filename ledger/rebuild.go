package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradeflowdata/exim_backend/models"
)

const rebuildLockTimeoutSeconds = 30

func trackingRebuildLockName(productId, warehouseId int) string {
	return fmt.Sprintf("trk_rebuild:%d:%d", warehouseId, productId)
}

// ObtainRebuildLock best-effort acquires the redis lock for one rebuild
// scope, so two operators hammering the same scope queue up cheaply
// instead of both blocking on the database. A nil return means proceed
// anyway: reliability must not depend on Redis, the MySQL named lock in
// RebuildTracking still serializes the recompute.
func ObtainRebuildLock(ctx context.Context, locker *redislock.Client, logger *logrus.Logger, productId, warehouseId int) *redislock.Lock {
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"product_id":   productId,
			"warehouse_id": warehouseId,
		}).Warn("ledger.rebuild.redis_lock_unavailable")
		return nil
	}
	lock, err := locker.Obtain(ctx, trackingRebuildLockName(productId, warehouseId), rebuildLockTimeoutSeconds*time.Second, nil)
	if err == redislock.ErrNotObtained {
		logger.WithFields(logrus.Fields{
			"product_id":   productId,
			"warehouse_id": warehouseId,
		}).Warn("ledger.rebuild.redis_lock_not_obtained")
		return nil
	} else if err != nil {
		logger.WithFields(logrus.Fields{
			"product_id":   productId,
			"warehouse_id": warehouseId,
			"error":        err.Error(),
		}).Warn("ledger.rebuild.redis_lock_error")
		return nil
	}
	return lock
}

func acquireTrackingRebuildLock(tx *gorm.DB, productId, warehouseId int) error {
	var got int
	name := trackingRebuildLockName(productId, warehouseId)
	err := tx.Raw("SELECT GET_LOCK(?, ?)", name, rebuildLockTimeoutSeconds).Scan(&got).Error
	if err != nil {
		return err
	}
	if got != 1 {
		return fmt.Errorf("rebuild lock %s not acquired within %ds", name, rebuildLockTimeoutSeconds)
	}
	return nil
}

func releaseTrackingRebuildLock(tx *gorm.DB, productId, warehouseId int) {
	var released int
	tx.Raw("SELECT RELEASE_LOCK(?)", trackingRebuildLockName(productId, warehouseId)).Scan(&released)
}

// RebuildTracking is the reconciliation oracle: it recomputes the tracking
// rows for one product at one warehouse from the Active movement history
// alone and writes them back, discarding whatever incremental state had
// accumulated. Reverted movements contribute nothing; tracking rows whose
// inward movement no longer exists (or is no longer Active) are deleted.
//
// The recompute is serialized per (warehouse, product) with a MySQL named
// lock so two rebuilds, or a rebuild racing a repair job, cannot
// interleave their writes.
func RebuildTracking(tx *gorm.DB, logger *logrus.Logger, productId, warehouseId int) ([]*models.TrackingRecord, error) {
	if tx == nil {
		return nil, fmt.Errorf("rebuild tracking: nil transaction handle")
	}
	if productId <= 0 || warehouseId <= 0 {
		return nil, fmt.Errorf("rebuild tracking: invalid scope product=%d warehouse=%d", productId, warehouseId)
	}

	if err := acquireTrackingRebuildLock(tx, productId, warehouseId); err != nil {
		return nil, err
	}
	defer releaseTrackingRebuildLock(tx, productId, warehouseId)

	logger.WithFields(logrus.Fields{
		"product_id":   productId,
		"warehouse_id": warehouseId,
	}).Info("ledger.rebuild.start")

	inwards, err := models.GetActiveInwardBatches(tx, productId, warehouseId)
	if err != nil {
		return nil, err
	}
	totalOutward, lastOutwardDate, err := models.GetActiveOutwardQuantity(tx, productId, warehouseId)
	if err != nil {
		return nil, err
	}

	// Per-batch inward totals; a movement can carry the product on more
	// than one line.
	type batchTotal struct {
		movementId  int
		sku         string
		productName string
		qty         decimal.Decimal
	}
	totals := make([]batchTotal, 0, len(inwards))
	activeIds := make([]int, 0, len(inwards))
	for _, mv := range inwards {
		bt := batchTotal{movementId: mv.ID, qty: decimal.Zero}
		for i := range mv.Items {
			item := &mv.Items[i]
			if item.ProductId != productId {
				continue
			}
			bt.qty = bt.qty.Add(item.Quantity)
			if bt.sku == "" {
				bt.sku = item.Sku
				bt.productName = item.ProductName
			}
		}
		totals = append(totals, bt)
		activeIds = append(activeIds, mv.ID)
	}

	// Drop rows left behind by deleted or reverted inward movements.
	stale := tx.Where("product_id = ? AND warehouse_id = ?", productId, warehouseId)
	if len(activeIds) > 0 {
		stale = stale.Where("inward_movement_id NOT IN ?", activeIds)
	}
	if err := stale.Delete(&models.TrackingRecord{}).Error; err != nil {
		return nil, err
	}

	inwardQtys := make([]decimal.Decimal, len(totals))
	for i, bt := range totals {
		inwardQtys[i] = bt.qty
	}
	outwardPerBatch := DistributeOutward(inwardQtys, totalOutward)

	now := time.Now().UTC()
	records := make([]*models.TrackingRecord, 0, len(totals))
	for i, bt := range totals {
		record := &models.TrackingRecord{
			InwardMovementId: bt.movementId,
			ProductId:        productId,
			WarehouseId:      warehouseId,
			Sku:              bt.sku,
			ProductName:      bt.productName,
			QuantityInward:   bt.qty,
			QuantityOutward:  outwardPerBatch[i],
			RemainingStock:   bt.qty.Sub(outwardPerBatch[i]),
			LastUpdated:      now,
		}
		if outwardPerBatch[i].IsPositive() {
			record.LastOutwardDate = lastOutwardDate
		}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "inward_movement_id"},
				{Name: "product_id"},
				{Name: "warehouse_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"sku":               record.Sku,
				"product_name":      record.ProductName,
				"quantity_inward":   record.QuantityInward,
				"quantity_outward":  record.QuantityOutward,
				"remaining_stock":   record.RemainingStock,
				"last_outward_date": record.LastOutwardDate,
				"last_updated":      now,
			}),
		}).Create(record).Error
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	logger.WithFields(logrus.Fields{
		"product_id":    productId,
		"warehouse_id":  warehouseId,
		"batches":       len(records),
		"total_outward": totalOutward.String(),
	}).Info("ledger.rebuild.done")
	return records, nil
}

// RebuildScope lists every (product, warehouse) pair that has any Active
// inward movement item, for repair jobs that rebuild the whole ledger.
func RebuildScope(tx *gorm.DB) ([]models.StockScope, error) {
	if tx == nil {
		return nil, fmt.Errorf("rebuild scope: nil transaction handle")
	}
	return models.GetActiveStockScopes(tx)
}
