package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/ledger"
	"github.com/tradeflowdata/exim_backend/models"
)

// otelgorm parents its query spans on the request context, so expensive
// operations get an explicit root span here.
var tracer = otel.Tracer("exim-backend")

func ListTrackingRecords(c *gin.Context) {
	records, err := models.GetTrackingRecords(
		c.Request.Context(),
		queryInt(c, "product_id"),
		queryInt(c, "warehouse_id"),
		queryInt(c, "inward_movement_id"),
	)
	if err != nil {
		respondError(c, "tracking.go", "ListTrackingRecords", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetStockOnHand sums remaining stock across a product's batches at one
// warehouse.
func GetStockOnHand(c *gin.Context) {
	productId := queryInt(c, "product_id")
	warehouseId := queryInt(c, "warehouse_id")
	if productId == nil || warehouseId == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_id and warehouse_id are required"})
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())
	stock, err := models.GetProductStockOnHand(db, *productId, *warehouseId)
	if err != nil {
		respondError(c, "tracking.go", "GetStockOnHand", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id":    *productId,
		"warehouse_id":  *warehouseId,
		"stock_on_hand": stock,
	})
}

type rebuildTrackingInput struct {
	ProductId   int `json:"product_id" binding:"required"`
	WarehouseId int `json:"warehouse_id" binding:"required"`
}

// RebuildTracking recomputes one (product, warehouse) scope from the
// Active movement history and returns the rebuilt rows.
func RebuildTracking(c *gin.Context) {
	var input rebuildTrackingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "tracking.rebuild")
	defer span.End()

	db := config.GetDB().WithContext(ctx)
	logger := config.GetLogger()

	// Best-effort redis lock; a nil lock proceeds anyway (the MySQL named
	// lock inside RebuildTracking still serializes the recompute).
	if lock := ledger.ObtainRebuildLock(ctx, config.GetRedisLock(), logger, input.ProductId, input.WarehouseId); lock != nil {
		defer func() { _ = lock.Release(ctx) }()
	}

	var records []*models.TrackingRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		records, err = ledger.RebuildTracking(tx, logger, input.ProductId, input.WarehouseId)
		return err
	})
	if err != nil {
		respondError(c, "tracking.go", "RebuildTracking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "batches": len(records)})
}
