// Package handlers exposes the HTTP surface: resource CRUD, movement
// recording and reversal, tracking rebuild/queries, and PI→PO mapping
// resolution. Handlers translate between gin and the models/ledger
// packages and own nothing else.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/utils"
)

// respondError maps domain errors onto HTTP statuses: missing records to
// 404, binding/validation failures to 400 with a field map, everything
// else to 500 with a correlation-id-tagged log line.
func respondError(c *gin.Context, moduleName, funcName string, err error) {
	if errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}

	if utils.IsDuplicateKeyErr(err) {
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate record"})
		return
	}

	logger := config.GetLogger()
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	config.LogError(logger, moduleName, funcName, "correlation_id="+cid, nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func respondBadRequest(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryLimit(c *gin.Context) int {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return limit
}

func queryAfter(c *gin.Context) *string {
	if v := c.Query("after"); v != "" {
		return &v
	}
	return nil
}

func queryString(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, name string) *int {
	if v := c.Query(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func queryDate(c *gin.Context, name string) *time.Time {
	if v := c.Query(name); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return &t
		}
	}
	return nil
}
