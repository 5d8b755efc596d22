package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/ledger"
	"github.com/tradeflowdata/exim_backend/models"
)

func CreateInwardMovement(c *gin.Context) {
	var input models.NewInwardMovement
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	movement, err := ledger.RecordInward(c.Request.Context(), config.GetDB(), config.GetLogger(), &input)
	if err != nil {
		respondError(c, "movements.go", "CreateInwardMovement", err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func GetInwardMovementById(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	movement, err := models.GetInwardMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, "movements.go", "GetInwardMovementById", err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func ListInwardMovements(c *gin.Context) {
	edges, pageInfo, err := models.PaginateInwardMovements(
		c.Request.Context(), queryLimit(c), queryAfter(c),
		queryString(c, "entry_number"),
		queryInt(c, "warehouse_id"),
		queryDate(c, "start_date"),
		queryDate(c, "end_date"),
	)
	if err != nil {
		respondError(c, "movements.go", "ListInwardMovements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges, "page_info": pageInfo})
}

// DeleteInwardMovement deletes the movement and cascades its tracking
// rows; the response reports how many rows the cascade removed.
func DeleteInwardMovement(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	movement, deleted, err := ledger.DeleteInward(c.Request.Context(), config.GetDB(), config.GetLogger(), id)
	if err != nil {
		respondError(c, "movements.go", "DeleteInwardMovement", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movement": movement, "tracking_rows_deleted": deleted})
}

func CreateOutwardMovement(c *gin.Context) {
	var input models.NewOutwardMovement
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	movement, err := ledger.RecordOutward(c.Request.Context(), config.GetDB(), config.GetLogger(), &input)
	if err != nil {
		respondError(c, "movements.go", "CreateOutwardMovement", err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func GetOutwardMovementById(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	movement, err := models.GetOutwardMovement(c.Request.Context(), id)
	if err != nil {
		respondError(c, "movements.go", "GetOutwardMovementById", err)
		return
	}
	c.JSON(http.StatusOK, movement)
}

func ListOutwardMovements(c *gin.Context) {
	var dispatchType *models.DispatchType
	if v := c.Query("dispatch_type"); v != "" {
		dt := models.DispatchType(v)
		if err := dt.Validate(); err != nil {
			respondBadRequest(c, err)
			return
		}
		dispatchType = &dt
	}
	var status *models.MovementStatus
	if v := c.Query("status"); v != "" {
		s := models.MovementStatus(v)
		status = &s
	}

	edges, pageInfo, err := models.PaginateOutwardMovements(
		c.Request.Context(), queryLimit(c), queryAfter(c),
		queryString(c, "voucher_number"),
		queryInt(c, "warehouse_id"),
		dispatchType,
		status,
		queryDate(c, "start_date"),
		queryDate(c, "end_date"),
	)
	if err != nil {
		respondError(c, "movements.go", "ListOutwardMovements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges, "page_info": pageInfo})
}

type revertOutwardInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RevertOutwardMovement undoes a dispatch. Reverting an already-reverted
// movement returns 200 with already_reverted=true, never a second
// decrement.
func RevertOutwardMovement(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input revertOutwardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}

	movement, result, err := ledger.CancelOutward(c.Request.Context(), config.GetDB(), config.GetLogger(), id, input.Reason)
	if err != nil {
		respondError(c, "movements.go", "RevertOutwardMovement", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movement": movement, "already_reverted": result.AlreadyReverted})
}
