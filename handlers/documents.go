package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradeflowdata/exim_backend/models"
	"github.com/tradeflowdata/exim_backend/utils"
)

func CreateProformaInvoice(c *gin.Context) {
	var input models.NewProformaInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	pi, err := models.CreateProformaInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "documents.go", "CreateProformaInvoice", err)
		return
	}
	c.JSON(http.StatusCreated, pi)
}

func UpdateProformaInvoice(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProformaInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	pi, err := models.UpdateProformaInvoice(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "documents.go", "UpdateProformaInvoice", err)
		return
	}
	// The edited items change dispatched/remaining math.
	invalidatePiCache(id)
	c.JSON(http.StatusOK, pi)
}

func DeleteProformaInvoice(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	pi, err := models.DeleteProformaInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, "documents.go", "DeleteProformaInvoice", err)
		return
	}
	invalidatePiCache(id)
	c.JSON(http.StatusOK, pi)
}

func GetProformaInvoiceById(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	pi, err := models.GetProformaInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, "documents.go", "GetProformaInvoiceById", err)
		return
	}
	c.JSON(http.StatusOK, pi)
}

func ListProformaInvoices(c *gin.Context) {
	edges, pageInfo, err := models.PaginateProformaInvoice(
		c.Request.Context(), queryLimit(c), queryAfter(c),
		queryString(c, "voucher_number"),
		queryString(c, "consignee"),
		queryDate(c, "start_date"),
		queryDate(c, "end_date"),
	)
	if err != nil {
		respondError(c, "documents.go", "ListProformaInvoices", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges, "page_info": pageInfo})
}

func CreatePurchaseOrder(c *gin.Context) {
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	po, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "documents.go", "CreatePurchaseOrder", err)
		return
	}
	utils.InvalidateMappingCache(po.PiIds)
	c.JSON(http.StatusCreated, po)
}

func UpdatePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewPurchaseOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	po, err := models.UpdatePurchaseOrder(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "documents.go", "UpdatePurchaseOrder", err)
		return
	}
	// Stale links included: the input may have dropped a PI.
	utils.InvalidateMappingCache(utils.MergeIntSlices(po.PiIds, input.PiIds))
	c.JSON(http.StatusOK, po)
}

func DeletePurchaseOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	po, err := models.DeletePurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "documents.go", "DeletePurchaseOrder", err)
		return
	}
	utils.InvalidateMappingCache(po.PiIds)
	c.JSON(http.StatusOK, po)
}

func GetPurchaseOrderById(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	po, err := models.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "documents.go", "GetPurchaseOrderById", err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func ListPurchaseOrders(c *gin.Context) {
	edges, pageInfo, err := models.PaginatePurchaseOrder(
		c.Request.Context(), queryLimit(c), queryAfter(c),
		queryString(c, "order_number"),
		queryString(c, "supplier_name"),
		queryDate(c, "start_date"),
		queryDate(c, "end_date"),
	)
	if err != nil {
		respondError(c, "documents.go", "ListPurchaseOrders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"edges": edges, "page_info": pageInfo})
}

func invalidatePiCache(piIds ...int) {
	utils.InvalidateMappingCache(piIds)
}
