package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes wires the REST surface onto the router.
func RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/companies", CreateCompany)
	api.GET("/companies", ListCompanies)
	api.GET("/companies/:id", GetCompany)
	api.PUT("/companies/:id", UpdateCompany)
	api.DELETE("/companies/:id", DeleteCompany)

	api.POST("/products", CreateProduct)
	api.GET("/products", ListProducts)
	api.GET("/products/:id", GetProduct)
	api.PUT("/products/:id", UpdateProduct)
	api.DELETE("/products/:id", DeleteProduct)

	api.POST("/warehouses", CreateWarehouse)
	api.GET("/warehouses", ListWarehouses)
	api.GET("/warehouses/:id", GetWarehouse)
	api.PUT("/warehouses/:id", UpdateWarehouse)
	api.DELETE("/warehouses/:id", DeleteWarehouse)

	api.POST("/proforma-invoices", CreateProformaInvoice)
	api.GET("/proforma-invoices", ListProformaInvoices)
	api.GET("/proforma-invoices/:id", GetProformaInvoiceById)
	api.PUT("/proforma-invoices/:id", UpdateProformaInvoice)
	api.DELETE("/proforma-invoices/:id", DeleteProformaInvoice)
	api.GET("/proforma-invoices/:id/mapping", GetPIPOMapping)

	api.POST("/purchase-orders", CreatePurchaseOrder)
	api.GET("/purchase-orders", ListPurchaseOrders)
	api.GET("/purchase-orders/:id", GetPurchaseOrderById)
	api.PUT("/purchase-orders/:id", UpdatePurchaseOrder)
	api.DELETE("/purchase-orders/:id", DeletePurchaseOrder)

	api.POST("/inward-movements", CreateInwardMovement)
	api.GET("/inward-movements", ListInwardMovements)
	api.GET("/inward-movements/:id", GetInwardMovementById)
	api.DELETE("/inward-movements/:id", DeleteInwardMovement)

	api.POST("/outward-movements", CreateOutwardMovement)
	api.GET("/outward-movements", ListOutwardMovements)
	api.GET("/outward-movements/:id", GetOutwardMovementById)
	api.POST("/outward-movements/:id/revert", RevertOutwardMovement)

	api.GET("/mappings", ListPIPOMappings)

	api.GET("/tracking", ListTrackingRecords)
	api.GET("/tracking/stock", GetStockOnHand)
	api.POST("/internal/ops/tracking/rebuild", RebuildTracking)
}
