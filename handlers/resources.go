package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradeflowdata/exim_backend/models"
)

func CreateCompany(c *gin.Context) {
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	company, err := models.CreateCompany(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "resources.go", "CreateCompany", err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func UpdateCompany(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCompany
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	company, err := models.UpdateCompany(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "resources.go", "UpdateCompany", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func DeleteCompany(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	company, err := models.DeleteCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, "resources.go", "DeleteCompany", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func GetCompany(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	company, err := models.GetCompany(c.Request.Context(), id)
	if err != nil {
		respondError(c, "resources.go", "GetCompany", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func ListCompanies(c *gin.Context) {
	companies, err := models.GetCompanies(c.Request.Context(), queryString(c, "name"))
	if err != nil {
		respondError(c, "resources.go", "ListCompanies", err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func CreateProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "resources.go", "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func UpdateProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "resources.go", "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, "resources.go", "DeleteProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func GetProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, "resources.go", "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func ListProducts(c *gin.Context) {
	products, err := models.GetProducts(c.Request.Context(), queryString(c, "name"), queryString(c, "sku"))
	if err != nil {
		respondError(c, "resources.go", "ListProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func CreateWarehouse(c *gin.Context) {
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	warehouse, err := models.CreateWarehouse(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "resources.go", "CreateWarehouse", err)
		return
	}
	c.JSON(http.StatusCreated, warehouse)
}

func UpdateWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewWarehouse
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	warehouse, err := models.UpdateWarehouse(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "resources.go", "UpdateWarehouse", err)
		return
	}
	c.JSON(http.StatusOK, warehouse)
}

func DeleteWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	warehouse, err := models.DeleteWarehouse(c.Request.Context(), id)
	if err != nil {
		respondError(c, "resources.go", "DeleteWarehouse", err)
		return
	}
	c.JSON(http.StatusOK, warehouse)
}

func GetWarehouse(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	warehouse, err := models.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		respondError(c, "resources.go", "GetWarehouse", err)
		return
	}
	c.JSON(http.StatusOK, warehouse)
}

func ListWarehouses(c *gin.Context) {
	warehouses, err := models.GetWarehouses(c.Request.Context(), queryString(c, "name"))
	if err != nil {
		respondError(c, "resources.go", "ListWarehouses", err)
		return
	}
	c.JSON(http.StatusOK, warehouses)
}
