package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradeflowdata/exim_backend/config"
	"github.com/tradeflowdata/exim_backend/ledger"
)

// GetPIPOMapping resolves one PI's dispatch picture, redis cache first.
func GetPIPOMapping(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	mapping, err := ledger.ResolvePIPOMappingCached(c.Request.Context(), config.GetDB(), config.GetLogger(), id)
	if err != nil {
		respondError(c, "mapping.go", "GetPIPOMapping", err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}

func ListPIPOMappings(c *gin.Context) {
	connection, err := ledger.PaginatePIPOMappings(
		c.Request.Context(), config.GetDB(), config.GetLogger(),
		queryLimit(c), queryAfter(c),
		queryString(c, "voucher_number"),
		queryString(c, "consignee"),
		queryDate(c, "start_date"),
		queryDate(c, "end_date"),
	)
	if err != nil {
		respondError(c, "mapping.go", "ListPIPOMappings", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}
