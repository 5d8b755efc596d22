package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/tradeflowdata/exim_backend/utils"
)

// ActorMiddleware attaches the caller identity (x-actor header, set by
// the gateway) to the request context for audit logging. Absent header
// means an anonymous caller; requests are not rejected here.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.Request.Header.Get("x-actor")
		if actor != "" {
			c.Request = c.Request.WithContext(utils.SetActorInContext(c.Request.Context(), actor))
		}
		c.Next()
	}
}
