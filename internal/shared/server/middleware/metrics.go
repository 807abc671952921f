package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"bill-assistant/internal/shared/metrics"
)

// Metrics counts requests by route template so ids do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
