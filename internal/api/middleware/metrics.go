package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wikid82/ballot/backend/internal/metrics"
)

// Metrics records request latency labelled by the matched route template,
// so ids in paths do not explode label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
	}
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
