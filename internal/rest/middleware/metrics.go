package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/youngchun/callforward/internal/metrics"
)

// MetricsMiddleware records request counts and latencies by route template
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		collector.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
