package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pesavault/pesavault/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsMiddleware records request counts and latency per route. It uses the
// route template (c.FullPath) rather than the raw URL so path parameters do
// not explode the label cardinality.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestsTotal.With(prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}).Inc()
		metrics.HTTPRequestDuration.With(prometheus.Labels{
			"method": c.Request.Method,
			"route":  route,
		}).Observe(time.Since(start).Seconds())
	}
}
