package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/package-registry/package-registry/internal/telemetry"
)

// MetricsMiddleware records request count and latency for every request.
// The path label is c.FullPath(), the matched route template rather than the
// raw URL, so confirmation tokens and user IDs never become label values.
// Requests that match no route use the literal "<no-route>".
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		status := fmt.Sprintf("%d", c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}
