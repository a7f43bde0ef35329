package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rjrjensen/vending-machine/pkg/metrics"
)

// DefaultMetricsExcludePaths are health and metrics endpoints left out of HTTP metrics
var DefaultMetricsExcludePaths = []string{"/metrics", "/health", "/ready"}

// MetricsMiddleware records request count, latency and in-flight requests.
// Paths in exclude are skipped; route patterns are used as labels so that
// slot coordinates do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics, exclude ...string) gin.HandlerFunc {
	if len(exclude) == 0 {
		exclude = DefaultMetricsExcludePaths
	}
	skip := make(map[string]bool, len(exclude))
	for _, path := range exclude {
		skip[path] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// MetricsEndpoint returns a handler for the /metrics endpoint
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}
