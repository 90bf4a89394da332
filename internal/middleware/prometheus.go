package middleware

import (
	"time"

	"account_service/internal/observability"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// PrometheusMiddleware records request count, latency and in-flight requests
// per route pattern. Scrapes of skipPaths (normally /metrics) are not counted.
func PrometheusMiddleware(metrics *observability.Metrics, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		if _, ok := skip[c.FullPath()]; ok {
			c.Next()
			return
		}

		done := metrics.TrackInFlight()
		start := time.Now()

		c.Next()
		done()

		// route pattern keeps label cardinality bounded, e.g. /users/:id
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), start)
	}
}
