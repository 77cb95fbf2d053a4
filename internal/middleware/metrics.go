package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
)

// probeRoutes are scraped constantly and would drown the API latency histograms.
var probeRoutes = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Metrics records request latency and status per matched route. Websocket upgrades are
// skipped since their duration is the session length, as are health and scrape probes.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}
		if _, probe := probeRoutes[c.FullPath()]; probe {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			// raw paths of unmatched requests would explode label cardinality
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
