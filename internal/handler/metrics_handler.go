package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
)

type indexSize interface {
	Len() int
	Version() uint64
}

// MetricsHandler serves the liveness probe and the Prometheus scrape endpoint.
type MetricsHandler struct {
	metrics *service.MetricsService
	index   indexSize
	audit   auditReader
}

// NewMetricsHandler constructs a metrics handler. auditor may be nil.
func NewMetricsHandler(metrics *service.MetricsService, index indexSize, auditor *service.IntegrityAuditor) *MetricsHandler {
	h := &MetricsHandler{metrics: metrics, index: index}
	if auditor != nil {
		h.audit = auditor
	}
	return h
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Description Reports index size and version. Answers 503 once the integrity audit has failed.
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	status := http.StatusOK
	payload := gin.H{"status": "ok"}
	if h.index != nil {
		payload["entries"] = h.index.Len()
		payload["index_version"] = h.index.Version()
	}
	if h.audit != nil {
		if last := h.audit.Last(); last != nil {
			payload["audit"] = last
			if !last.Healthy {
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
			}
		}
	}
	c.JSON(status, payload)
}
