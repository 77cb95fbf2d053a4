package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/service"
)

type fixedIndex struct{}

func (fixedIndex) Len() int        { return 7 }
func (fixedIndex) Version() uint64 { return 12 }

type fixedAudit struct{ result *service.AuditResult }

func (f fixedAudit) Last() *service.AuditResult { return f.result }

func health(h *MetricsHandler) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	h.Health(c)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestHealthReportsIndex(t *testing.T) {
	w, body := health(NewMetricsHandler(nil, fixedIndex{}, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(7), body["entries"])
	assert.Equal(t, float64(12), body["index_version"])
	assert.NotContains(t, body, "audit")
}

func TestHealthDegradedAfterFailedAudit(t *testing.T) {
	h := &MetricsHandler{index: fixedIndex{}, audit: fixedAudit{result: &service.AuditResult{Healthy: false, Error: "room R1 double booked"}}}

	w, body := health(h)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestPrometheusUnavailableWithoutMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics", nil)

	NewMetricsHandler(nil, nil, nil).Prometheus(c)
	c.Writer.WriteHeaderNow() // gin's engine flushes the status after the handler chain; mirror that here

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
