package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type exporterMock struct {
	query dto.ExportQuery
	err   error
}

func (m *exporterMock) PDF(ctx context.Context, query dto.ExportQuery) ([]byte, error) {
	m.query = query
	return []byte("%PDF-1.3"), m.err
}

func (m *exporterMock) ICS(ctx context.Context, query dto.ExportQuery) ([]byte, error) {
	m.query = query
	return []byte("BEGIN:VCALENDAR"), m.err
}

func (m *exporterMock) Filename(query dto.ExportQuery, ext string) string {
	return "timetable_monday." + ext
}

func TestExportHandlerPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &exporterMock{}
	handler := &ExportHandler{service: mock}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/schedule/export.pdf?day=MONDAY&professorId=P1", nil)

	handler.PDF(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=timetable_monday.pdf", w.Header().Get("Content-Disposition"))
	assert.Equal(t, dto.ExportQuery{Day: "MONDAY", ProfessorID: "P1"}, mock.query)
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestExportHandlerICS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{service: &exporterMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/schedule/export.ics", nil)

	handler.ICS(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".ics")
}

func TestExportHandlerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &ExportHandler{service: &exporterMock{err: appErrors.Clone(appErrors.ErrValidation, "invalid day")}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/schedule/export.pdf?day=someday", nil)

	handler.PDF(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
