package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableExporter interface {
	PDF(ctx context.Context, query dto.ExportQuery) ([]byte, error)
	ICS(ctx context.Context, query dto.ExportQuery) ([]byte, error)
	Filename(query dto.ExportQuery, ext string) string
}

// ExportHandler streams timetable documents.
type ExportHandler struct {
	service timetableExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// PDF godoc
// @Summary Download timetable as PDF
// @Tags Export
// @Produce application/pdf
// @Param day query string false "Day filter"
// @Param professorId query string false "Professor filter"
// @Param roomId query string false "Room filter"
// @Success 200 {file} binary
// @Router /schedule/export.pdf [get]
func (h *ExportHandler) PDF(c *gin.Context) {
	h.render(c, "pdf", "application/pdf", h.service.PDF)
}

// ICS godoc
// @Summary Download timetable as iCalendar
// @Tags Export
// @Produce text/calendar
// @Param day query string false "Day filter"
// @Param professorId query string false "Professor filter"
// @Param roomId query string false "Room filter"
// @Success 200 {file} binary
// @Router /schedule/export.ics [get]
func (h *ExportHandler) ICS(c *gin.Context) {
	h.render(c, "ics", "text/calendar; charset=utf-8", h.service.ICS)
}

func (h *ExportHandler) render(c *gin.Context, ext, contentType string, fn func(context.Context, dto.ExportQuery) ([]byte, error)) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	payload, err := fn(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, h.service.Filename(query, ext), contentType, payload)
}
