package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type scheduler interface {
	Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResult, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.ScheduleEntry, error)
}

type timetableReader interface {
	ListByDay(ctx context.Context, day string) ([]models.ScheduleEntry, bool, error)
	ListAll(ctx context.Context) ([]models.ScheduleEntry, bool, error)
	AvailableRooms(ctx context.Context, timeSlotID string) (*dto.AvailableRoomsResponse, bool, error)
	Stats(ctx context.Context) (*dto.EngineStats, error)
	Metrics() models.SystemMetrics
}

type auditReader interface {
	Last() *service.AuditResult
}

type statsResponse struct {
	Engine  *dto.EngineStats     `json:"engine"`
	Metrics models.SystemMetrics `json:"metrics"`
	Audit   *service.AuditResult `json:"audit,omitempty"`
}

// TimetableHandler exposes scheduling and timetable query endpoints.
type TimetableHandler struct {
	scheduler scheduler
	reader    timetableReader
	audit     auditReader
}

// NewTimetableHandler constructs the handler. audit may be nil when auditing is disabled.
func NewTimetableHandler(scheduling *service.SchedulingService, timetable *service.TimetableService, auditor *service.IntegrityAuditor) *TimetableHandler {
	h := &TimetableHandler{scheduler: scheduling, reader: timetable}
	if auditor != nil {
		h.audit = auditor
	}
	return h
}

// Create godoc
// @Summary Schedule a course
// @Description Checks professor conflicts, allocates the smallest free room that fits and commits the entry.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	result, err := h.scheduler.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get schedule entry
// @Tags Timetable
// @Produce json
// @Param id path string true "Entry ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/{id} [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	entry, err := h.scheduler.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete schedule entry
// @Tags Timetable
// @Param id path string true "Entry ID"
// @Success 204
// @Router /schedule/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.scheduler.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByDay godoc
// @Summary List entries for a day
// @Description Entries ordered by start time. day=all returns the whole week.
// @Tags Timetable
// @Produce json
// @Param day query string true "MONDAY..SUNDAY or all"
// @Success 200 {object} response.Envelope
// @Router /schedule/day [get]
func (h *TimetableHandler) ListByDay(c *gin.Context) {
	day := c.Query("day")
	if day == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "day is required"))
		return
	}
	entries, hit, err := h.reader.ListByDay(c.Request.Context(), day)
	if err != nil {
		response.Error(c, err)
		return
	}
	internalmiddleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, entries, nil, internalmiddleware.ResponseMeta(c))
}

// ListAll godoc
// @Summary List the whole timetable
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/all [get]
func (h *TimetableHandler) ListAll(c *gin.Context) {
	entries, hit, err := h.reader.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	internalmiddleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, entries, nil, internalmiddleware.ResponseMeta(c))
}

// AvailableRooms godoc
// @Summary List rooms free in a time slot
// @Tags Rooms
// @Produce json
// @Param timeSlotId query string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/available [get]
func (h *TimetableHandler) AvailableRooms(c *gin.Context) {
	result, hit, err := h.reader.AvailableRooms(c.Request.Context(), c.Query("timeSlotId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	internalmiddleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, nil, internalmiddleware.ResponseMeta(c))
}

// Stats godoc
// @Summary Engine statistics
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *TimetableHandler) Stats(c *gin.Context) {
	engine, err := h.reader.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := statsResponse{Engine: engine, Metrics: h.reader.Metrics()}
	if h.audit != nil {
		payload.Audit = h.audit.Last()
	}
	response.JSON(c, http.StatusOK, payload, nil)
}
