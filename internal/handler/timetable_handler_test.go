package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	internalmiddleware "github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type schedulerMock struct {
	captured dto.ScheduleRequest
	result   *dto.ScheduleResult
	err      error
	deleted  []string
}

func (m *schedulerMock) Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResult, error) {
	m.captured = req
	return m.result, m.err
}

func (m *schedulerMock) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

func (m *schedulerMock) Get(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ScheduleEntry{ID: id}, nil
}

type timetableReaderMock struct {
	day     string
	entries []models.ScheduleEntry
	hit     bool
	err     error
}

func (m *timetableReaderMock) ListByDay(ctx context.Context, day string) ([]models.ScheduleEntry, bool, error) {
	m.day = day
	return m.entries, m.hit, m.err
}

func (m *timetableReaderMock) ListAll(ctx context.Context) ([]models.ScheduleEntry, bool, error) {
	return m.entries, m.hit, m.err
}

func (m *timetableReaderMock) AvailableRooms(ctx context.Context, timeSlotID string) (*dto.AvailableRoomsResponse, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.AvailableRoomsResponse{TimeSlot: models.TimeSlot{ID: timeSlotID}, Rooms: []models.Room{{ID: "R1"}}}, m.hit, nil
}

func (m *timetableReaderMock) Stats(ctx context.Context) (*dto.EngineStats, error) {
	return &dto.EngineStats{Entries: len(m.entries)}, m.err
}

func (m *timetableReaderMock) Metrics() models.SystemMetrics {
	return models.SystemMetrics{}
}

type auditMock struct{ result *service.AuditResult }

func (m auditMock) Last() *service.AuditResult { return m.result }

type envelopeProbe struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelopeProbe {
	t.Helper()
	var env envelopeProbe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestTimetableHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &schedulerMock{result: &dto.ScheduleResult{Success: true, State: dto.BookingCommitted, UtilizationLabel: "80.0%"}}
	handler := &TimetableHandler{scheduler: mock}
	body := []byte(`{"courseId":"C1","professorId":"P1","timeSlotId":"T1","preferredRoomType":"LAB"}`)
	req, _ := http.NewRequest(http.MethodPost, "/schedule", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "C1", mock.captured.CourseID)
	assert.Equal(t, "LAB", mock.captured.PreferredRoomType)
	env := decodeEnvelope(t, w)
	var result dto.ScheduleResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, dto.BookingCommitted, result.State)
}

func TestTimetableHandlerCreateMalformed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{scheduler: &schedulerMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/schedule", bytes.NewReader([]byte(`{"courseId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestTimetableHandlerCreateConflictCarriesDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rejection := dto.ScheduleRejection{
		State:      dto.BookingRejected,
		RejectedAt: dto.BookingValidated,
		Conflicts:  []models.ScheduleConflict{{EntryID: "E1", Dimension: models.ConflictProfessor}},
	}
	mock := &schedulerMock{err: appErrors.Clone(appErrors.ErrConflict, "professor already teaching").WithDetails(rejection)}
	handler := &TimetableHandler{scheduler: mock}
	req, _ := http.NewRequest(http.MethodPost, "/schedule", bytes.NewReader([]byte(`{"courseId":"C1","professorId":"P1","timeSlotId":"T1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Create(c)

	require.Equal(t, http.StatusConflict, w.Code)
	var raw struct {
		Error struct {
			Code    string                `json:"code"`
			Details dto.ScheduleRejection `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, "CONFLICT", raw.Error.Code)
	assert.Equal(t, dto.BookingValidated, raw.Error.Details.RejectedAt)
	require.Len(t, raw.Error.Details.Conflicts, 1)
	assert.Equal(t, models.ConflictProfessor, raw.Error.Details.Conflicts[0].Dimension)
}

func TestTimetableHandlerListByDayRequiresDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{reader: &timetableReaderMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/schedule/day", nil)

	handler.ListByDay(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerListByDayReportsCacheMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reader := &timetableReaderMock{entries: []models.ScheduleEntry{{ID: "E1"}, {ID: "E2"}}, hit: true}
	handler := &TimetableHandler{reader: reader}
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.GET("/schedule/day", handler.ListByDay)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedule/day?day=monday", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "monday", reader.day)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "processing_time_ms")
	var entries []models.ScheduleEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 2)
}

func TestTimetableHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &schedulerMock{}
	handler := &TimetableHandler{scheduler: mock}
	router := gin.New()
	router.DELETE("/schedule/:id", handler.Delete)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/schedule/E9", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"E9"}, mock.deleted)
}

func TestTimetableHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{scheduler: &schedulerMock{err: appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")}}
	router := gin.New()
	router.GET("/schedule/:id", handler.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedule/missing", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerAvailableRooms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{reader: &timetableReaderMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/rooms/available?timeSlotId=T1", nil)

	handler.AvailableRooms(c)

	require.Equal(t, http.StatusOK, w.Code)
	var payload dto.AvailableRoomsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &payload))
	assert.Equal(t, "T1", payload.TimeSlot.ID)
	assert.Len(t, payload.Rooms, 1)
}

func TestTimetableHandlerStatsIncludesAudit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{
		reader: &timetableReaderMock{entries: []models.ScheduleEntry{{ID: "E1"}}},
		audit:  auditMock{result: &service.AuditResult{Entries: 1, Healthy: true}},
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/stats", nil)

	handler.Stats(c)

	require.Equal(t, http.StatusOK, w.Code)
	var payload statsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &payload))
	assert.Equal(t, 1, payload.Engine.Entries)
	require.NotNil(t, payload.Audit)
	assert.True(t, payload.Audit.Healthy)
}
