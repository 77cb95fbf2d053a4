package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type catalog interface {
	ListCourses(ctx context.Context, filter models.CatalogFilter) ([]models.Course, *models.Pagination, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error)
	UpdateEnrollment(ctx context.Context, id string, req dto.UpdateEnrollmentRequest) (*models.Course, error)
	ListProfessors(ctx context.Context, filter models.CatalogFilter) ([]models.Professor, *models.Pagination, error)
	GetProfessor(ctx context.Context, id string) (*models.Professor, error)
	CreateProfessor(ctx context.Context, req dto.CreateProfessorRequest) (*models.Professor, error)
	ListRooms(ctx context.Context, filter models.CatalogFilter) ([]models.Room, *models.Pagination, error)
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	CreateRoom(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error)
	ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error)
	GetTimeSlot(ctx context.Context, id string) (*models.TimeSlot, error)
	CreateTimeSlot(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error)
	AutocompleteCourse(prefix string, limit int) []string
	AutocompleteRoom(prefix string, limit int) []string
}

// CatalogHandler exposes master data and autocomplete endpoints.
type CatalogHandler struct {
	service catalog
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param search query string false "Code or name fragment"
// @Param department query string false "Department"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, pagination, err := h.service.ListCourses(c.Request.Context(), catalogFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// GetCourse godoc
// @Summary Get course
// @Tags Catalog
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.service.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// CreateCourse godoc
// @Summary Create course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.CreateCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// UpdateEnrollment godoc
// @Summary Update enrolled student count
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body dto.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollment [patch]
func (h *CatalogHandler) UpdateEnrollment(c *gin.Context) {
	var req dto.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}
	course, err := h.service.UpdateEnrollment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// ListProfessors godoc
// @Summary List professors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /professors [get]
func (h *CatalogHandler) ListProfessors(c *gin.Context) {
	professors, pagination, err := h.service.ListProfessors(c.Request.Context(), catalogFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professors, pagination)
}

// GetProfessor godoc
// @Summary Get professor
// @Tags Catalog
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id} [get]
func (h *CatalogHandler) GetProfessor(c *gin.Context) {
	professor, err := h.service.GetProfessor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, professor, nil)
}

// CreateProfessor godoc
// @Summary Create professor
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateProfessorRequest true "Professor payload"
// @Success 201 {object} response.Envelope
// @Router /professors [post]
func (h *CatalogHandler) CreateProfessor(c *gin.Context) {
	var req dto.CreateProfessorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid professor payload"))
		return
	}
	professor, err := h.service.CreateProfessor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, professor)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Param building query string false "Building"
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	filter := catalogFilter(c)
	if building := c.Query("building"); building != "" {
		filter.Department = building
	}
	rooms, pagination, err := h.service.ListRooms(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, pagination)
}

// GetRoom godoc
// @Summary Get room
// @Tags Rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /rooms/{id} [get]
func (h *CatalogHandler) GetRoom(c *gin.Context) {
	room, err := h.service.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// CreateRoom godoc
// @Summary Create room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body dto.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room payload"))
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// ListTimeSlots godoc
// @Summary List time slots
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timeslots [get]
func (h *CatalogHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.service.ListTimeSlots(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// GetTimeSlot godoc
// @Summary Get time slot
// @Tags Catalog
// @Produce json
// @Param id path string true "Time slot ID"
// @Success 200 {object} response.Envelope
// @Router /timeslots/{id} [get]
func (h *CatalogHandler) GetTimeSlot(c *gin.Context) {
	slot, err := h.service.GetTimeSlot(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// CreateTimeSlot godoc
// @Summary Create time slot
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimeSlotRequest true "Time slot payload"
// @Success 201 {object} response.Envelope
// @Router /timeslots [post]
func (h *CatalogHandler) CreateTimeSlot(c *gin.Context) {
	var req dto.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid time slot payload"))
		return
	}
	slot, err := h.service.CreateTimeSlot(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// AutocompleteCourse godoc
// @Summary Suggest course codes
// @Tags Autocomplete
// @Produce json
// @Param prefix query string true "Code prefix"
// @Param limit query int false "Maximum suggestions"
// @Success 200 {object} response.Envelope
// @Router /autocomplete/course [get]
func (h *CatalogHandler) AutocompleteCourse(c *gin.Context) {
	var query dto.AutocompleteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid autocomplete query"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.AutocompleteCourse(query.Prefix, query.Limit), nil)
}

// AutocompleteRoom godoc
// @Summary Suggest room numbers
// @Tags Autocomplete
// @Produce json
// @Param prefix query string true "Room number prefix"
// @Param limit query int false "Maximum suggestions"
// @Success 200 {object} response.Envelope
// @Router /autocomplete/room [get]
func (h *CatalogHandler) AutocompleteRoom(c *gin.Context) {
	var query dto.AutocompleteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid autocomplete query"))
		return
	}
	response.JSON(c, http.StatusOK, h.service.AutocompleteRoom(query.Prefix, query.Limit), nil)
}

func catalogFilter(c *gin.Context) models.CatalogFilter {
	filter := models.CatalogFilter{
		Search:     c.Query("search"),
		Department: c.Query("department"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}
