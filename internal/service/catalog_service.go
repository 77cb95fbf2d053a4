package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const maxAutocompleteLimit = 50

type courseRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, int, error)
	ListAll(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	UpdateEnrollment(ctx context.Context, id string, enrolled int) error
}

type professorRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Professor, int, error)
	ListAll(ctx context.Context) ([]models.Professor, error)
	FindByID(ctx context.Context, id string) (*models.Professor, error)
	Create(ctx context.Context, professor *models.Professor) error
}

type roomRepository interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Room, int, error)
	ListAll(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ExistsByRoomNumber(ctx context.Context, number string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
}

type timeSlotRepository interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	Create(ctx context.Context, slot *models.TimeSlot) error
}

// CatalogService manages master data and the identifier indexes built over it.
type CatalogService struct {
	courses      courseRepository
	professors   professorRepository
	rooms        roomRepository
	slots        timeSlotRepository
	courseIndex  *scheduling.IdentifierIndex[string]
	roomIndex    *scheduling.IdentifierIndex[string]
	cache        *CacheService
	metrics      *MetricsService
	defaultLimit int
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(courses courseRepository, professors professorRepository, rooms roomRepository, slots timeSlotRepository, autocompleteLimit int, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if autocompleteLimit <= 0 {
		autocompleteLimit = 10
	}
	return &CatalogService{
		courses:      courses,
		professors:   professors,
		rooms:        rooms,
		slots:        slots,
		courseIndex:  scheduling.NewIdentifierIndex[string](),
		roomIndex:    scheduling.NewIdentifierIndex[string](),
		defaultLimit: autocompleteLimit,
		validator:    validate,
		logger:       logger,
	}
}

// SetMetrics enables query timing for catalog reads.
func (s *CatalogService) SetMetrics(metrics *MetricsService) {
	s.metrics = metrics
}

// SetCache lets room changes invalidate cached availability listings.
func (s *CatalogService) SetCache(cache *CacheService) {
	s.cache = cache
}

// RebuildIndexes reloads the course and room tries from the repositories.
func (s *CatalogService) RebuildIndexes(ctx context.Context) error {
	courses, err := timedQuery(s.metrics, "courses.list_all", func() ([]models.Course, error) { return s.courses.ListAll(ctx) })
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	rooms, err := timedQuery(s.metrics, "rooms.list_all", func() ([]models.Room, error) { return s.rooms.ListAll(ctx) })
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	s.courseIndex.Reset()
	for _, course := range courses {
		s.courseIndex.Insert(course.Code, course.ID)
	}
	s.roomIndex.Reset()
	for _, room := range rooms {
		s.roomIndex.Insert(room.RoomNumber, room.ID)
	}
	s.logger.Info("identifier indexes rebuilt", zap.Int("courses", len(courses)), zap.Int("rooms", len(rooms)))
	return nil
}

// Seed inserts catalog rows that are not present yet and rebuilds the indexes.
func (s *CatalogService) Seed(ctx context.Context, seed repository.SeedData) error {
	for i := range seed.Courses {
		course := seed.Courses[i]
		if _, err := s.courses.FindByID(ctx, course.ID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed courses")
		}
		if err := s.courses.Create(ctx, &course); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed courses")
		}
	}
	for i := range seed.Professors {
		professor := seed.Professors[i]
		if _, err := s.professors.FindByID(ctx, professor.ID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed professors")
		}
		if err := s.professors.Create(ctx, &professor); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed professors")
		}
	}
	for i := range seed.Rooms {
		room := seed.Rooms[i]
		if _, err := s.rooms.FindByID(ctx, room.ID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed rooms")
		}
		if err := s.rooms.Create(ctx, &room); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed rooms")
		}
	}
	for i := range seed.TimeSlots {
		slot := seed.TimeSlots[i]
		if _, err := s.slots.FindByID(ctx, slot.ID); err == nil {
			continue
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed time slots")
		}
		if err := s.slots.Create(ctx, &slot); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed time slots")
		}
	}
	return s.RebuildIndexes(ctx)
}

// ListCourses returns courses with pagination metadata.
func (s *CatalogService) ListCourses(ctx context.Context, filter models.CatalogFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter, total), nil
}

// GetCourse fetches a course by id.
func (s *CatalogService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// CreateCourse registers a course and indexes its code.
func (s *CatalogService) CreateCourse(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	exists, err := s.courses.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}

	course := &models.Course{
		Code:             req.Code,
		Name:             req.Name,
		Department:       strings.TrimSpace(req.Department),
		Credits:          req.Credits,
		EnrolledStudents: req.EnrolledStudents,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		// a concurrent request may have taken the code after the check above
		if appErrors.Is(err, appErrors.ErrConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.courseIndex.Insert(course.Code, course.ID)
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// UpdateEnrollment changes the enrolled student count. Existing entries keep their booked room.
func (s *CatalogService) UpdateEnrollment(ctx context.Context, id string, req dto.UpdateEnrollmentRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if err := s.courses.UpdateEnrollment(ctx, id, *req.EnrolledStudents); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}
	return s.GetCourse(ctx, id)
}

// ListProfessors returns professors with pagination metadata.
func (s *CatalogService) ListProfessors(ctx context.Context, filter models.CatalogFilter) ([]models.Professor, *models.Pagination, error) {
	professors, total, err := s.professors.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professors")
	}
	return professors, paginationFor(filter, total), nil
}

// GetProfessor fetches a professor by id.
func (s *CatalogService) GetProfessor(ctx context.Context, id string) (*models.Professor, error) {
	professor, err := s.professors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professor")
	}
	return professor, nil
}

// CreateProfessor registers a professor.
func (s *CatalogService) CreateProfessor(ctx context.Context, req dto.CreateProfessorRequest) (*models.Professor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professor payload")
	}
	professor := &models.Professor{
		Name:       strings.TrimSpace(req.Name),
		Department: strings.TrimSpace(req.Department),
		Email:      req.Email,
	}
	if err := s.professors.Create(ctx, professor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professor")
	}
	return professor, nil
}

// ListRooms returns rooms with pagination metadata.
func (s *CatalogService) ListRooms(ctx context.Context, filter models.CatalogFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, paginationFor(filter, total), nil
}

// AllRooms returns the full room catalog ordered by capacity.
func (s *CatalogService) AllRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := timedQuery(s.metrics, "rooms.list_all", func() ([]models.Room, error) { return s.rooms.ListAll(ctx) })
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// GetRoom fetches a room by id.
func (s *CatalogService) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return room, nil
}

// CreateRoom registers a room and indexes its number.
func (s *CatalogService) CreateRoom(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error) {
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	roomType, err := models.ParseRoomType(req.Type)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room type")
	}
	exists, err := s.rooms.ExistsByRoomNumber(ctx, req.RoomNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room number already exists")
	}

	room := &models.Room{
		RoomNumber: req.RoomNumber,
		Name:       strings.TrimSpace(req.Name),
		Type:       roomType,
		Capacity:   req.Capacity,
		Building:   strings.TrimSpace(req.Building),
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		if appErrors.Is(err, appErrors.ErrConflict) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.roomIndex.Insert(room.RoomNumber, room.ID)
	_ = s.cache.Invalidate(ctx, timetableCachePrefix+":*:rooms:*")
	s.logger.Info("room created", zap.String("room_id", room.ID), zap.String("room_number", room.RoomNumber))
	return room, nil
}

// ListTimeSlots returns the weekly slot catalog.
func (s *CatalogService) ListTimeSlots(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := timedQuery(s.metrics, "time_slots.list_all", func() ([]models.TimeSlot, error) { return s.slots.ListAll(ctx) })
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time slots")
	}
	return slots, nil
}

// GetTimeSlot fetches a slot by id.
func (s *CatalogService) GetTimeSlot(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "time slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slot")
	}
	return slot, nil
}

// CreateTimeSlot registers a weekly slot.
func (s *CatalogService) CreateTimeSlot(ctx context.Context, req dto.CreateTimeSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot payload")
	}
	day, err := models.ParseWeekday(req.Day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day")
	}
	start, err := models.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := models.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	slot := &models.TimeSlot{Day: day, StartTime: start, EndTime: end}
	if err := slot.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time slot")
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time slot")
	}
	return slot, nil
}

// AutocompleteCourse suggests course codes starting with prefix.
func (s *CatalogService) AutocompleteCourse(prefix string, limit int) []string {
	return s.courseIndex.SearchPrefix(prefix, s.clampLimit(limit))
}

// AutocompleteRoom suggests room numbers starting with prefix.
func (s *CatalogService) AutocompleteRoom(prefix string, limit int) []string {
	return s.roomIndex.SearchPrefix(prefix, s.clampLimit(limit))
}

// IndexSizes reports how many keys each identifier index holds.
func (s *CatalogService) IndexSizes() (courses, rooms int) {
	return s.courseIndex.Len(), s.roomIndex.Len()
}

func (s *CatalogService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > maxAutocompleteLimit {
		return maxAutocompleteLimit
	}
	return limit
}

func paginationFor(filter models.CatalogFilter, total int) *models.Pagination {
	normalized := filter.Normalize()
	return &models.Pagination{Page: normalized.Page, PageSize: normalized.PageSize, TotalCount: total}
}
