package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const noRoomSuggestion = "try a different time slot or reduce the enrolled student count"

type courseFinder interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type professorFinder interface {
	FindByID(ctx context.Context, id string) (*models.Professor, error)
}

type timeSlotFinder interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
}

type roomLister interface {
	ListAll(ctx context.Context) ([]models.Room, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// EntryListener is notified after the index changes. Implementations must not block;
// EntrySyncService drops and counts a write when its buffer is full.
type EntryListener interface {
	EntryCommitted(entry models.ScheduleEntry)
	EntryDeleted(entry models.ScheduleEntry)
}

// SchedulingService turns schedule requests into committed index entries.
type SchedulingService struct {
	index      *scheduling.ScheduleIndex
	courses    courseFinder
	professors professorFinder
	slots      timeSlotFinder
	rooms      roomLister
	listeners  []EntryListener
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewSchedulingService constructs a SchedulingService.
func NewSchedulingService(index *scheduling.ScheduleIndex, courses courseFinder, professors professorFinder, slots timeSlotFinder, rooms roomLister, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulingService{
		index:      index,
		courses:    courses,
		professors: professors,
		slots:      slots,
		rooms:      rooms,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// AddListener registers an observer of committed and deleted entries.
func (s *SchedulingService) AddListener(listener EntryListener) {
	if listener != nil {
		s.listeners = append(s.listeners, listener)
	}
}

// Schedule validates the request, checks for clashes, allocates a room and commits the entry.
// The conflict checks, allocation and insert run under a single index write lock.
func (s *SchedulingService) Schedule(ctx context.Context, req dto.ScheduleRequest) (*dto.ScheduleResult, error) {
	started := s.now()

	if err := s.validator.Struct(req); err != nil {
		return nil, s.reject(started, dto.BookingReceived, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload"), nil, "")
	}
	var preferred models.RoomType
	if req.PreferredRoomType != "" {
		parsed, err := models.ParseRoomType(req.PreferredRoomType)
		if err != nil {
			return nil, s.reject(started, dto.BookingReceived, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preferred room type"), nil, "")
		}
		preferred = parsed
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, s.reject(started, dto.BookingReceived, lookupError(err, "course"), nil, "")
	}
	professor, err := s.professors.FindByID(ctx, req.ProfessorID)
	if err != nil {
		return nil, s.reject(started, dto.BookingReceived, lookupError(err, "professor"), nil, "")
	}
	slot, err := s.slots.FindByID(ctx, req.TimeSlotID)
	if err != nil {
		return nil, s.reject(started, dto.BookingReceived, lookupError(err, "time slot"), nil, "")
	}
	if err := slot.Validate(); err != nil {
		return nil, s.reject(started, dto.BookingReceived, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "time slot is malformed"), nil, "")
	}
	rooms, err := timedQuery(s.metrics, "rooms.list_all", func() ([]models.Room, error) { return s.rooms.ListAll(ctx) })
	if err != nil {
		return nil, s.reject(started, dto.BookingReceived, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms"), nil, "")
	}

	var (
		committed models.ScheduleEntry
		room      models.Room
		stage     = dto.BookingValidated
	)
	err = s.index.Update(func(tx *scheduling.IndexTx) error {
		if conflicts := tx.FindConflicts(professor.ID, "", *slot); len(conflicts) > 0 {
			return conflictError(fmt.Sprintf("professor %s is already teaching at %s", professor.Name, slot.Label()), conflicts)
		}
		stage = dto.BookingConflictChecked

		allocated, err := scheduling.NewRoomAllocator(tx).AllocatePreferring(rooms, course.EnrolledStudents, preferred, *slot)
		if err != nil {
			return err
		}
		room = allocated
		stage = dto.BookingAllocated

		if conflicts := tx.FindConflicts(professor.ID, room.ID, *slot); len(conflicts) > 0 {
			return conflictError(fmt.Sprintf("room %s is no longer free at %s", room.RoomNumber, slot.Label()), conflicts)
		}

		courseRef, professorRef, roomRef, slotRef := *course, *professor, room, *slot
		committed = tx.Insert(models.ScheduleEntry{
			ID:          uuid.NewString(),
			CourseID:    course.ID,
			ProfessorID: professor.ID,
			RoomID:      room.ID,
			TimeSlotID:  slot.ID,
			CreatedAt:   s.now().UTC(),
			Course:      &courseRef,
			Professor:   &professorRef,
			Room:        &roomRef,
			TimeSlot:    &slotRef,
		})
		return nil
	})
	if err != nil {
		var conflictErr *models.ScheduleConflictError
		switch {
		case errors.As(err, &conflictErr):
			appErr := appErrors.Wrap(conflictErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictErr.Message)
			return nil, s.reject(started, stage, appErr, conflictErr.Errors, "")
		case errors.Is(err, scheduling.ErrNoRoom):
			message := fmt.Sprintf("no room with capacity %d is free at %s", course.EnrolledStudents, slot.Label())
			appErr := appErrors.Wrap(err, appErrors.ErrNoRoomAvailable.Code, appErrors.ErrNoRoomAvailable.Status, message)
			return nil, s.reject(started, stage, appErr, nil, noRoomSuggestion)
		default:
			return nil, s.reject(started, stage, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule course"), nil, "")
		}
	}

	s.metrics.RecordBooking(dto.BookingCommitted, dto.BookingCommitted, s.now().Sub(started))
	s.metrics.SetScheduleEntries(s.index.Len())
	for _, listener := range s.listeners {
		listener.EntryCommitted(committed)
	}

	utilization := scheduling.Utilization(course.EnrolledStudents, room)
	s.logger.Info("schedule entry committed",
		zap.String("entry_id", committed.ID),
		zap.String("course", course.Code),
		zap.String("professor_id", professor.ID),
		zap.String("room", room.RoomNumber),
		zap.String("slot", slot.Label()),
		zap.Float64("utilization", utilization),
	)

	return &dto.ScheduleResult{
		Success:          true,
		State:            dto.BookingCommitted,
		Message:          fmt.Sprintf("%s scheduled in room %s at %s", course.Code, room.RoomNumber, slot.Label()),
		Entry:            committed,
		Room:             room,
		Utilization:      utilization,
		UtilizationLabel: fmt.Sprintf("%.1f%%", utilization),
		OverCapacity:     course.EnrolledStudents > room.Capacity,
	}, nil
}

// Delete removes a committed entry.
func (s *SchedulingService) Delete(ctx context.Context, id string) error {
	var removed models.ScheduleEntry
	err := s.index.Update(func(tx *scheduling.IndexTx) error {
		entry, ok := tx.Delete(id)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		removed = entry
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.SetScheduleEntries(s.index.Len())
	for _, listener := range s.listeners {
		listener.EntryDeleted(removed)
	}
	s.logger.Info("schedule entry deleted", zap.String("entry_id", id))
	return nil
}

// Get returns a committed entry.
func (s *SchedulingService) Get(_ context.Context, id string) (*models.ScheduleEntry, error) {
	entry, ok := s.index.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
	}
	return &entry, nil
}

// Restore hydrates persisted entries and loads them into the index. A conflicting batch
// is rejected as a whole.
func (s *SchedulingService) Restore(ctx context.Context, entries []models.ScheduleEntry) error {
	hydrated := make([]models.ScheduleEntry, 0, len(entries))
	for _, entry := range entries {
		full, err := s.hydrate(ctx, entry)
		if err != nil {
			return err
		}
		hydrated = append(hydrated, full)
	}
	if err := s.index.Restore(hydrated); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "persisted timetable is inconsistent")
	}
	s.metrics.SetScheduleEntries(s.index.Len())
	s.logger.Info("schedule entries restored", zap.Int("count", len(hydrated)))
	return nil
}

func (s *SchedulingService) hydrate(ctx context.Context, entry models.ScheduleEntry) (models.ScheduleEntry, error) {
	course, err := s.courses.FindByID(ctx, entry.CourseID)
	if err != nil {
		return entry, lookupError(err, "course")
	}
	professor, err := s.professors.FindByID(ctx, entry.ProfessorID)
	if err != nil {
		return entry, lookupError(err, "professor")
	}
	room, err := s.rooms.FindByID(ctx, entry.RoomID)
	if err != nil {
		return entry, lookupError(err, "room")
	}
	slot, err := s.slots.FindByID(ctx, entry.TimeSlotID)
	if err != nil {
		return entry, lookupError(err, "time slot")
	}
	entry.Course, entry.Professor, entry.Room, entry.TimeSlot = course, professor, room, slot
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	return entry, nil
}

func (s *SchedulingService) reject(started time.Time, stage dto.BookingState, appErr *appErrors.Error, conflicts []models.ScheduleConflict, suggestion string) *appErrors.Error {
	s.metrics.RecordBooking(dto.BookingRejected, stage, s.now().Sub(started))
	s.logger.Info("schedule request rejected", zap.String("stage", string(stage)), zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
	return appErr.WithDetails(dto.ScheduleRejection{
		Success:    false,
		State:      dto.BookingRejected,
		RejectedAt: stage,
		Conflicts:  conflicts,
		Suggestion: suggestion,
	})
}

func conflictError(message string, conflicts []models.ScheduleConflict) *models.ScheduleConflictError {
	return &models.ScheduleConflictError{Type: "SCHEDULE_CONFLICT", Message: message, Errors: conflicts}
}

func lookupError(err error, resource string) *appErrors.Error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+resource)
}
