package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

const timetableCachePrefix = "timetable"

type identifierStats interface {
	IndexSizes() (courses, rooms int)
}

// TimetableService serves read models over the schedule index.
type TimetableService struct {
	index   *scheduling.ScheduleIndex
	slots   timeSlotFinder
	rooms   roomLister
	catalog identifierStats
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewTimetableService constructs a TimetableService. cache may be nil.
func NewTimetableService(index *scheduling.ScheduleIndex, slots timeSlotFinder, rooms roomLister, catalog identifierStats, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{index: index, slots: slots, rooms: rooms, catalog: catalog, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// ListByDay returns entries for a weekday ordered by start time, or every entry when
// day is "all". The boolean reports a cache hit.
func (s *TimetableService) ListByDay(ctx context.Context, day string) ([]models.ScheduleEntry, bool, error) {
	key := ""
	if strings.EqualFold(strings.TrimSpace(day), models.AllDays) {
		key = models.AllDays
	} else {
		parsed, err := models.ParseWeekday(day)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid day")
		}
		key = string(parsed)
	}

	return readThrough(ctx, s.cache, s.cacheKey("day", key), s.ttl, func() ([]models.ScheduleEntry, error) {
		if key == models.AllDays {
			return s.index.All(), nil
		}
		return s.index.EntriesByDay(models.Weekday(key)), nil
	})
}

// ListAll returns the full timetable sorted by day and start time.
func (s *TimetableService) ListAll(ctx context.Context) ([]models.ScheduleEntry, bool, error) {
	return s.ListByDay(ctx, models.AllDays)
}

// AvailableRooms lists rooms free during the slot, smallest first.
func (s *TimetableService) AvailableRooms(ctx context.Context, timeSlotID string) (*dto.AvailableRoomsResponse, bool, error) {
	if strings.TrimSpace(timeSlotID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "timeSlotId is required")
	}
	slot, err := s.slots.FindByID(ctx, timeSlotID)
	if err != nil {
		return nil, false, lookupError(err, "time slot")
	}

	return readThrough(ctx, s.cache, s.cacheKey("rooms", slot.ID), s.ttl, func() (*dto.AvailableRoomsResponse, error) {
		rooms, err := timedQuery(s.metrics, "rooms.list_all", func() ([]models.Room, error) { return s.rooms.ListAll(ctx) })
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
		}
		return &dto.AvailableRoomsResponse{
			TimeSlot: *slot,
			Rooms:    scheduling.NewRoomAllocator(s.index).Available(rooms, *slot),
		}, nil
	})
}

// Stats summarises the engine state.
func (s *TimetableService) Stats(ctx context.Context) (*dto.EngineStats, error) {
	rooms, err := timedQuery(s.metrics, "rooms.list_all", func() ([]models.Room, error) { return s.rooms.ListAll(ctx) })
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	entries := s.index.All()
	byDay := make(map[string]int)
	var total float64
	var measured int
	for _, entry := range entries {
		byDay[string(entry.TimeSlot.Day)]++
		if entry.Course != nil && entry.Room != nil && entry.Room.Capacity > 0 {
			total += scheduling.Utilization(entry.Course.EnrolledStudents, *entry.Room)
			measured++
		}
	}
	var avg float64
	if measured > 0 {
		avg = math.Round(total/float64(measured)*10) / 10
	}

	stats := &dto.EngineStats{
		Entries:        len(entries),
		EntriesByDay:   byDay,
		IndexHeight:    s.index.Height(),
		IndexVersion:   s.index.Version(),
		Rooms:          len(rooms),
		AvgUtilization: avg,
	}
	if s.catalog != nil {
		stats.CourseKeys, stats.RoomKeys = s.catalog.IndexSizes()
	}
	return stats, nil
}

// Metrics returns the instrumentation snapshot.
func (s *TimetableService) Metrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

// cacheKey scopes entries to the current index version so writes never serve stale reads.
func (s *TimetableService) cacheKey(kind, id string) string {
	return fmt.Sprintf("%s:v%d:%s:%s", timetableCachePrefix, s.index.Version(), kind, id)
}
