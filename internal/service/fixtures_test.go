package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduling"
)

type timetableFixture struct {
	index      *scheduling.ScheduleIndex
	courses    *repository.MemoryCourseRepository
	professors *repository.MemoryProfessorRepository
	rooms      *repository.MemoryRoomRepository
	slots      *repository.MemoryTimeSlotRepository
	catalog    *CatalogService
	scheduler  *SchedulingService
	metrics    *MetricsService
}

func testSlot(id string, day models.Weekday, start, end string) models.TimeSlot {
	s, _ := models.ParseTimeOfDay(start)
	e, _ := models.ParseTimeOfDay(end)
	return models.TimeSlot{ID: id, Day: day, StartTime: s, EndTime: e}
}

func fixtureSeed() repository.SeedData {
	return repository.SeedData{
		Courses: []models.Course{
			{ID: "C1", Code: "CS101", Name: "Intro to Programming", Department: "CS", Credits: 3, EnrolledStudents: 40},
			{ID: "C2", Code: "CS102", Name: "Data Structures", Department: "CS", Credits: 3, EnrolledStudents: 25},
			{ID: "C3", Code: "MATH201", Name: "Linear Algebra", Department: "Math", Credits: 4, EnrolledStudents: 60},
		},
		Professors: []models.Professor{
			{ID: "P1", Name: "Ada Lovelace", Department: "CS"},
			{ID: "P2", Name: "Alan Turing", Department: "CS"},
		},
		Rooms: []models.Room{
			{ID: "RA", RoomNumber: "A30", Name: "Room A", Type: models.RoomTypeLecture, Capacity: 30, Building: "Main"},
			{ID: "RB", RoomNumber: "B50", Name: "Room B", Type: models.RoomTypeLecture, Capacity: 50, Building: "Main"},
			{ID: "RL", RoomNumber: "L40", Name: "Lab", Type: models.RoomTypeLab, Capacity: 40, Building: "Main"},
		},
		TimeSlots: []models.TimeSlot{
			testSlot("T1", models.Monday, "09:00", "10:30"),
			testSlot("T2", models.Monday, "09:30", "11:00"),
			testSlot("T3", models.Monday, "10:30", "12:00"),
			testSlot("T4", models.Tuesday, "09:00", "10:30"),
		},
	}
}

func newTimetableFixture(t *testing.T) *timetableFixture {
	t.Helper()
	f := &timetableFixture{
		index:      scheduling.NewScheduleIndex(),
		courses:    repository.NewMemoryCourseRepository(),
		professors: repository.NewMemoryProfessorRepository(),
		rooms:      repository.NewMemoryRoomRepository(),
		slots:      repository.NewMemoryTimeSlotRepository(),
		metrics:    NewMetricsService(),
	}
	f.catalog = NewCatalogService(f.courses, f.professors, f.rooms, f.slots, 10, nil, zap.NewNop())
	require.NoError(t, f.catalog.Seed(context.Background(), fixtureSeed()))
	f.scheduler = NewSchedulingService(f.index, f.courses, f.professors, f.slots, f.rooms, f.metrics, nil, zap.NewNop())
	return f
}

type recordingListener struct {
	mu        sync.Mutex
	committed []string
	deleted   []string
}

func (l *recordingListener) EntryCommitted(entry models.ScheduleEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.committed = append(l.committed, entry.ID)
}

func (l *recordingListener) EntryDeleted(entry models.ScheduleEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.deleted = append(l.deleted, entry.ID)
}
