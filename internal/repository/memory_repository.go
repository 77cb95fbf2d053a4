package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// memoryTable is an insertion-ordered map guarded by a RWMutex.
type memoryTable[T any] struct {
	mu    sync.RWMutex
	rows  map[string]T
	order []string
}

func newMemoryTable[T any]() *memoryTable[T] {
	return &memoryTable[T]{rows: make(map[string]T)}
}

func (t *memoryTable[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

func (t *memoryTable[T]) put(id string, row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

// insertUnique stores row unless an existing row clashes with it. The check and the
// write share one lock.
func (t *memoryTable[T]) insertUnique(id string, row T, clash func(T) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.rows {
		if clash(existing) {
			return false
		}
	}
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
	return true
}

func (t *memoryTable[T]) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.rows[id]; !exists {
		return
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *memoryTable[T]) filter(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]T, 0, len(t.order))
	for _, id := range t.order {
		row := t.rows[id]
		if keep == nil || keep(row) {
			result = append(result, row)
		}
	}
	return result
}

func (t *memoryTable[T]) exists(match func(T) bool) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, row := range t.rows {
		if match(row) {
			return true
		}
	}
	return false
}

func page[T any](rows []T, filter models.CatalogFilter) []T {
	filter = filter.Normalize()
	start := filter.Offset()
	if start >= len(rows) {
		return []T{}
	}
	end := start + filter.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func containsFold(value, search string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(search))
}

// MemoryCourseRepository keeps courses in process memory.
type MemoryCourseRepository struct {
	table *memoryTable[models.Course]
}

// NewMemoryCourseRepository constructs an empty in-memory course store.
func NewMemoryCourseRepository() *MemoryCourseRepository {
	return &MemoryCourseRepository{table: newMemoryTable[models.Course]()}
}

// List returns courses matching filters along with total count.
func (r *MemoryCourseRepository) List(_ context.Context, filter models.CatalogFilter) ([]models.Course, int, error) {
	rows := r.table.filter(func(c models.Course) bool {
		if filter.Department != "" && !strings.EqualFold(c.Department, filter.Department) {
			return false
		}
		return filter.Search == "" || containsFold(c.Code, filter.Search) || containsFold(c.Name, filter.Search)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return page(rows, filter), len(rows), nil
}

// ListAll returns every course ordered by code.
func (r *MemoryCourseRepository) ListAll(_ context.Context) ([]models.Course, error) {
	rows := r.table.filter(nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	return rows, nil
}

// FindByID fetches a course by ID.
func (r *MemoryCourseRepository) FindByID(_ context.Context, id string) (*models.Course, error) {
	course, ok := r.table.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

// ExistsByCode checks whether a course code is already registered.
func (r *MemoryCourseRepository) ExistsByCode(_ context.Context, code string) (bool, error) {
	return r.table.exists(func(c models.Course) bool { return strings.EqualFold(c.Code, code) }), nil
}

// Create stores a new course. A clashing code yields ErrConflict.
func (r *MemoryCourseRepository) Create(_ context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	code := course.Code
	if !r.table.insertUnique(course.ID, *course, func(c models.Course) bool { return strings.EqualFold(c.Code, code) }) {
		return appErrors.Clone(appErrors.ErrConflict, "course code already exists")
	}
	return nil
}

// UpdateEnrollment replaces the stored course with a copy carrying the new count.
func (r *MemoryCourseRepository) UpdateEnrollment(_ context.Context, id string, enrolled int) error {
	course, ok := r.table.get(id)
	if !ok {
		return sql.ErrNoRows
	}
	course.EnrolledStudents = enrolled
	course.UpdatedAt = time.Now().UTC()
	r.table.put(id, course)
	return nil
}

// MemoryProfessorRepository keeps professors in process memory.
type MemoryProfessorRepository struct {
	table *memoryTable[models.Professor]
}

// NewMemoryProfessorRepository constructs an empty in-memory professor store.
func NewMemoryProfessorRepository() *MemoryProfessorRepository {
	return &MemoryProfessorRepository{table: newMemoryTable[models.Professor]()}
}

// List returns professors matching filters along with total count.
func (r *MemoryProfessorRepository) List(_ context.Context, filter models.CatalogFilter) ([]models.Professor, int, error) {
	rows := r.table.filter(func(p models.Professor) bool {
		if filter.Department != "" && !strings.EqualFold(p.Department, filter.Department) {
			return false
		}
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		return filter.Search == "" || containsFold(p.Name, filter.Search) || containsFold(email, filter.Search)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return page(rows, filter), len(rows), nil
}

// ListAll returns every professor ordered by name.
func (r *MemoryProfessorRepository) ListAll(_ context.Context) ([]models.Professor, error) {
	rows := r.table.filter(nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

// FindByID fetches a professor by ID.
func (r *MemoryProfessorRepository) FindByID(_ context.Context, id string) (*models.Professor, error) {
	professor, ok := r.table.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &professor, nil
}

// Create stores a new professor.
func (r *MemoryProfessorRepository) Create(_ context.Context, professor *models.Professor) error {
	if professor.ID == "" {
		professor.ID = uuid.NewString()
	}
	if professor.CreatedAt.IsZero() {
		professor.CreatedAt = time.Now().UTC()
	}
	r.table.put(professor.ID, *professor)
	return nil
}

// MemoryRoomRepository keeps rooms in process memory.
type MemoryRoomRepository struct {
	table *memoryTable[models.Room]
}

// NewMemoryRoomRepository constructs an empty in-memory room store.
func NewMemoryRoomRepository() *MemoryRoomRepository {
	return &MemoryRoomRepository{table: newMemoryTable[models.Room]()}
}

// List returns rooms matching filters along with total count. Department filters by building.
func (r *MemoryRoomRepository) List(_ context.Context, filter models.CatalogFilter) ([]models.Room, int, error) {
	rows := r.table.filter(func(room models.Room) bool {
		if filter.Department != "" && !strings.EqualFold(room.Building, filter.Department) {
			return false
		}
		return filter.Search == "" || containsFold(room.RoomNumber, filter.Search) || containsFold(room.Name, filter.Search)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].RoomNumber < rows[j].RoomNumber })
	return page(rows, filter), len(rows), nil
}

// ListAll returns every room ordered by capacity then id.
func (r *MemoryRoomRepository) ListAll(_ context.Context) ([]models.Room, error) {
	rows := r.table.filter(nil)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Capacity != rows[j].Capacity {
			return rows[i].Capacity < rows[j].Capacity
		}
		return rows[i].ID < rows[j].ID
	})
	return rows, nil
}

// FindByID fetches a room by ID.
func (r *MemoryRoomRepository) FindByID(_ context.Context, id string) (*models.Room, error) {
	room, ok := r.table.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &room, nil
}

// ExistsByRoomNumber checks whether a room number is already registered.
func (r *MemoryRoomRepository) ExistsByRoomNumber(_ context.Context, number string) (bool, error) {
	return r.table.exists(func(room models.Room) bool { return strings.EqualFold(room.RoomNumber, number) }), nil
}

// Create stores a new room. A clashing room number yields ErrConflict.
func (r *MemoryRoomRepository) Create(_ context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	number := room.RoomNumber
	if !r.table.insertUnique(room.ID, *room, func(existing models.Room) bool { return strings.EqualFold(existing.RoomNumber, number) }) {
		return appErrors.Clone(appErrors.ErrConflict, "room number already exists")
	}
	return nil
}

// MemoryTimeSlotRepository keeps time slots in process memory.
type MemoryTimeSlotRepository struct {
	table *memoryTable[models.TimeSlot]
}

// NewMemoryTimeSlotRepository constructs an empty in-memory slot store.
func NewMemoryTimeSlotRepository() *MemoryTimeSlotRepository {
	return &MemoryTimeSlotRepository{table: newMemoryTable[models.TimeSlot]()}
}

// ListAll returns every slot in weekly order.
func (r *MemoryTimeSlotRepository) ListAll(_ context.Context) ([]models.TimeSlot, error) {
	rows := r.table.filter(nil)
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Day != b.Day {
			return a.Day.Ordinal() < b.Day.Ordinal()
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return rows, nil
}

// FindByID fetches a slot by ID.
func (r *MemoryTimeSlotRepository) FindByID(_ context.Context, id string) (*models.TimeSlot, error) {
	slot, ok := r.table.get(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &slot, nil
}

// Create stores a new slot.
func (r *MemoryTimeSlotRepository) Create(_ context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	r.table.put(slot.ID, *slot)
	return nil
}

// MemoryScheduleEntryRepository is the no-database entry store.
type MemoryScheduleEntryRepository struct {
	table *memoryTable[models.ScheduleEntry]
}

// NewMemoryScheduleEntryRepository constructs an empty in-memory entry store.
func NewMemoryScheduleEntryRepository() *MemoryScheduleEntryRepository {
	return &MemoryScheduleEntryRepository{table: newMemoryTable[models.ScheduleEntry]()}
}

// ListAll returns stored entries in insertion order.
func (r *MemoryScheduleEntryRepository) ListAll(_ context.Context) ([]models.ScheduleEntry, error) {
	return r.table.filter(nil), nil
}

// Create stores an entry without its expanded references.
func (r *MemoryScheduleEntryRepository) Create(_ context.Context, entry *models.ScheduleEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	row := *entry
	row.Course, row.Professor, row.Room, row.TimeSlot = nil, nil, nil, nil
	r.table.put(row.ID, row)
	return nil
}

// Delete removes an entry by id.
func (r *MemoryScheduleEntryRepository) Delete(_ context.Context, id string) error {
	r.table.remove(id)
	return nil
}
