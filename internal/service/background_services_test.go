package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/realtime"
	"github.com/noah-isme/timetable-api/internal/repository"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type flakyEntryStore struct {
	*repository.MemoryScheduleEntryRepository
	mu       sync.Mutex
	failures int
}

func (s *flakyEntryStore) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	s.mu.Lock()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return errors.New("connection reset")
	}
	s.mu.Unlock()
	return s.MemoryScheduleEntryRepository.Create(ctx, entry)
}

func storedIDs(t *testing.T, store interface {
	ListAll(context.Context) ([]models.ScheduleEntry, error)
}) []string {
	entries, err := store.ListAll(context.Background())
	require.NoError(t, err)
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	return ids
}

func TestEntrySyncServicePersistsAndDeletes(t *testing.T) {
	f := newTimetableFixture(t)
	store := &flakyEntryStore{MemoryScheduleEntryRepository: repository.NewMemoryScheduleEntryRepository(), failures: 1}
	syncer := NewEntrySyncService(store, f.index, f.metrics, EntrySyncConfig{Workers: 2, MaxRetries: 3, RetryDelay: time.Millisecond}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncer.Start(ctx)
	defer syncer.Stop(context.Background()) //nolint:errcheck
	f.scheduler.AddListener(syncer)

	result, err := f.scheduler.Schedule(context.Background(), dto.ScheduleRequest{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		ids := storedIDs(t, store)
		return len(ids) == 1 && ids[0] == result.Entry.ID
	}, 2*time.Second, 5*time.Millisecond)

	loaded, err := syncer.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Nil(t, loaded[0].Course)

	require.NoError(t, f.scheduler.Delete(context.Background(), result.Entry.ID))
	require.Eventually(t, func() bool { return len(storedIDs(t, store)) == 0 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, f.metrics.Snapshot().PersistFailures)
}

func TestEntrySyncServiceStopFlushesQueuedWrites(t *testing.T) {
	f := newTimetableFixture(t)
	store := repository.NewMemoryScheduleEntryRepository()
	syncer := NewEntrySyncService(store, f.index, f.metrics, EntrySyncConfig{Workers: 1}, zap.NewNop())
	syncer.Start(context.Background())
	f.scheduler.AddListener(syncer)

	for _, req := range []dto.ScheduleRequest{
		{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"},
		{CourseID: "C2", ProfessorID: "P2", TimeSlotID: "T1"},
	} {
		_, err := f.scheduler.Schedule(context.Background(), req)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, syncer.Stop(ctx))
	assert.Len(t, storedIDs(t, store), 2)
}

func TestEntrySyncServiceSkipsDeletedEntries(t *testing.T) {
	index := scheduling.NewScheduleIndex()
	store := repository.NewMemoryScheduleEntryRepository()
	svc := NewEntrySyncService(store, index, nil, EntrySyncConfig{}, zap.NewNop())

	entry := models.ScheduleEntry{ID: "gone", CourseID: "C1", ProfessorID: "P1", RoomID: "R1", TimeSlotID: "T1"}
	require.NoError(t, svc.handle(context.Background(), jobs.Job{ID: entry.ID, Type: jobPersistEntry, Payload: entry}))
	assert.Empty(t, storedIDs(t, store))
}

func TestEntrySyncServiceRecordsDroppedJobs(t *testing.T) {
	f := newTimetableFixture(t)
	store := &flakyEntryStore{MemoryScheduleEntryRepository: repository.NewMemoryScheduleEntryRepository(), failures: 100}
	svc := NewEntrySyncService(store, f.index, f.metrics, EntrySyncConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond}, zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop(context.Background()) //nolint:errcheck
	f.scheduler.AddListener(svc)

	_, err := f.scheduler.Schedule(context.Background(), dto.ScheduleRequest{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return f.metrics.Snapshot().PersistFailures == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, f.index.Len())
}

type stalledEntryStore struct {
	*repository.MemoryScheduleEntryRepository
	entered chan struct{}
	release chan struct{}
}

func (s *stalledEntryStore) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	s.entered <- struct{}{}
	<-s.release
	return s.MemoryScheduleEntryRepository.Create(ctx, entry)
}

func TestEntrySyncServiceFullBufferDoesNotBlockCommits(t *testing.T) {
	index := scheduling.NewScheduleIndex()
	metrics := NewMetricsService()
	store := &stalledEntryStore{
		MemoryScheduleEntryRepository: repository.NewMemoryScheduleEntryRepository(),
		entered:                       make(chan struct{}, 4),
		release:                       make(chan struct{}),
	}
	svc := NewEntrySyncService(store, index, metrics, EntrySyncConfig{Workers: 1, BufferSize: 1}, zap.NewNop())
	svc.Start(context.Background())

	entries := make([]models.ScheduleEntry, 0, 3)
	for _, id := range []string{"A", "B", "C"} {
		slot := models.TimeSlot{ID: "T1", Day: models.Monday, StartTime: 540, EndTime: 600}
		entries = append(entries, index.Insert(models.ScheduleEntry{
			ID: id, CourseID: "C1", ProfessorID: "P" + id, RoomID: "R" + id, TimeSlotID: "T1", TimeSlot: &slot,
		}))
	}

	svc.EntryCommitted(entries[0])
	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("worker did not start persisting")
	}

	returned := make(chan struct{})
	go func() {
		svc.EntryCommitted(entries[1])
		svc.EntryCommitted(entries[2])
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("listener blocked on a full buffer")
	}
	assert.Equal(t, uint64(1), metrics.Snapshot().PersistFailures)

	close(store.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
	assert.ElementsMatch(t, []string{"A", "B"}, storedIDs(t, store))
}

func TestEntrySyncServiceTimesStoreQueries(t *testing.T) {
	metrics := NewMetricsService()
	store := repository.NewMemoryScheduleEntryRepository()
	svc := NewEntrySyncService(store, scheduling.NewScheduleIndex(), metrics, EntrySyncConfig{}, nil)

	require.NoError(t, svc.PersistAll(context.Background(), repository.DefaultSeed().Entries))
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.handle(context.Background(), jobs.Job{ID: "TE1", Type: jobDeleteEntry, Payload: models.ScheduleEntry{ID: "TE1"}}))

	assert.Equal(t, uint64(9), metrics.Snapshot().DBQueryCount)
}

func TestCatalogReadsAreTimed(t *testing.T) {
	f := newTimetableFixture(t)
	before := f.metrics.Snapshot().DBQueryCount
	f.catalog.SetMetrics(f.metrics)

	_, err := f.catalog.AllRooms(context.Background())
	require.NoError(t, err)
	_, err = f.scheduler.Schedule(context.Background(), dto.ScheduleRequest{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"})
	require.NoError(t, err)

	assert.Equal(t, before+2, f.metrics.Snapshot().DBQueryCount)
}

func TestEntrySyncServicePersistAll(t *testing.T) {
	store := repository.NewMemoryScheduleEntryRepository()
	svc := NewEntrySyncService(store, scheduling.NewScheduleIndex(), nil, EntrySyncConfig{}, nil)

	err := svc.PersistAll(context.Background(), repository.DefaultSeed().Entries)
	require.NoError(t, err)
	assert.Len(t, storedIDs(t, store), 7)
}

type brokenIndex struct{ err error }

func (b brokenIndex) Verify() error { return b.err }
func (b brokenIndex) Len() int      { return 3 }

func TestIntegrityAuditorRun(t *testing.T) {
	f := newTimetableFixture(t)
	_, err := f.scheduler.Schedule(context.Background(), dto.ScheduleRequest{CourseID: "C1", ProfessorID: "P1", TimeSlotID: "T1"})
	require.NoError(t, err)

	auditor := NewIntegrityAuditor(f.index, f.metrics, zap.NewNop())
	assert.Nil(t, auditor.Last())
	result := auditor.Run()
	assert.True(t, result.Healthy)
	assert.Equal(t, 1, result.Entries)
	require.NotNil(t, auditor.Last())

	broken := NewIntegrityAuditor(brokenIndex{err: errors.New("room R1 double booked")}, f.metrics, zap.NewNop())
	result = broken.Run()
	assert.False(t, result.Healthy)
	assert.Equal(t, "room R1 double booked", result.Error)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().IntegrityViolations)
}

func TestIntegrityAuditorSchedule(t *testing.T) {
	auditor := NewIntegrityAuditor(scheduling.NewScheduleIndex(), nil, zap.NewNop())
	assert.Error(t, auditor.Start("not a cron spec"))

	require.NoError(t, auditor.Start("* * * * * *"))
	defer auditor.Stop()
	require.Eventually(t, func() bool { return auditor.Last() != nil }, 3*time.Second, 20*time.Millisecond)
}

type capturingPublisher struct {
	messages []realtime.Message
}

func (c *capturingPublisher) Publish(msg realtime.Message) bool {
	c.messages = append(c.messages, msg)
	return true
}

func TestRealtimeNotifierPublishesToDayTopic(t *testing.T) {
	f := newTimetableFixture(t)
	pub := &capturingPublisher{}
	f.scheduler.AddListener(NewRealtimeNotifier(pub, zap.NewNop()))

	result, err := f.scheduler.Schedule(context.Background(), dto.ScheduleRequest{CourseID: "C2", ProfessorID: "P2", TimeSlotID: "T4"})
	require.NoError(t, err)
	require.NoError(t, f.scheduler.Delete(context.Background(), result.Entry.ID))

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "TUESDAY", pub.messages[0].Topic)

	var event dto.TimetableEvent
	require.NoError(t, json.Unmarshal(pub.messages[0].Payload, &event))
	assert.Equal(t, eventEntryCreated, event.Type)
	assert.Equal(t, result.Entry.ID, event.Entry.ID)

	require.NoError(t, json.Unmarshal(pub.messages[1].Payload, &event))
	assert.Equal(t, eventEntryDeleted, event.Type)
}
