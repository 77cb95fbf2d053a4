package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduling"
	"github.com/noah-isme/timetable-api/pkg/jobs"
)

const (
	jobPersistEntry = "entry.persist"
	jobDeleteEntry  = "entry.delete"
)

type entryStore interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

// EntrySyncConfig tunes the write-behind queue.
type EntrySyncConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// EntrySyncService mirrors index changes into the entry store in the background.
// The index stays authoritative; the store only lets the index be rebuilt on start-up.
type EntrySyncService struct {
	store   entryStore
	index   *scheduling.ScheduleIndex
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger

	// serialises store writes so a delete never lands before the matching insert.
	mu sync.Mutex
}

// NewEntrySyncService constructs an EntrySyncService. Call Start before registering it as a listener.
func NewEntrySyncService(store entryStore, index *scheduling.ScheduleIndex, metrics *MetricsService, cfg EntrySyncConfig, logger *zap.Logger) *EntrySyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	svc := &EntrySyncService{store: store, index: index, metrics: metrics, logger: logger}
	svc.queue = jobs.NewQueue("entry-sync", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnDrop: func(job jobs.Job, err error) {
			metrics.RecordPersistFailure()
			logger.Error("schedule entry not persisted", zap.String("job", job.Type), zap.String("entry_id", job.ID), zap.Error(err))
		},
	})
	return svc
}

// Start launches the worker pool.
func (s *EntrySyncService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes queued writes to the store, giving up when ctx expires.
func (s *EntrySyncService) Stop(ctx context.Context) error {
	if err := s.queue.Shutdown(ctx); err != nil {
		s.logger.Warn("entry sync stopped with unflushed writes", zap.Error(err))
		return err
	}
	return nil
}

// Load returns every persisted entry.
func (s *EntrySyncService) Load(ctx context.Context) ([]models.ScheduleEntry, error) {
	entries, err := timedQuery(s.metrics, "schedule_entries.list_all", func() ([]models.ScheduleEntry, error) { return s.store.ListAll(ctx) })
	if err != nil {
		return nil, fmt.Errorf("load schedule entries: %w", err)
	}
	return entries, nil
}

// PersistAll writes entries synchronously, used after seeding the index.
func (s *EntrySyncService) PersistAll(ctx context.Context, entries []models.ScheduleEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range entries {
		entry := entries[i]
		if err := s.create(ctx, &entry); err != nil {
			return err
		}
	}
	return nil
}

// EntryCommitted queues the entry for persistence.
func (s *EntrySyncService) EntryCommitted(entry models.ScheduleEntry) {
	s.enqueue(jobPersistEntry, entry)
}

// EntryDeleted queues the entry for removal.
func (s *EntrySyncService) EntryDeleted(entry models.ScheduleEntry) {
	s.enqueue(jobDeleteEntry, entry)
}

// enqueue never blocks the committing request; a full buffer counts as a persist failure.
func (s *EntrySyncService) enqueue(kind string, entry models.ScheduleEntry) {
	if err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: kind, Payload: entry}); err != nil {
		s.metrics.RecordPersistFailure()
		s.logger.Error("failed to queue schedule entry sync", zap.String("job", kind), zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

func (s *EntrySyncService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.ScheduleEntry)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch job.Type {
	case jobPersistEntry:
		if _, live := s.index.Get(entry.ID); !live {
			s.logger.Debug("skipping persist of deleted entry", zap.String("entry_id", entry.ID))
			return nil
		}
		return s.create(ctx, &entry)
	case jobDeleteEntry:
		start := time.Now()
		err := s.store.Delete(ctx, entry.ID)
		s.metrics.ObserveDBQuery("schedule_entries.delete", time.Since(start))
		return err
	default:
		return fmt.Errorf("unknown job type %s", job.Type)
	}
}

func (s *EntrySyncService) create(ctx context.Context, entry *models.ScheduleEntry) error {
	start := time.Now()
	err := s.store.Create(ctx, entry)
	s.metrics.ObserveDBQuery("schedule_entries.create", time.Since(start))
	return err
}
