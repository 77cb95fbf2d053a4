package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrDraining is returned by Enqueue once Shutdown has begun.
	ErrDraining = errors.New("queue draining")
	// ErrQueueFull is returned by TryEnqueue when the buffer has no free slot.
	ErrQueueFull = errors.New("queue full")
)

const drainPollInterval = 10 * time.Millisecond

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// DropFunc is called once a job has exhausted its retries or could not be requeued.
type DropFunc func(Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
	OnDrop     DropFunc
}

// Queue is an in-memory job dispatcher with bounded retries and a draining shutdown.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs chan Job
	// outstanding counts accepted jobs that have neither succeeded nor been dropped,
	// including those waiting out a retry delay.
	outstanding int64

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	draining bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels workers immediately and waits for them to exit. Buffered jobs are abandoned.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int64("abandoned", atomic.LoadInt64(&q.outstanding)))
}

// Shutdown refuses new jobs and waits for outstanding ones, retries included, to finish
// before stopping the workers. If ctx expires first the remainder is abandoned and the
// context error returned.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	q.draining = true
	q.mu.Unlock()

	err := q.waitIdle(ctx)
	q.Stop()
	if err != nil {
		return fmt.Errorf("queue %s drain: %w", q.name, err)
	}
	return nil
}

func (q *Queue) waitIdle(ctx context.Context) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for atomic.LoadInt64(&q.outstanding) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Enqueue pushes a job onto the queue, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	ctx, err := q.admit(&job)
	if err != nil {
		return err
	}
	atomic.AddInt64(&q.outstanding, 1)
	if err := q.push(ctx, job); err != nil {
		atomic.AddInt64(&q.outstanding, -1)
		return err
	}
	return nil
}

// TryEnqueue pushes a job only if the buffer has room and returns ErrQueueFull otherwise.
func (q *Queue) TryEnqueue(job Job) error {
	if _, err := q.admit(&job); err != nil {
		return err
	}
	atomic.AddInt64(&q.outstanding, 1)
	select {
	case q.jobs <- job:
		return nil
	default:
		atomic.AddInt64(&q.outstanding, -1)
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

func (q *Queue) admit(job *Job) (context.Context, error) {
	q.mu.Lock()
	ctx, started, draining := q.ctx, q.started, q.draining
	q.mu.Unlock()

	if !started {
		return nil, fmt.Errorf("queue %s not started", q.name)
	}
	if draining {
		return nil, fmt.Errorf("queue %s: %w", q.name, ErrDraining)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	return ctx, nil
}

// Pending reports how many jobs are buffered and not yet picked up by a worker.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Outstanding reports accepted jobs that are buffered, running or awaiting a retry.
func (q *Queue) Outstanding() int {
	return int(atomic.LoadInt64(&q.outstanding))
}

func (q *Queue) push(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			atomic.AddInt64(&q.outstanding, -1)
		}
	}
}

func (q *Queue) drop(job Job, err error) {
	atomic.AddInt64(&q.outstanding, -1)
	if q.cfg.OnDrop != nil {
		q.cfg.OnDrop(job, err)
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.logger.Error("job exceeded retries", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Error(err))
		q.drop(job, err)
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))

	// the calling worker holds a wg slot, so Add cannot race Stop's Wait
	q.wg.Add(1)
	go func(j Job) {
		defer q.wg.Done()
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.drop(j, q.ctx.Err())
		case <-timer.C:
			if err := q.push(q.ctx, j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
				q.drop(j, err)
			}
		}
	}(job)
}
