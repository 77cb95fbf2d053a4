package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "noop"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&handled))
}

func TestQueueDropsAfterRetries(t *testing.T) {
	var attempts int32
	dropped := make(chan Job, 1)
	q := NewQueue("failing", func(_ context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("boom")
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnDrop:     func(job Job, _ error) { dropped <- job },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "fail"}))
	select {
	case job := <-dropped:
		assert.Equal(t, "j1", job.ID)
		assert.Equal(t, 3, job.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dropped")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
}

func TestQueueShutdownDrainsBufferedAndRetriedJobs(t *testing.T) {
	var handled, failures int32
	release := make(chan struct{})
	q := NewQueue("drain", func(_ context.Context, job Job) error {
		<-release
		if job.ID == "flaky" && atomic.AddInt32(&failures, 1) == 1 {
			return errors.New("transient")
		}
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))
	assert.Equal(t, 3, q.Outstanding())

	done := make(chan error, 1)
	go func() { done <- q.Shutdown(context.Background()) }()
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.draining
	}, time.Second, time.Millisecond)
	assert.ErrorIs(t, q.Enqueue(Job{ID: "late"}), ErrDraining)
	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&handled))
	assert.Zero(t, q.Outstanding())
}

func TestQueueShutdownTimeoutAbandonsRemainder(t *testing.T) {
	var dropped int32
	block := make(chan struct{})
	defer close(block)
	q := NewQueue("stuck", func(ctx context.Context, _ Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return errors.New("interrupted")
	}, QueueConfig{
		Workers:    1,
		MaxRetries: 1,
		RetryDelay: time.Hour,
		OnDrop:     func(Job, error) { atomic.AddInt32(&dropped, 1) },
	})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "slow"}))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := q.Shutdown(ctx)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&dropped))
	assert.Zero(t, q.Outstanding())
}

func TestQueueShutdownBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.NoError(t, q.Shutdown(context.Background()))
}

func TestQueueTryEnqueueRejectsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	q := NewQueue("bounded", func(ctx context.Context, _ Job) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.TryEnqueue(Job{ID: "running"}))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker did not pick up job")
	}
	require.NoError(t, q.TryEnqueue(Job{ID: "buffered"}))

	err := q.TryEnqueue(Job{ID: "overflow"})
	require.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, 2, q.Outstanding())
	assert.Equal(t, 1, q.Pending())

	close(release)
	require.Eventually(t, func() bool { return q.Outstanding() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueTryEnqueueRejectsBeforeStartAndWhileDraining(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.TryEnqueue(Job{ID: "early"}))

	q.Start(context.Background())
	require.NoError(t, q.Shutdown(context.Background()))
	assert.ErrorIs(t, q.TryEnqueue(Job{ID: "late"}), ErrDraining)
}
