package queue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const memoryBuffer = 1024

// MemoryQueue is an in-process Broker for single-binary deployments without Redis.
// Jobs do not survive a restart.
type MemoryQueue struct {
	jobs    chan *Job
	logger  *zap.Logger
	backoff time.Duration

	mu  sync.Mutex
	dlq []*Job
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue(logger *zap.Logger) *MemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryQueue{jobs: make(chan *Job, memoryBuffer), logger: logger, backoff: RetryBackoff}
}

// Enqueue hands job to the worker, waiting for buffer space if needed.
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	select {
	case q.jobs <- job:
		q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnqueueAfter enqueues job once delay has elapsed.
func (q *MemoryQueue) EnqueueAfter(_ context.Context, job *Job, delay time.Duration) error {
	time.AfterFunc(delay, func() {
		select {
		case q.jobs <- job:
		default:
			q.logger.Error("memory queue full, dropping delayed job", zap.String("job_id", job.ID))
		}
	})
	return nil
}

// Dequeue waits up to one second for a job.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	timer := time.NewTimer(blockTimeout)
	defer timer.Stop()
	select {
	case job := <-q.jobs:
		return job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Retry re-enqueues job after the backoff, or dead-letters it after MaxRetries.
func (q *MemoryQueue) Retry(ctx context.Context, job *Job) (bool, error) {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		q.mu.Lock()
		q.dlq = append(q.dlq, job)
		q.mu.Unlock()
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return true, nil
	}
	return false, q.EnqueueAfter(ctx, job, q.backoff)
}

// DeadLetters returns the jobs that exhausted their retries.
func (q *MemoryQueue) DeadLetters() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, len(q.dlq))
	copy(out, q.dlq)
	return out
}
