package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// QueueUploadSync is the Redis list key for upload sync jobs.
	QueueUploadSync = "academy:jobs:upload_sync"
	// QueueDelayed is the Redis sorted set holding jobs until their run time.
	QueueDelayed = "academy:jobs:delayed"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "academy:jobs:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 10 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypeUploadSync JobType = "upload_sync"
)

// UploadSyncPayload is the payload for upload sync jobs.
type UploadSyncPayload struct {
	TaskID uuid.UUID `json:"task_id"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewJob wraps payload in a fresh envelope.
func NewJob(t JobType, payload any) (*Job, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   body,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// UploadSync decodes the payload of an upload sync job.
func (j *Job) UploadSync() (UploadSyncPayload, error) {
	var p UploadSyncPayload
	if j.Type != JobTypeUploadSync {
		return p, fmt.Errorf("job %s is %q, not %q", j.ID, j.Type, JobTypeUploadSync)
	}
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return p, fmt.Errorf("decode upload sync payload: %w", err)
	}
	return p, nil
}

// Broker moves jobs between producers and the worker.
type Broker interface {
	// Enqueue makes job available immediately.
	Enqueue(ctx context.Context, job *Job) error
	// EnqueueAfter makes job available once delay has elapsed.
	EnqueueAfter(ctx context.Context, job *Job, delay time.Duration) error
	// Dequeue waits for the next job. It returns (nil, nil) when nothing arrived in time.
	Dequeue(ctx context.Context) (*Job, error)
	// Retry re-enqueues job with an incremented attempt, or dead-letters it after MaxRetries.
	// dead reports the latter.
	Retry(ctx context.Context, job *Job) (dead bool, err error)
}

// EnqueueUploadSync schedules a sync of an upload task after delay (0 = now).
func EnqueueUploadSync(ctx context.Context, b Broker, taskID uuid.UUID, delay time.Duration) error {
	job, err := NewJob(JobTypeUploadSync, UploadSyncPayload{TaskID: taskID})
	if err != nil {
		return err
	}
	if delay <= 0 {
		return b.Enqueue(ctx, job)
	}
	return b.EnqueueAfter(ctx, job, delay)
}
