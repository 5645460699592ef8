// Package worker drains the job queue. Its only job kind today is the upload sync that
// follows a Vimeo upload until the video is playable.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/metrics"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/pkg/queue"
)

// Syncer advances one upload task; implemented by uploads.Service.
type Syncer interface {
	Sync(ctx context.Context, id uuid.UUID) (*models.UploadTask, error)
	Fail(ctx context.Context, id uuid.UUID, msg string) (*models.UploadTask, error)
}

// MsgSyncExhausted is recorded on a task whose sync job was dead-lettered.
const MsgSyncExhausted = "processing sync failed after retries"

// UploadSyncProcessor processes upload sync jobs.
type UploadSyncProcessor struct {
	uploads Syncer
	queue   queue.Broker
	logger  *zap.Logger
	backoff time.Duration
}

// NewUploadSyncProcessor creates a processor.
func NewUploadSyncProcessor(uploads Syncer, q queue.Broker, logger *zap.Logger) *UploadSyncProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadSyncProcessor{uploads: uploads, queue: q, logger: logger, backoff: time.Second}
}

// Process executes one job.
func (p *UploadSyncProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.UploadSync()
	if err != nil {
		return err
	}
	task, err := p.uploads.Sync(ctx, payload.TaskID)
	if err != nil {
		return fmt.Errorf("sync upload task %s: %w", payload.TaskID, err)
	}
	p.logger.Debug("upload task synced",
		zap.String("task_id", task.ID.String()),
		zap.String("status", task.Status),
		zap.Int("poll_count", task.PollCount),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *UploadSyncProcessor) Run(ctx context.Context) {
	p.logger.Info("upload sync worker started")
	for {
		if ctx.Err() != nil {
			p.logger.Info("upload sync worker stopping")
			return
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if !p.handle(ctx, job) {
			p.sleep(ctx)
		}
	}
}

// handle processes job and retries it on error. It reports whether the job succeeded.
func (p *UploadSyncProcessor) handle(ctx context.Context, job *queue.Job) bool {
	err := p.Process(ctx, job)
	if err == nil {
		metrics.RecordJob(string(job.Type), "done")
		return true
	}
	p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	dead, reErr := p.queue.Retry(ctx, job)
	switch {
	case reErr != nil:
		metrics.RecordJob(string(job.Type), "failed")
		p.logger.Error("retry enqueue failed", zap.Error(reErr))
	case dead:
		metrics.RecordJob(string(job.Type), "dead_lettered")
		p.giveUp(ctx, job)
	default:
		metrics.RecordJob(string(job.Type), "retried")
	}
	return false
}

// giveUp fails the upload task of a dead-lettered job so it does not stay PROCESSING.
func (p *UploadSyncProcessor) giveUp(ctx context.Context, job *queue.Job) {
	payload, err := job.UploadSync()
	if err != nil {
		return
	}
	if _, err := p.uploads.Fail(ctx, payload.TaskID, MsgSyncExhausted); err != nil {
		p.logger.Error("fail dead-lettered upload task", zap.String("task_id", payload.TaskID.String()), zap.Error(err))
	}
}

func (p *UploadSyncProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
