package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// blockTimeout bounds each BLPOP so delayed jobs are promoted regularly.
const blockTimeout = time.Second

// RedisQueue enqueues and dequeues jobs via Redis lists, with a sorted set for delayed jobs.
type RedisQueue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisQueue creates a new Redis-backed job queue.
func NewRedisQueue(client *redis.Client, logger *zap.Logger) *RedisQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisQueue{client: client, logger: logger}
}

// Enqueue pushes job onto the upload sync list.
func (q *RedisQueue) Enqueue(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueueUploadSync, raw).Err(); err != nil {
		return fmt.Errorf("rpush: %w", err)
	}
	q.logger.Debug("enqueued job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// EnqueueAfter parks job in the delayed set, scored by its run time.
func (q *RedisQueue) EnqueueAfter(ctx context.Context, job *Job, delay time.Duration) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	runAt := time.Now().Add(delay).UnixMilli()
	if err := q.client.ZAdd(ctx, QueueDelayed, redis.Z{Score: float64(runAt), Member: raw}).Err(); err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	q.logger.Debug("scheduled job", zap.String("job_id", job.ID), zap.Duration("delay", delay))
	return nil
}

// promote moves due delayed jobs onto the list. ZREM guards against two workers promoting the same job.
func (q *RedisQueue) promote(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, QueueDelayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(time.Now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return err
	}
	for _, raw := range due {
		removed, err := q.client.ZRem(ctx, QueueDelayed, raw).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.RPush(ctx, QueueUploadSync, raw).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Dequeue blocks up to one second for a job. Returns (nil, nil) on timeout or an unreadable payload.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	if err := q.promote(ctx); err != nil {
		q.logger.Warn("promote delayed jobs failed", zap.Error(err))
	}
	result, err := q.client.BLPop(ctx, blockTimeout, QueueUploadSync).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *RedisQueue) Retry(ctx context.Context, job *Job) (bool, error) {
	job.Attempt++
	if job.Attempt >= MaxRetries {
		raw, err := json.Marshal(job)
		if err != nil {
			return false, err
		}
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return false, err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return true, nil
	}
	if err := q.EnqueueAfter(ctx, job, RetryBackoff); err != nil {
		return false, err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return false, nil
}
