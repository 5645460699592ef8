package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()
	taskID := uuid.New()

	require.NoError(t, EnqueueUploadSync(ctx, q, taskID, 0))
	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, JobTypeUploadSync, job.Type)

	payload, err := job.UploadSync()
	require.NoError(t, err)
	assert.Equal(t, taskID, payload.TaskID)
}

func TestMemoryQueue_EnqueueAfterDelays(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx := context.Background()

	require.NoError(t, EnqueueUploadSync(ctx, q, uuid.New(), 50*time.Millisecond))
	select {
	case <-q.jobs:
		t.Fatal("job delivered before its delay")
	default:
	}

	job, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.NotNil(t, job)
}

func TestMemoryQueue_DequeueTimesOut(t *testing.T) {
	q := NewMemoryQueue(nil)
	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestMemoryQueue_DequeueHonoursCancel(t *testing.T) {
	q := NewMemoryQueue(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueue_RetryDeadLetters(t *testing.T) {
	q := NewMemoryQueue(nil)
	q.backoff = time.Millisecond
	ctx := context.Background()

	job, err := NewJob(JobTypeUploadSync, UploadSyncPayload{TaskID: uuid.New()})
	require.NoError(t, err)

	for i := 1; i < MaxRetries; i++ {
		dead, err := q.Retry(ctx, job)
		require.NoError(t, err)
		require.False(t, dead)
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, i, got.Attempt)
	}
	isDead, err := q.Retry(ctx, job)
	require.NoError(t, err)
	assert.True(t, isDead)
	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, job.ID, dead[0].ID)
}

func TestJob_UploadSyncRejectsOtherTypes(t *testing.T) {
	job, err := NewJob(JobType("other"), map[string]string{"x": "y"})
	require.NoError(t, err)
	_, err = job.UploadSync()
	assert.Error(t, err)
}
