//go:build integration

package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisQueue_DelayedJobIsPromoted(t *testing.T) {
	client := startRedis(t)
	q := NewRedisQueue(client, nil)
	ctx := context.Background()
	taskID := uuid.New()

	require.NoError(t, EnqueueUploadSync(ctx, q, taskID, 200*time.Millisecond))
	n, err := client.ZCard(ctx, QueueDelayed).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var job *Job
	require.Eventually(t, func() bool {
		job, err = q.Dequeue(ctx)
		return err == nil && job != nil
	}, 5*time.Second, 50*time.Millisecond)

	payload, err := job.UploadSync()
	require.NoError(t, err)
	assert.Equal(t, taskID, payload.TaskID)
}

func TestRedisQueue_RetryEndsInDLQ(t *testing.T) {
	client := startRedis(t)
	q := NewRedisQueue(client, nil)
	ctx := context.Background()

	job, err := NewJob(JobTypeUploadSync, UploadSyncPayload{TaskID: uuid.New()})
	require.NoError(t, err)
	job.Attempt = MaxRetries - 1
	dead, err := q.Retry(ctx, job)
	require.NoError(t, err)
	assert.True(t, dead)

	n, err := client.LLen(ctx, QueueDLQ).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
