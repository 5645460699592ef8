//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/pkg/database"
)

var testStore *store.Store

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "postgres:16-alpine",
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "academy",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres container: %v\n", err)
		os.Exit(1)
	}
	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/academy?sslmode=disable", host, port.Port())

	pool, err := database.NewPostgresPool(ctx, dsn, zap.NewNop())
	if err == nil {
		err = database.Migrate(ctx, pool)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "prepare database: %v\n", err)
		_ = container.Terminate(ctx)
		os.Exit(1)
	}
	testStore = New(pool)

	code := m.Run()
	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestVideos_RoundTrip(t *testing.T) {
	ctx := context.Background()
	v := &models.Video{Title: "Postgres video", Source: models.VideoSourceVimeo, VimeoID: "123",
		Department: "math", Status: models.VideoStatusPublished, Tags: []string{"sql"}}
	require.NoError(t, testStore.Videos.Create(ctx, v))

	got, err := testStore.Videos.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Title, got.Title)
	assert.Equal(t, []string{"sql"}, got.Tags)

	list, total, err := testStore.Videos.FindAll(ctx, store.VideoFilter{Department: "MATH", Tag: "SQL",
		ListParams: query.ListParams{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)

	require.NoError(t, testStore.Videos.IncrementViews(ctx, v.ID))
	got, err = testStore.Videos.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	_, err = testStore.Videos.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegistrations_ConflictAndNoShow(t *testing.T) {
	ctx := context.Background()
	s := &models.Seminar{Title: "Live", Status: models.SeminarStatusScheduled, ScheduledAt: time.Now().Add(time.Hour),
		ZoomType: models.ZoomTypeMeeting, Currency: "usd"}
	require.NoError(t, testStore.Seminars.Create(ctx, s))

	reg := &models.SeminarRegistration{SeminarID: s.ID, UserID: "user_pg", Plan: models.PlanFree,
		PaymentStatus: models.PaymentStatusFree, AttendanceStatus: models.AttendanceRegistered, Currency: "usd"}
	require.NoError(t, testStore.Registrations.Create(ctx, reg))
	dup := &models.SeminarRegistration{SeminarID: s.ID, UserID: "user_pg", Plan: models.PlanFree,
		PaymentStatus: models.PaymentStatusFree, AttendanceStatus: models.AttendanceRegistered}
	assert.ErrorIs(t, testStore.Registrations.Create(ctx, dup), store.ErrConflict)

	n, err := testStore.Registrations.CountActive(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = testStore.Registrations.MarkNoShow(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWatchSessions_Upsert(t *testing.T) {
	ctx := context.Background()
	v := &models.Video{Title: "Watched", Status: models.VideoStatusPublished, Duration: 1800}
	require.NoError(t, testStore.Videos.Create(ctx, v))

	s := &models.WatchSession{UserID: "viewer", VideoID: v.ID, LastPosition: 10, SessionStart: time.Now()}
	require.NoError(t, testStore.WatchSessions.Upsert(ctx, s))
	first := s.ID

	s2 := &models.WatchSession{UserID: "viewer", VideoID: v.ID, LastPosition: 20, SessionStart: time.Now()}
	require.NoError(t, testStore.WatchSessions.Upsert(ctx, s2))
	assert.Equal(t, first, s2.ID)

	got, err := testStore.WatchSessions.FindByUserAndVideo(ctx, "viewer", v.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.LastPosition)
}

func TestDepartments_SlugConflict(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testStore.Departments.Create(ctx, &models.Department{Name: "Chemistry", Slug: "chem"}))
	err := testStore.Departments.Create(ctx, &models.Department{Name: "Chem", Slug: "CHEM"})
	assert.ErrorIs(t, err, store.ErrConflict)
}
