package memory

import (
	"bytes"
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

func TestVideos_CreateThenFindByID(t *testing.T) {
	ctx := context.Background()
	repo := NewVideos()

	v := &models.Video{Title: "Intro to Go", Status: models.VideoStatusPublished, Tags: []string{"go", "basics"}}
	require.NoError(t, repo.Create(ctx, v))
	require.NotEqual(t, uuid.Nil, v.ID)
	require.False(t, v.CreatedAt.IsZero())

	got, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, *v, *got)

	// Mutating the returned copy must not leak into the store.
	got.Tags[0] = "changed"
	again, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "go", again.Tags[0])
}

func TestVideos_FindAllFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewVideos()
	premium := true
	for i, dept := range []string{"math", "math", "physics", "math"} {
		require.NoError(t, repo.Create(ctx, &models.Video{
			Title:      "video",
			Department: dept,
			IsPremium:  i%2 == 0,
			ViewCount:  i,
			Status:     models.VideoStatusPublished,
		}))
	}

	list, total, err := repo.FindAll(ctx, store.VideoFilter{
		Department: "MATH",
		Premium:    &premium,
		ListParams: query.ListParams{Sort: "views", Order: query.OrderAsc},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, 0, list[0].ViewCount)

	list, total, err = repo.FindAll(ctx, store.VideoFilter{
		ListParams: query.ListParams{Sort: "views", Order: query.OrderDesc, Limit: 2, Offset: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].ViewCount)
	assert.Equal(t, 1, list[1].ViewCount)
}

func TestVideos_MissingRecords(t *testing.T) {
	ctx := context.Background()
	repo := NewVideos()
	id := uuid.New()

	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.Video{ID: id}), store.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), store.ErrNotFound)
	assert.ErrorIs(t, repo.IncrementViews(ctx, id), store.ErrNotFound)
}

func TestSeminars_StatusFilterIsConjunctive(t *testing.T) {
	ctx := context.Background()
	repo := NewSeminars()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	fixtures := []models.Seminar{
		{Title: "a", Status: models.SeminarStatusScheduled, Department: "math", ScheduledAt: base},
		{Title: "b", Status: models.SeminarStatusScheduled, Department: "art", ScheduledAt: base.Add(time.Hour)},
		{Title: "c", Status: models.SeminarStatusCompleted, Department: "math", ScheduledAt: base.Add(2 * time.Hour)},
	}
	for i := range fixtures {
		require.NoError(t, repo.Create(ctx, &fixtures[i]))
	}

	list, total, err := repo.FindAll(ctx, store.SeminarFilter{Status: models.SeminarStatusScheduled})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, s := range list {
		assert.Equal(t, models.SeminarStatusScheduled, s.Status)
	}

	list, total, err = repo.FindAll(ctx, store.SeminarFilter{Status: models.SeminarStatusScheduled, Department: "math"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "a", list[0].Title)

	from := base.Add(30 * time.Minute)
	_, total, err = repo.FindAll(ctx, store.SeminarFilter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestRegistrations_UniquePerUserAndSeminar(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrations()
	seminarID := uuid.New()

	first := &models.SeminarRegistration{SeminarID: seminarID, UserID: "user_1", PaymentStatus: models.PaymentStatusFree,
		AttendanceStatus: models.AttendanceRegistered}
	require.NoError(t, repo.Create(ctx, first))
	err := repo.Create(ctx, &models.SeminarRegistration{SeminarID: seminarID, UserID: "user_1"})
	assert.ErrorIs(t, err, store.ErrConflict)

	got, err := repo.FindByUserAndSeminar(ctx, "user_1", seminarID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestRegistrations_CountActiveAndMarkNoShow(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrations()
	seminarID := uuid.New()
	regs := []models.SeminarRegistration{
		{UserID: "u1", PaymentStatus: models.PaymentStatusPaid, AttendanceStatus: models.AttendanceAttended},
		{UserID: "u2", PaymentStatus: models.PaymentStatusFree, AttendanceStatus: models.AttendanceRegistered},
		{UserID: "u3", PaymentStatus: models.PaymentStatusFailed, AttendanceStatus: models.AttendanceRegistered},
	}
	for i := range regs {
		regs[i].SeminarID = seminarID
		require.NoError(t, repo.Create(ctx, &regs[i]))
	}
	require.NoError(t, repo.Create(ctx, &models.SeminarRegistration{SeminarID: uuid.New(), UserID: "u1",
		AttendanceStatus: models.AttendanceRegistered}))

	n, err := repo.CountActive(ctx, seminarID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.MarkNoShow(ctx, seminarID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	attended, err := repo.FindByUserAndSeminar(ctx, "u1", seminarID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceAttended, attended.AttendanceStatus)
	noShow, err := repo.FindByUserAndSeminar(ctx, "u2", seminarID)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceNoShow, noShow.AttendanceStatus)
}

func TestWatchSessions_UpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewWatchSessions()
	videoID := uuid.New()

	s := &models.WatchSession{UserID: "u1", VideoID: videoID, LastPosition: 10}
	require.NoError(t, repo.Upsert(ctx, s))
	firstID, created := s.ID, s.CreatedAt

	s2 := &models.WatchSession{UserID: "u1", VideoID: videoID, LastPosition: 20}
	require.NoError(t, repo.Upsert(ctx, s2))
	assert.Equal(t, firstID, s2.ID)
	assert.Equal(t, created, s2.CreatedAt)

	got, err := repo.FindByUserAndVideo(ctx, "u1", videoID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got.LastPosition)

	_, total, err := repo.FindAll(ctx, store.WatchFilter{UserID: "u2"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDepartments_UniqueSlug(t *testing.T) {
	ctx := context.Background()
	repo := NewDepartments()
	require.NoError(t, repo.Create(ctx, &models.Department{Name: "Mathematics", Slug: "math"}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Department{Name: "Maths", Slug: "MATH"}), store.ErrConflict)

	physics := &models.Department{Name: "Physics", Slug: "physics"}
	require.NoError(t, repo.Create(ctx, physics))
	physics.Slug = "math"
	assert.ErrorIs(t, repo.Update(ctx, physics), store.ErrConflict)
}

func TestDepartments_TiedSortPagesByID(t *testing.T) {
	ctx := context.Background()
	repo := NewDepartments()
	var ids []uuid.UUID
	for _, slug := range []string{"a", "b", "c", "d", "e"} {
		d := &models.Department{Name: "Science", Slug: slug}
		require.NoError(t, repo.Create(ctx, d))
		ids = append(ids, d.ID)
	}

	for _, order := range []string{query.OrderAsc, query.OrderDesc} {
		var paged []uuid.UUID
		for offset := 0; offset < len(ids); offset++ {
			page, total, err := repo.FindAll(ctx, query.ListParams{Sort: "name", Order: order, Offset: offset, Limit: 1})
			require.NoError(t, err)
			require.Equal(t, len(ids), total)
			require.Len(t, page, 1)
			paged = append(paged, page[0].ID)
		}
		assert.ElementsMatch(t, ids, paged, order)
		assert.True(t, slices.IsSortedFunc(paged, func(a, b uuid.UUID) int {
			c := bytes.Compare(a[:], b[:])
			if order == query.OrderDesc {
				return -c
			}
			return c
		}), order)
	}
}

func TestRatings_Stats(t *testing.T) {
	ctx := context.Background()
	repo := NewRatings()
	videoID := uuid.New()

	require.NoError(t, repo.Upsert(ctx, &models.VideoRating{UserID: "u1", VideoID: videoID, Rating: 5}))
	require.NoError(t, repo.Upsert(ctx, &models.VideoRating{UserID: "u2", VideoID: videoID, Rating: 2}))
	require.NoError(t, repo.Upsert(ctx, &models.VideoRating{UserID: "u2", VideoID: videoID, Rating: 4}))

	avg, n, err := repo.Stats(ctx, videoID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 4.5, avg, 0.001)
}

func TestNew_WiresEveryRepository(t *testing.T) {
	s := New()
	assert.Equal(t, "memory", s.Driver)
	assert.NotNil(t, s.Videos)
	assert.NotNil(t, s.Refunds)
	assert.NotNil(t, s.Ratings)
}
