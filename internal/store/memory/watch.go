package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var watchSorters = map[string]query.Less[models.WatchSession]{
	"updated_at": func(a, b models.WatchSession) bool { return a.UpdatedAt.Before(b.UpdatedAt) },
	"created_at": func(a, b models.WatchSession) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"progress":   func(a, b models.WatchSession) bool { return a.ProgressPercent < b.ProgressPercent },
}

type watchKey struct {
	user  string
	video uuid.UUID
}

func cloneSession(s models.WatchSession) models.WatchSession {
	s.CompletedAt = cloneTime(s.CompletedAt)
	s.SessionEnd = cloneTime(s.SessionEnd)
	return s
}

// WatchSessions is the in-memory watch session repository, keyed by (user, video).
type WatchSessions struct {
	mu   sync.RWMutex
	rows map[watchKey]models.WatchSession
}

// NewWatchSessions creates an empty watch session repository.
func NewWatchSessions() *WatchSessions {
	return &WatchSessions{rows: make(map[watchKey]models.WatchSession)}
}

// FindByUserAndVideo returns the session of a user for a video.
func (r *WatchSessions) FindByUserAndVideo(_ context.Context, userID string, videoID uuid.UUID) (*models.WatchSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[watchKey{userID, videoID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	s = cloneSession(s)
	return &s, nil
}

// Upsert inserts or replaces the session for (UserID, VideoID).
func (r *WatchSessions) Upsert(_ context.Context, s *models.WatchSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := watchKey{s.UserID, s.VideoID}
	ts := now()
	if old, ok := r.rows[key]; ok {
		s.ID = old.ID
		s.CreatedAt = old.CreatedAt
	} else {
		assignID(&s.ID)
		s.CreatedAt = ts
	}
	s.UpdatedAt = ts
	r.rows[key] = cloneSession(*s)
	return nil
}

// FindAll filters, sorts and pages sessions.
func (r *WatchSessions) FindAll(_ context.Context, f store.WatchFilter) ([]models.WatchSession, int, error) {
	r.mu.RLock()
	all := make([]models.WatchSession, 0, len(r.rows))
	for _, s := range r.rows {
		all = append(all, cloneSession(s))
	}
	r.mu.RUnlock()

	list, total := query.New[models.WatchSession]().
		Where(func(s models.WatchSession) bool {
			return (f.UserID == "" || f.UserID == s.UserID) &&
				(f.VideoID == nil || *f.VideoID == s.VideoID) &&
				query.BoolEq(f.Completed, s.Completed)
		}).
		Sort(f.ListParams, watchSorters, "updated_at").
		ThenBy(func(a, b models.WatchSession) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(all)
	return list, total, nil
}
