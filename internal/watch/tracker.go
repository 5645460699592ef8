// Package watch tracks per-user playback progress. There is one session per (user, video);
// starting again reopens it and completion, once reached, is never withdrawn.
package watch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/metrics"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrSessionNotFound  = errors.New("watch session not found")
	ErrPaidPlanRequired = errors.New("premium video requires a paid plan")
)

// Device describes the client a session was started from.
type Device struct {
	Type      string
	UserAgent string
	IP        string
}

// Tracker records watch sessions.
type Tracker struct {
	sessions store.WatchSessions
	videos   store.Videos
	activity activity.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewTracker creates a tracker.
func NewTracker(sessions store.WatchSessions, videos store.Videos, rec activity.Recorder, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		sessions: sessions,
		videos:   videos,
		activity: rec,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Percent converts a playback position to progress, clamped to [0, 100].
// A video without a known duration reports 0.
func Percent(position float64, duration int) float64 {
	if duration <= 0 || math.IsNaN(position) {
		return 0
	}
	p := position / float64(duration) * 100
	return math.Max(0, math.Min(100, p))
}

func (t *Tracker) video(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, err := t.videos.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	return v, nil
}

// watchable loads a video the viewer may play. Drafts are hidden from non-admins
// and premium videos need a paid plan.
func (t *Tracker) watchable(ctx context.Context, viewer auth.Identity, id uuid.UUID) (*models.Video, error) {
	v, err := t.video(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin() {
		return v, nil
	}
	if v.Status != models.VideoStatusPublished {
		return nil, ErrVideoNotFound
	}
	if v.IsPremium && !viewer.HasPaidPlan() {
		return nil, ErrPaidPlanRequired
	}
	return v, nil
}

func (t *Tracker) find(ctx context.Context, userID string, videoID uuid.UUID) (*models.WatchSession, error) {
	s, err := t.sessions.FindByUserAndVideo(ctx, userID, videoID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

// Start opens (or reopens) the session and counts a view.
func (t *Tracker) Start(ctx context.Context, viewer auth.Identity, videoID uuid.UUID, d Device) (*models.WatchSession, error) {
	if _, err := t.watchable(ctx, viewer, videoID); err != nil {
		return nil, err
	}
	userID := viewer.UserID
	s, err := t.find(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &models.WatchSession{UserID: userID, VideoID: videoID}
	}
	s.SessionStart = t.now()
	s.SessionEnd = nil
	s.DeviceType = d.Type
	s.UserAgent = d.UserAgent
	s.IPAddress = d.IP
	if err := t.sessions.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := t.videos.IncrementViews(ctx, videoID); err != nil {
		t.logger.Warn("increment views", zap.String("video_id", videoID.String()), zap.Error(err))
	}
	if t.activity != nil {
		t.activity.Log(ctx, userID, models.ActivityVideoStarted, "video", videoID.String(),
			map[string]interface{}{"device_type": d.Type})
	}
	return s, nil
}

// Progress records the playback position. Watch time never decreases and completion is sticky.
func (t *Tracker) Progress(ctx context.Context, viewer auth.Identity, videoID uuid.UUID, position, watchTime float64) (*models.WatchSession, error) {
	v, err := t.watchable(ctx, viewer, videoID)
	if err != nil {
		return nil, err
	}
	userID := viewer.UserID
	s, err := t.find(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = &models.WatchSession{UserID: userID, VideoID: videoID, SessionStart: t.now()}
	}

	s.ProgressPercent = Percent(position, v.Duration)
	s.LastPosition = math.Max(0, position)
	s.WatchTime = math.Max(s.WatchTime, watchTime)
	justCompleted := false
	if !s.Completed && s.ProgressPercent >= models.CompletionThreshold {
		ts := t.now()
		s.Completed = true
		s.CompletedAt = &ts
		justCompleted = true
	}
	if err := t.sessions.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.WatchProgressUpdates.Inc()
	if justCompleted {
		metrics.WatchCompletions.Inc()
		if t.activity != nil {
			t.activity.Log(ctx, userID, models.ActivityVideoCompleted, "video", videoID.String(),
				map[string]interface{}{"watch_time": s.WatchTime})
		}
	}
	return s, nil
}

// End closes the current session.
func (t *Tracker) End(ctx context.Context, userID string, videoID uuid.UUID) (*models.WatchSession, error) {
	s, err := t.find(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	ts := t.now()
	s.SessionEnd = &ts
	if err := t.sessions.Upsert(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Get returns the session of a user for a video.
func (t *Tracker) Get(ctx context.Context, userID string, videoID uuid.UUID) (*models.WatchSession, error) {
	s, err := t.find(ctx, userID, videoID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ListForUser returns a user's sessions, most recently updated first by default.
func (t *Tracker) ListForUser(ctx context.Context, userID string, completed *bool, p query.ListParams) ([]models.WatchSession, int, error) {
	if p.Sort == "" {
		p.Sort = "updated_at"
	}
	return t.sessions.FindAll(ctx, store.WatchFilter{UserID: userID, Completed: completed, ListParams: p})
}
