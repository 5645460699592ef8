package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const watchCols = `id, user_id, video_id, progress_percent, last_position, watch_time, completed, completed_at,
	session_start, session_end, device_type, user_agent, ip_address, created_at, updated_at`

var watchSorts = map[string]string{
	"updated_at": "updated_at",
	"created_at": "created_at",
	"progress":   "progress_percent",
}

// WatchSessions handles watch session persistence.
type WatchSessions struct {
	pool *pgxpool.Pool
}

func scanWatch(row scanner) (models.WatchSession, error) {
	var s models.WatchSession
	err := row.Scan(&s.ID, &s.UserID, &s.VideoID, &s.ProgressPercent, &s.LastPosition, &s.WatchTime, &s.Completed,
		&s.CompletedAt, &s.SessionStart, &s.SessionEnd, &s.DeviceType, &s.UserAgent, &s.IPAddress,
		&s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// FindByUserAndVideo returns the session of a user for a video.
func (r *WatchSessions) FindByUserAndVideo(ctx context.Context, userID string, videoID uuid.UUID) (*models.WatchSession, error) {
	const q = `SELECT ` + watchCols + ` FROM watch_sessions WHERE user_id = $1 AND video_id = $2`
	s, err := scanWatch(r.pool.QueryRow(ctx, q, userID, videoID))
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Upsert inserts the session or overwrites the existing row for (user_id, video_id).
func (r *WatchSessions) Upsert(ctx context.Context, s *models.WatchSession) error {
	assignID(&s.ID)
	const q = `INSERT INTO watch_sessions (id, user_id, video_id, progress_percent, last_position, watch_time,
		completed, completed_at, session_start, session_end, device_type, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, video_id) DO UPDATE SET
			progress_percent = EXCLUDED.progress_percent,
			last_position = EXCLUDED.last_position,
			watch_time = EXCLUDED.watch_time,
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			session_start = EXCLUDED.session_start,
			session_end = EXCLUDED.session_end,
			device_type = EXCLUDED.device_type,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.ID, s.UserID, s.VideoID, s.ProgressPercent, s.LastPosition, s.WatchTime,
		s.Completed, s.CompletedAt, s.SessionStart, s.SessionEnd, s.DeviceType, s.UserAgent, s.IPAddress).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return translate(err)
}

// FindAll returns one page of sessions matching f and the total number of matches.
func (r *WatchSessions) FindAll(ctx context.Context, f store.WatchFilter) ([]models.WatchSession, int, error) {
	var b query.SQL
	b.EqIf(f.UserID != "", "user_id", f.UserID)
	if f.VideoID != nil {
		b.Eq("video_id", *f.VideoID)
	}
	boolEq(&b, "completed", f.Completed)
	return list(ctx, r.pool, "watch_sessions", watchCols, &b, b.OrderBy(f.ListParams, watchSorts, "updated_at"),
		f.ListParams, scanWatch)
}
