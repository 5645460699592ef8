package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
)

// Ratings handles video rating persistence.
type Ratings struct {
	pool *pgxpool.Pool
}

// Upsert inserts or replaces the rating of a user for a video.
func (r *Ratings) Upsert(ctx context.Context, rt *models.VideoRating) error {
	const q = `INSERT INTO video_ratings (user_id, video_id, rating) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, video_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()
		RETURNING created_at, updated_at`
	return translate(r.pool.QueryRow(ctx, q, rt.UserID, rt.VideoID, rt.Rating).Scan(&rt.CreatedAt, &rt.UpdatedAt))
}

// Stats returns the average and count of the ratings of a video.
func (r *Ratings) Stats(ctx context.Context, videoID uuid.UUID) (float64, int, error) {
	const q = `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM video_ratings WHERE video_id = $1`
	var avg float64
	var n int
	err := r.pool.QueryRow(ctx, q, videoID).Scan(&avg, &n)
	return avg, n, err
}
