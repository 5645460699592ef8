package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
)

type ratingKey struct {
	user  string
	video uuid.UUID
}

// Ratings is the in-memory rating repository, one rating per (user, video).
type Ratings struct {
	mu   sync.RWMutex
	rows map[ratingKey]models.VideoRating
}

// NewRatings creates an empty rating repository.
func NewRatings() *Ratings {
	return &Ratings{rows: make(map[ratingKey]models.VideoRating)}
}

// Upsert inserts or replaces the rating of a user for a video.
func (r *Ratings) Upsert(_ context.Context, rt *models.VideoRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ratingKey{rt.UserID, rt.VideoID}
	ts := now()
	if old, ok := r.rows[key]; ok {
		rt.CreatedAt = old.CreatedAt
	} else {
		rt.CreatedAt = ts
	}
	rt.UpdatedAt = ts
	r.rows[key] = *rt
	return nil
}

// Stats returns the average and count of the ratings of a video.
func (r *Ratings) Stats(_ context.Context, videoID uuid.UUID) (float64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum, n := 0, 0
	for k, rt := range r.rows {
		if k.video == videoID {
			sum += rt.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}
