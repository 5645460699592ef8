package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var videoSorters = map[string]query.Less[models.Video]{
	"created_at": func(a, b models.Video) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"title":      func(a, b models.Video) bool { return a.Title < b.Title },
	"views":      func(a, b models.Video) bool { return a.ViewCount < b.ViewCount },
	"likes":      func(a, b models.Video) bool { return a.LikeCount < b.LikeCount },
	"rating":     func(a, b models.Video) bool { return a.RatingAverage < b.RatingAverage },
	"duration":   func(a, b models.Video) bool { return a.Duration < b.Duration },
}

// Videos is the in-memory video repository.
type Videos struct {
	t *table[models.Video]
}

// NewVideos creates an empty video repository.
func NewVideos() *Videos {
	return &Videos{t: newTable(func(v models.Video) models.Video {
		v.Tags = cloneStrings(v.Tags)
		return v
	})}
}

// Create stores v, assigning id and timestamps on v.
func (r *Videos) Create(_ context.Context, v *models.Video) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&v.ID)
	if _, ok := r.t.rows[v.ID]; ok {
		return store.ErrConflict
	}
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt
	r.t.rows[v.ID] = r.t.clone(*v)
	return nil
}

// FindByID returns a copy of the video.
func (r *Videos) FindByID(_ context.Context, id uuid.UUID) (*models.Video, error) {
	v, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

// FindAll filters, sorts and pages the full video set.
func (r *Videos) FindAll(_ context.Context, f store.VideoFilter) ([]models.Video, int, error) {
	list, total := query.New[models.Video]().
		Where(func(v models.Video) bool {
			return query.EqualFold(f.Status, v.Status) &&
				query.EqualFold(f.Department, v.Department) &&
				query.EqualFold(f.Level, v.Level) &&
				query.EqualFold(f.Category, v.Category) &&
				query.EqualFold(f.Instructor, v.Instructor) &&
				query.ContainsFold(v.Tags, f.Tag) &&
				(f.VimeoID == "" || f.VimeoID == v.VimeoID) &&
				query.BoolEq(f.Premium, v.IsPremium) &&
				query.BoolEq(f.Featured, v.IsFeatured) &&
				query.BoolEq(f.Popular, v.IsPopular)
		}).
		Search(f.Search, func(v models.Video) []string {
			return append([]string{v.Title, v.Description, v.Instructor}, v.Tags...)
		}).
		Sort(f.ListParams, videoSorters, "created_at").
		ThenBy(func(a, b models.Video) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored video, keeping its creation time.
func (r *Videos) Update(_ context.Context, v *models.Video) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[v.ID]
	if !ok {
		return store.ErrNotFound
	}
	v.CreatedAt = old.CreatedAt
	v.UpdatedAt = now()
	r.t.rows[v.ID] = r.t.clone(*v)
	return nil
}

// Delete removes a video.
func (r *Videos) Delete(_ context.Context, id uuid.UUID) error {
	if !r.t.del(id) {
		return store.ErrNotFound
	}
	return nil
}

// IncrementViews adds one to the view count.
func (r *Videos) IncrementViews(_ context.Context, id uuid.UUID) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	v, ok := r.t.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	v.ViewCount++
	r.t.rows[id] = v
	return nil
}

// SetRating stores the aggregated rating of a video.
func (r *Videos) SetRating(_ context.Context, id uuid.UUID, average float64, count int) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	v, ok := r.t.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	v.RatingAverage = average
	v.RatingCount = count
	v.UpdatedAt = now()
	r.t.rows[id] = v
	return nil
}
