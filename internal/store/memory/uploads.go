package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var uploadSorters = map[string]query.Less[models.UploadTask]{
	"created_at": func(a, b models.UploadTask) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"updated_at": func(a, b models.UploadTask) bool { return a.UpdatedAt.Before(b.UpdatedAt) },
	"filename":   func(a, b models.UploadTask) bool { return a.Filename < b.Filename },
}

// UploadTasks is the in-memory upload task repository.
type UploadTasks struct {
	t *table[models.UploadTask]
}

// NewUploadTasks creates an empty upload task repository.
func NewUploadTasks() *UploadTasks {
	return &UploadTasks{t: newTable(func(t models.UploadTask) models.UploadTask {
		t.VideoID = cloneUUID(t.VideoID)
		return t
	})}
}

// Create stores t, assigning id and timestamps on t.
func (r *UploadTasks) Create(_ context.Context, t *models.UploadTask) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&t.ID)
	if _, ok := r.t.rows[t.ID]; ok {
		return store.ErrConflict
	}
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt
	r.t.rows[t.ID] = r.t.clone(*t)
	return nil
}

// FindByID returns a copy of the task.
func (r *UploadTasks) FindByID(_ context.Context, id uuid.UUID) (*models.UploadTask, error) {
	t, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// FindAll filters, sorts and pages tasks. Newest first by default.
func (r *UploadTasks) FindAll(_ context.Context, f store.UploadFilter) ([]models.UploadTask, int, error) {
	list, total := query.New[models.UploadTask]().
		Where(func(t models.UploadTask) bool {
			return (f.UserID == "" || f.UserID == t.UserID) && query.EqualFold(f.Status, t.Status)
		}).
		Search(f.Search, func(t models.UploadTask) []string {
			return []string{t.Filename, t.Title}
		}).
		Sort(f.ListParams, uploadSorters, "created_at").
		ThenBy(func(a, b models.UploadTask) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored task, keeping its creation time.
func (r *UploadTasks) Update(_ context.Context, t *models.UploadTask) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[t.ID]
	if !ok {
		return store.ErrNotFound
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = now()
	r.t.rows[t.ID] = r.t.clone(*t)
	return nil
}
