package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var seminarSorters = map[string]query.Less[models.Seminar]{
	"scheduled_at": func(a, b models.Seminar) bool { return a.ScheduledAt.Before(b.ScheduledAt) },
	"created_at":   func(a, b models.Seminar) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"title":        func(a, b models.Seminar) bool { return a.Title < b.Title },
	"capacity":     func(a, b models.Seminar) bool { return a.Capacity < b.Capacity },
}

// Seminars is the in-memory seminar repository.
type Seminars struct {
	t *table[models.Seminar]
}

// NewSeminars creates an empty seminar repository.
func NewSeminars() *Seminars {
	return &Seminars{t: newTable[models.Seminar](nil)}
}

// Create stores s, assigning id and timestamps on s.
func (r *Seminars) Create(_ context.Context, s *models.Seminar) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&s.ID)
	if _, ok := r.t.rows[s.ID]; ok {
		return store.ErrConflict
	}
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	r.t.rows[s.ID] = *s
	return nil
}

// FindByID returns a copy of the seminar.
func (r *Seminars) FindByID(_ context.Context, id uuid.UUID) (*models.Seminar, error) {
	s, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

// FindAll filters, sorts and pages the full seminar set.
func (r *Seminars) FindAll(_ context.Context, f store.SeminarFilter) ([]models.Seminar, int, error) {
	list, total := query.New[models.Seminar]().
		Where(func(s models.Seminar) bool {
			return query.EqualFold(f.Status, s.Status) &&
				query.EqualFold(f.Department, s.Department) &&
				query.EqualFold(f.Instructor, s.Instructor)
		}).
		WhereIf(f.From != nil, func(s models.Seminar) bool { return !s.ScheduledAt.Before(*f.From) }).
		WhereIf(f.To != nil, func(s models.Seminar) bool { return !s.ScheduledAt.After(*f.To) }).
		Search(f.Search, func(s models.Seminar) []string {
			return []string{s.Title, s.Description, s.Instructor}
		}).
		Sort(f.ListParams, seminarSorters, "scheduled_at").
		ThenBy(func(a, b models.Seminar) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored seminar, keeping its creation time.
func (r *Seminars) Update(_ context.Context, s *models.Seminar) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[s.ID]
	if !ok {
		return store.ErrNotFound
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = now()
	r.t.rows[s.ID] = *s
	return nil
}

// Delete removes a seminar.
func (r *Seminars) Delete(_ context.Context, id uuid.UUID) error {
	if !r.t.del(id) {
		return store.ErrNotFound
	}
	return nil
}
