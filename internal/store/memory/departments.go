package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var departmentSorters = map[string]query.Less[models.Department]{
	"name":       func(a, b models.Department) bool { return a.Name < b.Name },
	"slug":       func(a, b models.Department) bool { return a.Slug < b.Slug },
	"created_at": func(a, b models.Department) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

// Departments is the in-memory department repository. Slugs are unique.
type Departments struct {
	t *table[models.Department]
}

// NewDepartments creates an empty department repository.
func NewDepartments() *Departments {
	return &Departments{t: newTable[models.Department](nil)}
}

// slugTaken must be called with the lock held.
func (r *Departments) slugTaken(slug string, except uuid.UUID) bool {
	for id, d := range r.t.rows {
		if id != except && strings.EqualFold(d.Slug, slug) {
			return true
		}
	}
	return false
}

// Create stores d, assigning id and timestamps on d.
func (r *Departments) Create(_ context.Context, d *models.Department) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if r.slugTaken(d.Slug, uuid.Nil) {
		return store.ErrConflict
	}
	assignID(&d.ID)
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	r.t.rows[d.ID] = *d
	return nil
}

// FindByID returns a copy of the department.
func (r *Departments) FindByID(_ context.Context, id uuid.UUID) (*models.Department, error) {
	d, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

// FindAll sorts, searches and pages departments, by name unless asked otherwise.
func (r *Departments) FindAll(_ context.Context, p query.ListParams) ([]models.Department, int, error) {
	list, total := query.New[models.Department]().
		Search(p.Search, func(d models.Department) []string { return []string{d.Name, d.Slug, d.Description} }).
		Sort(p, departmentSorters, "name").
		ThenBy(func(a, b models.Department) bool { return idLess(a.ID, b.ID) }).
		Paged(p).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored department, keeping its creation time.
func (r *Departments) Update(_ context.Context, d *models.Department) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[d.ID]
	if !ok {
		return store.ErrNotFound
	}
	if r.slugTaken(d.Slug, d.ID) {
		return store.ErrConflict
	}
	d.CreatedAt = old.CreatedAt
	d.UpdatedAt = now()
	r.t.rows[d.ID] = *d
	return nil
}

// Delete removes a department.
func (r *Departments) Delete(_ context.Context, id uuid.UUID) error {
	if !r.t.del(id) {
		return store.ErrNotFound
	}
	return nil
}
