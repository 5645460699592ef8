package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var discountSorters = map[string]query.Less[models.DiscountRule]{
	"created_at": func(a, b models.DiscountRule) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"name":       func(a, b models.DiscountRule) bool { return a.Name < b.Name },
	"value":      func(a, b models.DiscountRule) bool { return a.Value < b.Value },
}

func cloneRule(d models.DiscountRule) models.DiscountRule {
	d.CourseID = cloneUUID(d.CourseID)
	d.ValidFrom = cloneTime(d.ValidFrom)
	d.ValidUntil = cloneTime(d.ValidUntil)
	return d
}

// DiscountRules is the in-memory discount rule repository.
type DiscountRules struct {
	t *table[models.DiscountRule]
}

// NewDiscountRules creates an empty discount rule repository.
func NewDiscountRules() *DiscountRules {
	return &DiscountRules{t: newTable(cloneRule)}
}

// Create stores d, assigning id and timestamps on d.
func (r *DiscountRules) Create(_ context.Context, d *models.DiscountRule) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&d.ID)
	if _, ok := r.t.rows[d.ID]; ok {
		return store.ErrConflict
	}
	d.CreatedAt = now()
	d.UpdatedAt = d.CreatedAt
	r.t.rows[d.ID] = cloneRule(*d)
	return nil
}

// FindByID returns a copy of the rule.
func (r *DiscountRules) FindByID(_ context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	d, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &d, nil
}

// FindAll filters, sorts and pages rules.
func (r *DiscountRules) FindAll(_ context.Context, f store.DiscountFilter) ([]models.DiscountRule, int, error) {
	list, total := query.New[models.DiscountRule]().
		WhereIf(f.ActiveOnly, func(d models.DiscountRule) bool { return d.Active }).
		Search(f.Search, func(d models.DiscountRule) []string { return []string{d.Name, d.Department} }).
		Sort(f.ListParams, discountSorters, "created_at").
		ThenBy(func(a, b models.DiscountRule) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored rule, keeping its creation time.
func (r *DiscountRules) Update(_ context.Context, d *models.DiscountRule) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[d.ID]
	if !ok {
		return store.ErrNotFound
	}
	d.CreatedAt = old.CreatedAt
	d.UpdatedAt = now()
	r.t.rows[d.ID] = cloneRule(*d)
	return nil
}

// Delete removes a rule.
func (r *DiscountRules) Delete(_ context.Context, id uuid.UUID) error {
	if !r.t.del(id) {
		return store.ErrNotFound
	}
	return nil
}
