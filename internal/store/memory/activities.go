package memory

import (
	"context"
	"slices"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var activitySorters = map[string]query.Less[models.UserActivity]{
	"created_at": func(a, b models.UserActivity) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"action":     func(a, b models.UserActivity) bool { return a.Action < b.Action },
}

// Activities is the in-memory activity log.
type Activities struct {
	t *table[models.UserActivity]
}

// NewActivities creates an empty activity log.
func NewActivities() *Activities {
	return &Activities{t: newTable(func(a models.UserActivity) models.UserActivity {
		a.Metadata = slices.Clone(a.Metadata)
		return a
	})}
}

// Create appends an entry.
func (r *Activities) Create(_ context.Context, a *models.UserActivity) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	r.t.rows[a.ID] = r.t.clone(*a)
	return nil
}

// FindAll filters, sorts and pages the log. Newest first unless asked otherwise.
func (r *Activities) FindAll(_ context.Context, f store.ActivityFilter) ([]models.UserActivity, int, error) {
	list, total := query.New[models.UserActivity]().
		Where(func(a models.UserActivity) bool {
			return (f.UserID == "" || f.UserID == a.UserID) && query.EqualFold(f.Action, a.Action)
		}).
		Search(f.Search, func(a models.UserActivity) []string {
			return []string{a.Action, a.ResourceType, a.ResourceID}
		}).
		Sort(f.ListParams, activitySorters, "created_at").
		ThenBy(func(a, b models.UserActivity) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}
