package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const activityCols = `id, user_id, action, resource_type, resource_id, metadata, created_at`

var activitySorts = map[string]string{
	"created_at": "created_at",
	"action":     "action",
}

// Activities handles the user activity log.
type Activities struct {
	pool *pgxpool.Pool
}

func scanActivity(row scanner) (models.UserActivity, error) {
	var a models.UserActivity
	err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.ResourceType, &a.ResourceID, &a.Metadata, &a.CreatedAt)
	return a, err
}

// Create appends an entry.
func (r *Activities) Create(ctx context.Context, a *models.UserActivity) error {
	assignID(&a.ID)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO user_activities (id, user_id, action, resource_type, resource_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, q, a.ID, a.UserID, a.Action, a.ResourceType, a.ResourceID, a.Metadata, a.CreatedAt)
	return translate(err)
}

// FindAll returns one page of entries matching f and the total number of matches.
func (r *Activities) FindAll(ctx context.Context, f store.ActivityFilter) ([]models.UserActivity, int, error) {
	var b query.SQL
	b.EqIf(f.UserID != "", "user_id", f.UserID)
	eqFold(&b, "action", f.Action)
	b.Search(f.Search, "action", "resource_type", "resource_id")
	return list(ctx, r.pool, "user_activities", activityCols, &b,
		b.OrderBy(f.ListParams, activitySorts, "created_at"), f.ListParams, scanActivity)
}
