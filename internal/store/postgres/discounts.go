package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const discountCols = `id, name, kind, value, department, course_id, min_price_cents, active, valid_from,
	valid_until, created_at, updated_at`

var discountSorts = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"value":      "value",
}

// DiscountRules handles discount rule persistence.
type DiscountRules struct {
	pool *pgxpool.Pool
}

func scanDiscount(row scanner) (models.DiscountRule, error) {
	var d models.DiscountRule
	err := row.Scan(&d.ID, &d.Name, &d.Kind, &d.Value, &d.Department, &d.CourseID, &d.MinPriceCents, &d.Active,
		&d.ValidFrom, &d.ValidUntil, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// Create inserts a rule.
func (r *DiscountRules) Create(ctx context.Context, d *models.DiscountRule) error {
	assignID(&d.ID)
	const q = `INSERT INTO discount_rules (id, name, kind, value, department, course_id, min_price_cents, active,
		valid_from, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, d.ID, d.Name, d.Kind, d.Value, d.Department, d.CourseID, d.MinPriceCents,
		d.Active, d.ValidFrom, d.ValidUntil).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translate(err)
}

// FindByID returns a rule by ID.
func (r *DiscountRules) FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	d, err := scanDiscount(r.pool.QueryRow(ctx, `SELECT `+discountCols+` FROM discount_rules WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// FindAll returns one page of rules matching f and the total number of matches.
func (r *DiscountRules) FindAll(ctx context.Context, f store.DiscountFilter) ([]models.DiscountRule, int, error) {
	var b query.SQL
	if f.ActiveOnly {
		b.Raw("active")
	}
	b.Search(f.Search, "name", "department")
	return list(ctx, r.pool, "discount_rules", discountCols, &b, b.OrderBy(f.ListParams, discountSorts, "created_at"),
		f.ListParams, scanDiscount)
}

// Update writes every mutable column of d.
func (r *DiscountRules) Update(ctx context.Context, d *models.DiscountRule) error {
	const q = `UPDATE discount_rules SET name = $2, kind = $3, value = $4, department = $5, course_id = $6,
		min_price_cents = $7, active = $8, valid_from = $9, valid_until = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, d.ID, d.Name, d.Kind, d.Value, d.Department, d.CourseID, d.MinPriceCents,
		d.Active, d.ValidFrom, d.ValidUntil).Scan(&d.CreatedAt, &d.UpdatedAt)
	return translate(err)
}

// Delete removes a rule by ID.
func (r *DiscountRules) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM discount_rules WHERE id = $1`, id))
}
