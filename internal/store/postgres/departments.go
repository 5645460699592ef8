package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
)

const departmentCols = `id, name, slug, description, created_at, updated_at`

var departmentSorts = map[string]string{
	"name":       "name",
	"slug":       "slug",
	"created_at": "created_at",
}

// Departments handles department persistence. Slugs are unique case-insensitively.
type Departments struct {
	pool *pgxpool.Pool
}

func scanDepartment(row scanner) (models.Department, error) {
	var d models.Department
	err := row.Scan(&d.ID, &d.Name, &d.Slug, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

// Create inserts a department.
func (r *Departments) Create(ctx context.Context, d *models.Department) error {
	assignID(&d.ID)
	const q = `INSERT INTO departments (id, name, slug, description) VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	return translate(r.pool.QueryRow(ctx, q, d.ID, d.Name, d.Slug, d.Description).Scan(&d.CreatedAt, &d.UpdatedAt))
}

// FindByID returns a department by ID.
func (r *Departments) FindByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	d, err := scanDepartment(r.pool.QueryRow(ctx, `SELECT `+departmentCols+` FROM departments WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// FindAll returns one page of departments and the total number of matches.
func (r *Departments) FindAll(ctx context.Context, p query.ListParams) ([]models.Department, int, error) {
	var b query.SQL
	b.Search(p.Search, "name", "slug", "description")
	return list(ctx, r.pool, "departments", departmentCols, &b, b.OrderBy(p, departmentSorts, "name"), p, scanDepartment)
}

// Update writes name, slug and description.
func (r *Departments) Update(ctx context.Context, d *models.Department) error {
	const q = `UPDATE departments SET name = $2, slug = $3, description = $4, updated_at = NOW() WHERE id = $1
		RETURNING created_at, updated_at`
	return translate(r.pool.QueryRow(ctx, q, d.ID, d.Name, d.Slug, d.Description).Scan(&d.CreatedAt, &d.UpdatedAt))
}

// Delete removes a department by ID.
func (r *Departments) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id))
}
