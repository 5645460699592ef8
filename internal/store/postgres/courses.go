package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const courseCols = `id, title, description, department, level, instructor, format, status, price_cents, currency,
	video_ids, seminar_id, starts_at, created_at, updated_at`

var courseSorts = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"price":      "price_cents",
	"starts_at":  "starts_at",
}

// Courses handles course persistence.
type Courses struct {
	pool *pgxpool.Pool
}

func scanCourse(row scanner) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Department, &c.Level, &c.Instructor, &c.Format, &c.Status,
		&c.PriceCents, &c.Currency, &c.VideoIDs, &c.SeminarID, &c.StartsAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func videoIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

// Create inserts a course.
func (r *Courses) Create(ctx context.Context, c *models.Course) error {
	assignID(&c.ID)
	const q = `INSERT INTO courses (id, title, description, department, level, instructor, format, status,
		price_cents, currency, video_ids, seminar_id, starts_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.ID, c.Title, c.Description, c.Department, c.Level, c.Instructor, c.Format,
		c.Status, c.PriceCents, c.Currency, videoIDs(c.VideoIDs), c.SeminarID, c.StartsAt).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// FindByID returns a course by ID.
func (r *Courses) FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseCols+` FROM courses WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// FindAll returns one page of courses matching f and the total number of matches.
func (r *Courses) FindAll(ctx context.Context, f store.CourseFilter) ([]models.Course, int, error) {
	var b query.SQL
	eqFold(&b, "status", f.Status)
	eqFold(&b, "format", f.Format)
	eqFold(&b, "department", f.Department)
	eqFold(&b, "level", f.Level)
	b.Search(f.Search, "title", "description", "instructor")
	return list(ctx, r.pool, "courses", courseCols, &b, b.OrderBy(f.ListParams, courseSorts, "created_at"),
		f.ListParams, scanCourse)
}

// Update writes every mutable column of c.
func (r *Courses) Update(ctx context.Context, c *models.Course) error {
	const q = `UPDATE courses SET title = $2, description = $3, department = $4, level = $5, instructor = $6,
		format = $7, status = $8, price_cents = $9, currency = $10, video_ids = $11, seminar_id = $12,
		starts_at = $13, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, c.ID, c.Title, c.Description, c.Department, c.Level, c.Instructor, c.Format,
		c.Status, c.PriceCents, c.Currency, videoIDs(c.VideoIDs), c.SeminarID, c.StartsAt).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

// Delete removes a course by ID.
func (r *Courses) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id))
}
