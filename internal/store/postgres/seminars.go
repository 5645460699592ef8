package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const seminarCols = `id, title, description, department, instructor, zoom_type, zoom_meeting_id, zoom_join_url,
	zoom_start_url, zoom_password, scheduled_at, duration_minutes, capacity, status, price_free, price_basic,
	price_premium, currency, created_at, updated_at`

var seminarSorts = map[string]string{
	"scheduled_at": "scheduled_at",
	"created_at":   "created_at",
	"title":        "title",
	"capacity":     "capacity",
}

// Seminars handles seminar persistence.
type Seminars struct {
	pool *pgxpool.Pool
}

func scanSeminar(row scanner) (models.Seminar, error) {
	var s models.Seminar
	err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Department, &s.Instructor, &s.ZoomType, &s.ZoomMeetingID,
		&s.ZoomJoinURL, &s.ZoomStartURL, &s.ZoomPassword, &s.ScheduledAt, &s.DurationMinutes, &s.Capacity, &s.Status,
		&s.PriceFree, &s.PriceBasic, &s.PricePremium, &s.Currency, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a seminar.
func (r *Seminars) Create(ctx context.Context, s *models.Seminar) error {
	assignID(&s.ID)
	const q = `INSERT INTO seminars (id, title, description, department, instructor, zoom_type, zoom_meeting_id,
		zoom_join_url, zoom_start_url, zoom_password, scheduled_at, duration_minutes, capacity, status, price_free,
		price_basic, price_premium, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.ID, s.Title, s.Description, s.Department, s.Instructor, s.ZoomType,
		s.ZoomMeetingID, s.ZoomJoinURL, s.ZoomStartURL, s.ZoomPassword, s.ScheduledAt, s.DurationMinutes, s.Capacity,
		s.Status, s.PriceFree, s.PriceBasic, s.PricePremium, s.Currency).Scan(&s.CreatedAt, &s.UpdatedAt)
	return translate(err)
}

// FindByID returns a seminar by ID.
func (r *Seminars) FindByID(ctx context.Context, id uuid.UUID) (*models.Seminar, error) {
	s, err := scanSeminar(r.pool.QueryRow(ctx, `SELECT `+seminarCols+` FROM seminars WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// FindAll returns one page of seminars matching f and the total number of matches.
func (r *Seminars) FindAll(ctx context.Context, f store.SeminarFilter) ([]models.Seminar, int, error) {
	var b query.SQL
	eqFold(&b, "status", f.Status)
	eqFold(&b, "department", f.Department)
	eqFold(&b, "instructor", f.Instructor)
	if f.From != nil {
		b.Cond("scheduled_at >= ?", *f.From)
	}
	if f.To != nil {
		b.Cond("scheduled_at <= ?", *f.To)
	}
	b.Search(f.Search, "title", "description", "instructor")
	return list(ctx, r.pool, "seminars", seminarCols, &b, b.OrderBy(f.ListParams, seminarSorts, "scheduled_at"),
		f.ListParams, scanSeminar)
}

// Update writes every mutable column of s.
func (r *Seminars) Update(ctx context.Context, s *models.Seminar) error {
	const q = `UPDATE seminars SET title = $2, description = $3, department = $4, instructor = $5, zoom_type = $6,
		zoom_meeting_id = $7, zoom_join_url = $8, zoom_start_url = $9, zoom_password = $10, scheduled_at = $11,
		duration_minutes = $12, capacity = $13, status = $14, price_free = $15, price_basic = $16,
		price_premium = $17, currency = $18, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, s.ID, s.Title, s.Description, s.Department, s.Instructor, s.ZoomType,
		s.ZoomMeetingID, s.ZoomJoinURL, s.ZoomStartURL, s.ZoomPassword, s.ScheduledAt, s.DurationMinutes, s.Capacity,
		s.Status, s.PriceFree, s.PriceBasic, s.PricePremium, s.Currency).Scan(&s.CreatedAt, &s.UpdatedAt)
	return translate(err)
}

// Delete removes a seminar and its registrations.
func (r *Seminars) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM seminars WHERE id = $1`, id))
}
