package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const registrationCols = `id, seminar_id, user_id, user_email, plan, amount_cents, currency, payment_status,
	payment_intent_id, attendance_status, created_at, updated_at`

var registrationSorts = map[string]string{
	"created_at": "created_at",
	"amount":     "amount_cents",
}

// Registrations handles seminar registration persistence.
type Registrations struct {
	pool *pgxpool.Pool
}

func scanRegistration(row scanner) (models.SeminarRegistration, error) {
	var g models.SeminarRegistration
	err := row.Scan(&g.ID, &g.SeminarID, &g.UserID, &g.UserEmail, &g.Plan, &g.AmountCents, &g.Currency,
		&g.PaymentStatus, &g.PaymentIntentID, &g.AttendanceStatus, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// Create inserts a registration. A duplicate (seminar, user) pair yields store.ErrConflict.
func (r *Registrations) Create(ctx context.Context, g *models.SeminarRegistration) error {
	assignID(&g.ID)
	const q = `INSERT INTO seminar_registrations (id, seminar_id, user_id, user_email, plan, amount_cents, currency,
		payment_status, payment_intent_id, attendance_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, g.ID, g.SeminarID, g.UserID, g.UserEmail, g.Plan, g.AmountCents, g.Currency,
		g.PaymentStatus, g.PaymentIntentID, g.AttendanceStatus).Scan(&g.CreatedAt, &g.UpdatedAt)
	return translate(err)
}

func (r *Registrations) findOne(ctx context.Context, where string, args ...any) (*models.SeminarRegistration, error) {
	g, err := scanRegistration(r.pool.QueryRow(ctx, `SELECT `+registrationCols+` FROM seminar_registrations `+where, args...))
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

// FindByID returns a registration by ID.
func (r *Registrations) FindByID(ctx context.Context, id uuid.UUID) (*models.SeminarRegistration, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUserAndSeminar returns the registration of a user for a seminar.
func (r *Registrations) FindByUserAndSeminar(ctx context.Context, userID string, seminarID uuid.UUID) (*models.SeminarRegistration, error) {
	return r.findOne(ctx, `WHERE user_id = $1 AND seminar_id = $2`, userID, seminarID)
}

// FindByPaymentIntent returns the registration paid by a payment intent.
func (r *Registrations) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*models.SeminarRegistration, error) {
	if paymentIntentID == "" {
		return nil, store.ErrNotFound
	}
	return r.findOne(ctx, `WHERE payment_intent_id = $1`, paymentIntentID)
}

// FindAll returns one page of registrations matching f and the total number of matches.
func (r *Registrations) FindAll(ctx context.Context, f store.RegistrationFilter) ([]models.SeminarRegistration, int, error) {
	var b query.SQL
	if f.SeminarID != nil {
		b.Eq("seminar_id", *f.SeminarID)
	}
	b.EqIf(f.UserID != "", "user_id", f.UserID)
	eqFold(&b, "payment_status", f.PaymentStatus)
	eqFold(&b, "attendance_status", f.AttendanceStatus)
	b.Search(f.Search, "user_email", "user_id")
	return list(ctx, r.pool, "seminar_registrations", registrationCols, &b,
		b.OrderBy(f.ListParams, registrationSorts, "created_at"), f.ListParams, scanRegistration)
}

// Update writes the mutable columns of g.
func (r *Registrations) Update(ctx context.Context, g *models.SeminarRegistration) error {
	const q = `UPDATE seminar_registrations SET user_email = $2, plan = $3, amount_cents = $4, currency = $5,
		payment_status = $6, payment_intent_id = $7, attendance_status = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, g.ID, g.UserEmail, g.Plan, g.AmountCents, g.Currency, g.PaymentStatus,
		g.PaymentIntentID, g.AttendanceStatus).Scan(&g.CreatedAt, &g.UpdatedAt)
	return translate(err)
}

// CountActive counts registrations of a seminar whose payment has not failed or been refunded.
func (r *Registrations) CountActive(ctx context.Context, seminarID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM seminar_registrations
		WHERE seminar_id = $1 AND payment_status NOT IN ('failed', 'refunded')`
	var n int
	err := r.pool.QueryRow(ctx, q, seminarID).Scan(&n)
	return n, err
}

// MarkNoShow moves still-registered attendees of a seminar to no_show.
func (r *Registrations) MarkNoShow(ctx context.Context, seminarID uuid.UUID) (int, error) {
	const q = `UPDATE seminar_registrations SET attendance_status = 'no_show', updated_at = NOW()
		WHERE seminar_id = $1 AND attendance_status = 'registered'`
	tag, err := r.pool.Exec(ctx, q, seminarID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
