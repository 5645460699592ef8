package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

const refundCols = `id, registration_id, payment_intent_id, provider_refund_id, amount_cents, currency, reason,
	status, created_by, created_at`

var refundSorts = map[string]string{
	"created_at": "created_at",
	"amount":     "amount_cents",
}

// Refunds handles the refund ledger.
type Refunds struct {
	pool *pgxpool.Pool
}

func scanRefund(row scanner) (models.Refund, error) {
	var f models.Refund
	err := row.Scan(&f.ID, &f.RegistrationID, &f.PaymentIntentID, &f.ProviderRefundID, &f.AmountCents, &f.Currency,
		&f.Reason, &f.Status, &f.CreatedBy, &f.CreatedAt)
	return f, err
}

// Create inserts a refund.
func (r *Refunds) Create(ctx context.Context, f *models.Refund) error {
	assignID(&f.ID)
	const q = `INSERT INTO refunds (id, registration_id, payment_intent_id, provider_refund_id, amount_cents,
		currency, reason, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`
	err := r.pool.QueryRow(ctx, q, f.ID, f.RegistrationID, f.PaymentIntentID, f.ProviderRefundID, f.AmountCents,
		f.Currency, f.Reason, f.Status, f.CreatedBy).Scan(&f.CreatedAt)
	return translate(err)
}

// FindAll returns one page of refunds matching f and the total number of matches.
func (r *Refunds) FindAll(ctx context.Context, f store.RefundFilter) ([]models.Refund, int, error) {
	var b query.SQL
	if f.RegistrationID != nil {
		b.Eq("registration_id", *f.RegistrationID)
	}
	b.Search(f.Search, "payment_intent_id", "reason")
	return list(ctx, r.pool, "refunds", refundCols, &b, b.OrderBy(f.ListParams, refundSorts, "created_at"),
		f.ListParams, scanRefund)
}
