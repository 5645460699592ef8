package memory

import (
	"context"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var refundSorters = map[string]query.Less[models.Refund]{
	"created_at": func(a, b models.Refund) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"amount":     func(a, b models.Refund) bool { return a.AmountCents < b.AmountCents },
}

// Refunds is the in-memory refund ledger.
type Refunds struct {
	t *table[models.Refund]
}

// NewRefunds creates an empty refund ledger.
func NewRefunds() *Refunds {
	return &Refunds{t: newTable[models.Refund](nil)}
}

// Create appends a refund.
func (r *Refunds) Create(_ context.Context, rf *models.Refund) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	assignID(&rf.ID)
	rf.CreatedAt = now()
	r.t.rows[rf.ID] = *rf
	return nil
}

// FindAll filters, sorts and pages refunds.
func (r *Refunds) FindAll(_ context.Context, f store.RefundFilter) ([]models.Refund, int, error) {
	list, total := query.New[models.Refund]().
		WhereIf(f.RegistrationID != nil, func(rf models.Refund) bool { return rf.RegistrationID == *f.RegistrationID }).
		Search(f.Search, func(rf models.Refund) []string { return []string{rf.PaymentIntentID, rf.Reason} }).
		Sort(f.ListParams, refundSorters, "created_at").
		ThenBy(func(a, b models.Refund) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}
