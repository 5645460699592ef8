package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/query"
	"github.com/aura-academy/backend/internal/store"
)

var registrationSorters = map[string]query.Less[models.SeminarRegistration]{
	"created_at": func(a, b models.SeminarRegistration) bool { return a.CreatedAt.Before(b.CreatedAt) },
	"amount":     func(a, b models.SeminarRegistration) bool { return a.AmountCents < b.AmountCents },
}

// Registrations is the in-memory registration repository.
type Registrations struct {
	t *table[models.SeminarRegistration]
}

// NewRegistrations creates an empty registration repository.
func NewRegistrations() *Registrations {
	return &Registrations{t: newTable[models.SeminarRegistration](nil)}
}

// Create stores r; a second registration for the same (user, seminar) is a conflict.
func (r *Registrations) Create(_ context.Context, reg *models.SeminarRegistration) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	for _, existing := range r.t.rows {
		if existing.UserID == reg.UserID && existing.SeminarID == reg.SeminarID {
			return store.ErrConflict
		}
	}
	assignID(&reg.ID)
	reg.CreatedAt = now()
	reg.UpdatedAt = reg.CreatedAt
	r.t.rows[reg.ID] = *reg
	return nil
}

// FindByID returns a copy of the registration.
func (r *Registrations) FindByID(_ context.Context, id uuid.UUID) (*models.SeminarRegistration, error) {
	reg, ok := r.t.get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	return &reg, nil
}

func (r *Registrations) findFirst(match func(models.SeminarRegistration) bool) (*models.SeminarRegistration, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	for _, reg := range r.t.rows {
		if match(reg) {
			found := reg
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

// FindByUserAndSeminar returns the registration of a user for a seminar.
func (r *Registrations) FindByUserAndSeminar(_ context.Context, userID string, seminarID uuid.UUID) (*models.SeminarRegistration, error) {
	return r.findFirst(func(reg models.SeminarRegistration) bool {
		return reg.UserID == userID && reg.SeminarID == seminarID
	})
}

// FindByPaymentIntent returns the registration paid by a Stripe payment intent.
func (r *Registrations) FindByPaymentIntent(_ context.Context, paymentIntentID string) (*models.SeminarRegistration, error) {
	if paymentIntentID == "" {
		return nil, store.ErrNotFound
	}
	return r.findFirst(func(reg models.SeminarRegistration) bool {
		return reg.PaymentIntentID == paymentIntentID
	})
}

// FindAll filters, sorts and pages registrations.
func (r *Registrations) FindAll(_ context.Context, f store.RegistrationFilter) ([]models.SeminarRegistration, int, error) {
	list, total := query.New[models.SeminarRegistration]().
		Where(func(reg models.SeminarRegistration) bool {
			return (f.SeminarID == nil || *f.SeminarID == reg.SeminarID) &&
				(f.UserID == "" || f.UserID == reg.UserID) &&
				query.EqualFold(f.PaymentStatus, reg.PaymentStatus) &&
				query.EqualFold(f.AttendanceStatus, reg.AttendanceStatus)
		}).
		Search(f.Search, func(reg models.SeminarRegistration) []string {
			return []string{reg.UserEmail, reg.UserID}
		}).
		Sort(f.ListParams, registrationSorters, "created_at").
		ThenBy(func(a, b models.SeminarRegistration) bool { return idLess(a.ID, b.ID) }).
		Paged(f.ListParams).
		Apply(r.t.all())
	return list, total, nil
}

// Update replaces the stored registration, keeping its creation time.
func (r *Registrations) Update(_ context.Context, reg *models.SeminarRegistration) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	old, ok := r.t.rows[reg.ID]
	if !ok {
		return store.ErrNotFound
	}
	reg.CreatedAt = old.CreatedAt
	reg.UpdatedAt = now()
	r.t.rows[reg.ID] = *reg
	return nil
}

// CountActive counts registrations of a seminar whose payment has not failed.
func (r *Registrations) CountActive(_ context.Context, seminarID uuid.UUID) (int, error) {
	r.t.mu.RLock()
	defer r.t.mu.RUnlock()
	n := 0
	for _, reg := range r.t.rows {
		if reg.SeminarID == seminarID && reg.PaymentStatus != models.PaymentStatusFailed &&
			reg.PaymentStatus != models.PaymentStatusRefunded {
			n++
		}
	}
	return n, nil
}

// MarkNoShow moves still-registered attendees of a seminar to no_show.
func (r *Registrations) MarkNoShow(_ context.Context, seminarID uuid.UUID) (int, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	n := 0
	ts := now()
	for id, reg := range r.t.rows {
		if reg.SeminarID == seminarID && reg.AttendanceStatus == models.AttendanceRegistered {
			reg.AttendanceStatus = models.AttendanceNoShow
			reg.UpdatedAt = ts
			r.t.rows[id] = reg
			n++
		}
	}
	return n, nil
}
