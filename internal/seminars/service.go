// Package seminars manages live seminars hosted on Zoom and the registrations for them,
// including paid registrations checked out through Stripe.
package seminars

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/auth"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/realtime"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/vendors"
	"github.com/aura-academy/backend/internal/vendors/stripe"
	"github.com/aura-academy/backend/internal/vendors/zoom"
)

var (
	ErrSeminarNotFound      = errors.New("seminar not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrInvalidTransition    = errors.New("invalid seminar status transition")
	ErrSeminarClosed        = errors.New("seminar is not open for registration")
	ErrAlreadyRegistered    = errors.New("already registered for this seminar")
	ErrSeminarFull          = errors.New("seminar is full")
	ErrInvalidPlan          = errors.New("unknown registration plan")
	ErrVendor               = errors.New("vendor request failed")
)

var transitions = map[string][]string{
	models.SeminarStatusScheduled: {models.SeminarStatusLive, models.SeminarStatusCancelled},
	models.SeminarStatusLive:      {models.SeminarStatusCompleted, models.SeminarStatusCancelled},
}

// CanTransition reports whether a seminar may move between two statuses.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Options are the defaults applied to seminars and checkouts.
type Options struct {
	Currency string
	Timezone string
}

// Checkout is what a client needs to confirm a paid registration with Stripe.js.
type Checkout struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	PublishableKey  string `json:"publishable_key"`
	AmountCents     int    `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// StatusChange is published on the seminar topic.
type StatusChange struct {
	SeminarID uuid.UUID `json:"seminar_id"`
	Status    string    `json:"status"`
	NoShows   int       `json:"no_shows,omitempty"`
}

// Service holds the seminar rules.
type Service struct {
	seminars      store.Seminars
	registrations store.Registrations
	zoom          zoom.Client
	stripe        stripe.Client
	events        realtime.Publisher
	activity      activity.Recorder
	opts          Options
	logger        *zap.Logger

	seatLocks sync.Map // seminar id -> *sync.Mutex
}

// NewService creates a seminar service. events and rec may be nil.
func NewService(seminars store.Seminars, registrations store.Registrations, zc zoom.Client, sc stripe.Client,
	events realtime.Publisher, rec activity.Recorder, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.Timezone == "" {
		opts.Timezone = "UTC"
	}
	return &Service{
		seminars:      seminars,
		registrations: registrations,
		zoom:          zc,
		stripe:        sc,
		events:        events,
		activity:      rec,
		opts:          opts,
		logger:        logger,
	}
}

// Get returns a seminar.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Seminar, error) {
	sem, err := s.seminars.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSeminarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find seminar: %w", err)
	}
	return sem, nil
}

// List returns seminars matching f.
func (s *Service) List(ctx context.Context, f store.SeminarFilter) ([]models.Seminar, int, error) {
	return s.seminars.FindAll(ctx, f)
}

// Create stores a new scheduled seminar. With provision set, the Zoom meeting or webinar is
// created first and a Zoom failure leaves nothing behind.
func (s *Service) Create(ctx context.Context, sem *models.Seminar, provision bool) error {
	sem.Status = models.SeminarStatusScheduled
	if sem.ZoomType == "" {
		sem.ZoomType = models.ZoomTypeMeeting
	}
	if sem.Currency == "" {
		sem.Currency = s.opts.Currency
	}
	if provision {
		if err := s.provision(ctx, sem); err != nil {
			return err
		}
	}
	if err := s.seminars.Create(ctx, sem); err != nil {
		if sem.ZoomMeetingID != "" {
			s.deprovision(ctx, sem)
		}
		return fmt.Errorf("create seminar: %w", err)
	}
	s.logger.Info("seminar created",
		zap.String("seminar_id", sem.ID.String()),
		zap.Bool("zoom", sem.ZoomMeetingID != ""),
	)
	return nil
}

func (s *Service) provision(ctx context.Context, sem *models.Seminar) error {
	req := zoom.MeetingRequest{
		Topic:           sem.Title,
		Agenda:          sem.Description,
		StartTime:       sem.ScheduledAt,
		DurationMinutes: sem.DurationMinutes,
		Timezone:        s.opts.Timezone,
	}
	var (
		m   *zoom.Meeting
		err error
	)
	if sem.ZoomType == models.ZoomTypeWebinar {
		m, err = s.zoom.CreateWebinar(ctx, req)
	} else {
		m, err = s.zoom.CreateMeeting(ctx, req)
	}
	if err != nil {
		s.logger.Error("zoom provisioning failed", zap.String("type", sem.ZoomType), zap.Error(err))
		return fmt.Errorf("%w: zoom: %v", ErrVendor, err)
	}
	sem.ZoomMeetingID = m.ID
	sem.ZoomJoinURL = m.JoinURL
	sem.ZoomStartURL = m.StartURL
	sem.ZoomPassword = m.Password
	return nil
}

func (s *Service) deprovision(ctx context.Context, sem *models.Seminar) error {
	var err error
	if sem.ZoomType == models.ZoomTypeWebinar {
		err = s.zoom.DeleteWebinar(ctx, sem.ZoomMeetingID)
	} else {
		err = s.zoom.DeleteMeeting(ctx, sem.ZoomMeetingID)
	}
	if err != nil && !vendors.IsNotFound(err) {
		s.logger.Error("zoom delete failed", zap.String("zoom_id", sem.ZoomMeetingID), zap.Error(err))
		return fmt.Errorf("%w: zoom: %v", ErrVendor, err)
	}
	return nil
}

// Update persists edits to a seminar.
func (s *Service) Update(ctx context.Context, sem *models.Seminar) error {
	if err := s.seminars.Update(ctx, sem); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSeminarNotFound
		}
		return fmt.Errorf("update seminar: %w", err)
	}
	return nil
}

// Delete removes a seminar and its Zoom meeting. If Zoom refuses, the seminar is kept.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	sem, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sem.ZoomMeetingID != "" {
		if err := s.deprovision(ctx, sem); err != nil {
			return err
		}
	}
	if err := s.seminars.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete seminar: %w", err)
	}
	return nil
}

// SetStatus moves a seminar through scheduled -> live -> completed, or to cancelled.
// Completing a seminar marks attendees still "registered" as no_show.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Seminar, int, error) {
	sem, err := s.Get(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if !CanTransition(sem.Status, status) {
		return nil, 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sem.Status, status)
	}
	sem.Status = status
	if err := s.Update(ctx, sem); err != nil {
		return nil, 0, err
	}
	noShows := 0
	if status == models.SeminarStatusCompleted {
		if noShows, err = s.registrations.MarkNoShow(ctx, id); err != nil {
			return nil, 0, fmt.Errorf("mark no-shows: %w", err)
		}
	}
	s.logger.Info("seminar status changed",
		zap.String("seminar_id", id.String()),
		zap.String("status", status),
		zap.Int("no_shows", noShows),
	)
	if s.events != nil {
		s.events.Publish(realtime.SeminarTopic(id.String()), realtime.EventSeminarStatus,
			StatusChange{SeminarID: id, Status: status, NoShows: noShows})
	}
	return sem, noShows, nil
}

// reusable reports whether an earlier registration no longer holds a seat.
func reusable(r *models.SeminarRegistration) bool {
	return r.PaymentStatus == models.PaymentStatusFailed || r.PaymentStatus == models.PaymentStatusRefunded
}

// lockSeminar serializes seat reservations for one seminar and returns the unlock func.
func (s *Service) lockSeminar(id uuid.UUID) func() {
	m, _ := s.seatLocks.LoadOrStore(id, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Register signs the caller up. Free seats are confirmed at once; paid seats stay pending
// until Stripe reports the payment, and the returned Checkout carries the client secret.
// A registration whose payment failed or was refunded may be replaced by a new attempt.
func (s *Service) Register(ctx context.Context, seminarID uuid.UUID, caller *auth.Identity, plan string) (*models.SeminarRegistration, *Checkout, error) {
	if !models.ValidPlan(plan) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidPlan, plan)
	}
	reg, err := s.reserve(ctx, seminarID, caller, plan)
	if err != nil {
		return nil, nil, err
	}
	var checkout *Checkout
	if reg.AmountCents > 0 {
		if checkout, err = s.checkout(ctx, reg); err != nil {
			return nil, nil, err
		}
	}
	if s.activity != nil {
		s.activity.Log(ctx, caller.UserID, models.ActivitySeminarRegistered, "seminar", seminarID.String(),
			map[string]interface{}{"plan": plan, "amount_cents": reg.AmountCents})
	}
	return reg, checkout, nil
}

// reserve takes a seat under the seminar's lock. Paid seats are saved as pending.
func (s *Service) reserve(ctx context.Context, seminarID uuid.UUID, caller *auth.Identity, plan string) (*models.SeminarRegistration, error) {
	unlock := s.lockSeminar(seminarID)
	defer unlock()

	sem, err := s.Get(ctx, seminarID)
	if err != nil {
		return nil, err
	}
	if sem.Status == models.SeminarStatusCancelled || sem.Status == models.SeminarStatusCompleted {
		return nil, ErrSeminarClosed
	}
	existing, err := s.registrations.FindByUserAndSeminar(ctx, caller.UserID, seminarID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		existing = nil
	case err != nil:
		return nil, fmt.Errorf("find registration: %w", err)
	case !reusable(existing):
		return nil, ErrAlreadyRegistered
	}
	if sem.Capacity > 0 {
		taken, err := s.registrations.CountActive(ctx, seminarID)
		if err != nil {
			return nil, fmt.Errorf("count registrations: %w", err)
		}
		if taken >= sem.Capacity {
			return nil, ErrSeminarFull
		}
	}

	price := sem.PriceFor(plan)
	currency := strings.ToLower(sem.Currency)
	if currency == "" {
		currency = s.opts.Currency
	}
	reg := &models.SeminarRegistration{
		SeminarID:        seminarID,
		UserID:           caller.UserID,
		UserEmail:        caller.Email,
		Plan:             plan,
		AmountCents:      price,
		Currency:         currency,
		PaymentStatus:    models.PaymentStatusFree,
		AttendanceStatus: models.AttendanceRegistered,
	}
	if price > 0 {
		reg.PaymentStatus = models.PaymentStatusPending
	}
	if existing != nil {
		reg.ID = existing.ID
		reg.CreatedAt = existing.CreatedAt
		err = s.registrations.Update(ctx, reg)
	} else {
		err = s.registrations.Create(ctx, reg)
	}
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}
	return reg, nil
}

// checkout creates the PaymentIntent for a pending registration. If Stripe refuses, the
// registration is marked failed so the seat is released.
func (s *Service) checkout(ctx context.Context, reg *models.SeminarRegistration) (*Checkout, error) {
	pi, err := s.stripe.CreatePaymentIntent(ctx, int64(reg.AmountCents), reg.Currency, map[string]string{
		"seminar_id":      reg.SeminarID.String(),
		"registration_id": reg.ID.String(),
		"user_id":         reg.UserID,
		"plan":            reg.Plan,
	})
	if err != nil {
		s.logger.Error("stripe payment intent failed", zap.String("seminar_id", reg.SeminarID.String()), zap.Error(err))
		reg.PaymentStatus = models.PaymentStatusFailed
		if uerr := s.registrations.Update(ctx, reg); uerr != nil {
			s.logger.Error("release seat", zap.String("registration_id", reg.ID.String()), zap.Error(uerr))
		}
		return nil, fmt.Errorf("%w: stripe: %v", ErrVendor, err)
	}
	reg.PaymentIntentID = pi.ID
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("save payment intent: %w", err)
	}
	return &Checkout{
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		PublishableKey:  s.stripe.PublishableKey(),
		AmountCents:     reg.AmountCents,
		Currency:        reg.Currency,
	}, nil
}

func (s *Service) registration(ctx context.Context, id uuid.UUID) (*models.SeminarRegistration, error) {
	reg, err := s.registrations.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

// SetAttendance records whether a registrant attended.
func (s *Service) SetAttendance(ctx context.Context, id uuid.UUID, status string) (*models.SeminarRegistration, error) {
	reg, err := s.registration(ctx, id)
	if err != nil {
		return nil, err
	}
	reg.AttendanceStatus = status
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return reg, nil
}

// SetPaymentStatus overrides the payment status of a registration.
func (s *Service) SetPaymentStatus(ctx context.Context, id uuid.UUID, status string) (*models.SeminarRegistration, error) {
	reg, err := s.registration(ctx, id)
	if err != nil {
		return nil, err
	}
	reg.PaymentStatus = status
	if err := s.registrations.Update(ctx, reg); err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return reg, nil
}

// Registrations lists registrations matching f.
func (s *Service) Registrations(ctx context.Context, f store.RegistrationFilter) ([]models.SeminarRegistration, int, error) {
	return s.registrations.FindAll(ctx, f)
}
