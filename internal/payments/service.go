// Package payments issues Stripe refunds for seminar registrations and applies Stripe webhook
// events to registration payment state.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/internal/activity"
	"github.com/aura-academy/backend/internal/models"
	"github.com/aura-academy/backend/internal/store"
	"github.com/aura-academy/backend/internal/vendors/stripe"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotRefundable        = errors.New("registration has no paid payment to refund")
	ErrAmountTooLarge       = errors.New("refund amount exceeds the paid amount")
	ErrVendor               = errors.New("payment provider request failed")
)

// RefundRequest is the body for POST /stripe/refund.
type RefundRequest struct {
	RegistrationID uuid.UUID `json:"registration_id" binding:"required"`
	AmountCents    int       `json:"amount_cents" binding:"min=0"`
	Reason         string    `json:"reason" binding:"max=500"`
}

// Service applies refunds and webhook events.
type Service struct {
	registrations store.Registrations
	refunds       store.Refunds
	stripe        stripe.Client
	activity      activity.Recorder
	logger        *zap.Logger
}

// NewService creates a payment service. rec may be nil.
func NewService(registrations store.Registrations, refunds store.Refunds, sc stripe.Client,
	rec activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registrations: registrations, refunds: refunds, stripe: sc, activity: rec, logger: logger}
}

// Refund refunds a paid registration in full or in part and marks it refunded.
func (s *Service) Refund(ctx context.Context, adminID string, req RefundRequest) (*models.Refund, error) {
	reg, err := s.registrations.FindByID(ctx, req.RegistrationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	if reg.PaymentStatus != models.PaymentStatusPaid || reg.PaymentIntentID == "" {
		return nil, ErrNotRefundable
	}
	amount := req.AmountCents
	if amount == 0 {
		amount = reg.AmountCents
	}
	if amount > reg.AmountCents {
		return nil, ErrAmountTooLarge
	}

	out, err := s.stripe.Refund(ctx, stripe.RefundRequest{
		PaymentIntentID: reg.PaymentIntentID,
		AmountCents:     int64(amount),
		Reason:          req.Reason,
		Metadata: map[string]string{
			"registration_id": reg.ID.String(),
			"refunded_by":     adminID,
		},
	})
	if err != nil {
		s.logger.Error("stripe refund failed", zap.String("registration_id", reg.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrVendor, err)
	}

	refund := &models.Refund{
		RegistrationID:   reg.ID,
		PaymentIntentID:  reg.PaymentIntentID,
		ProviderRefundID: out.ID,
		AmountCents:      amount,
		Currency:         reg.Currency,
		Reason:           req.Reason,
		Status:           out.Status,
		CreatedBy:        adminID,
	}
	// The money has moved at this point; storage failures are logged, not surfaced.
	if err := s.refunds.Create(ctx, refund); err != nil {
		s.logger.Error("store refund", zap.String("provider_refund_id", out.ID), zap.Error(err))
	}
	reg.PaymentStatus = models.PaymentStatusRefunded
	if err := s.registrations.Update(ctx, reg); err != nil {
		s.logger.Error("mark registration refunded", zap.String("registration_id", reg.ID.String()), zap.Error(err))
	}
	s.logger.Info("refund issued",
		zap.String("registration_id", reg.ID.String()),
		zap.String("provider_refund_id", out.ID),
		zap.Int("amount_cents", amount),
	)
	if s.activity != nil {
		s.activity.Log(ctx, reg.UserID, models.ActivityRefundIssued, "registration", reg.ID.String(),
			map[string]interface{}{"amount_cents": amount, "refund_id": out.ID, "by": adminID})
	}
	return refund, nil
}

// Refunds lists issued refunds.
func (s *Service) Refunds(ctx context.Context, f store.RefundFilter) ([]models.Refund, int, error) {
	return s.refunds.FindAll(ctx, f)
}

// ParseWebhook verifies and decodes a Stripe webhook body.
func (s *Service) ParseWebhook(payload []byte, signature string) (*stripe.Event, error) {
	return s.stripe.ParseWebhook(payload, signature)
}

// ApplyEvent moves the registration paid by the event's payment intent. It reports whether the
// event changed anything. A refunded registration is never moved back to paid, and a payment
// failure only affects registrations still pending.
func (s *Service) ApplyEvent(ctx context.Context, ev *stripe.Event) (bool, error) {
	var next string
	switch ev.Type {
	case stripe.EventPaymentSucceeded:
		next = models.PaymentStatusPaid
	case stripe.EventPaymentFailed:
		next = models.PaymentStatusFailed
	default:
		return false, nil
	}
	reg, err := s.registrations.FindByPaymentIntent(ctx, ev.PaymentIntentID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("webhook for unknown payment intent",
			zap.String("event_id", ev.ID),
			zap.String("payment_intent", ev.PaymentIntentID),
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find registration: %w", err)
	}
	switch {
	case reg.PaymentStatus == next:
		return false, nil
	case reg.PaymentStatus == models.PaymentStatusRefunded:
		return false, nil
	case next == models.PaymentStatusFailed && reg.PaymentStatus != models.PaymentStatusPending:
		return false, nil
	}
	reg.PaymentStatus = next
	if err := s.registrations.Update(ctx, reg); err != nil {
		return false, fmt.Errorf("update registration: %w", err)
	}
	s.logger.Info("registration payment updated",
		zap.String("registration_id", reg.ID.String()),
		zap.String("event", ev.Type),
		zap.String("payment_status", next),
	)
	return true, nil
}
