// Package stripe wraps the Stripe payments API used for paid seminar registrations.
package stripe

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
)

// Webhook event types the platform acts on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

var (
	ErrWebhookSecretMissing = errors.New("stripe webhook secret not configured")
	ErrInvalidSignature     = errors.New("invalid stripe webhook signature")
)

// PaymentIntent is a created payment intent.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// RefundRequest refunds part or all of a payment intent. Zero AmountCents refunds everything.
type RefundRequest struct {
	PaymentIntentID string
	AmountCents     int64
	Reason          string
	Metadata        map[string]string
}

// Refund is an issued refund.
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// Event is a verified webhook event reduced to what handlers need.
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	Metadata        map[string]string
}

// Client is the Stripe surface used by seminars and payments.
type Client interface {
	Mode() string
	PublishableKey() string
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// New returns the live client when a secret key is configured, the mock otherwise.
func New(cfg config.StripeConfig, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Configured() {
		logger.Warn("Stripe secret key not set, using mock client")
		return NewMock(cfg.PublishableKey)
	}
	logger.Info("Stripe client in live mode", zap.Bool("webhook_secret", cfg.WebhookSecret != ""))
	return NewLive(cfg, logger)
}

var (
	_ Client = (*Live)(nil)
	_ Client = (*Mock)(nil)
)
