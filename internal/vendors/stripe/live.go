package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gobreaker "github.com/sony/gobreaker/v2"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/vendors"
)

// Live calls Stripe through stripe-go.
type Live struct {
	api           *client.API
	webhookSecret string
	publishable   string
	breaker       *gobreaker.CircuitBreaker[any]
	logger        *zap.Logger
}

// NewLive creates a live client.
func NewLive(cfg config.StripeConfig, logger *zap.Logger) *Live {
	return newLive(cfg, nil, logger)
}

func newLive(cfg config.StripeConfig, backends *stripeapi.Backends, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)
	return &Live{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		publishable:   cfg.PublishableKey,
		breaker:       vendors.NewBreaker[any]("stripe-api", logger),
		logger:        logger,
	}
}

func (l *Live) Mode() string           { return vendors.ModeLive }
func (l *Live) PublishableKey() string { return l.publishable }

// apiError converts stripe-go errors so client errors do not trip the breaker.
func apiError(err error) error {
	var se *stripeapi.Error
	if errors.As(err, &se) {
		return &vendors.APIError{Vendor: "stripe", Status: se.HTTPStatusCode, Message: se.Msg}
	}
	return err
}

// CreatePaymentIntent creates an intent with automatic payment methods.
func (l *Live) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	out, err := vendors.Execute(l.breaker, "stripe", "create_payment_intent", func() (any, error) {
		params := &stripeapi.PaymentIntentParams{
			Amount:   stripeapi.Int64(amount),
			Currency: stripeapi.String(strings.ToLower(currency)),
			AutomaticPaymentMethods: &stripeapi.PaymentIntentAutomaticPaymentMethodsParams{
				Enabled: stripeapi.Bool(true),
			},
		}
		params.Context = ctx
		for k, v := range metadata {
			params.AddMetadata(k, v)
		}
		pi, err := l.api.PaymentIntents.New(params)
		return pi, apiError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	pi := out.(*stripeapi.PaymentIntent)
	l.logger.Info("payment intent created", zap.String("payment_intent", pi.ID), zap.Int64("amount", pi.Amount))
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// Refund refunds a payment intent. The free-text reason travels as metadata.
func (l *Live) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	out, err := vendors.Execute(l.breaker, "stripe", "refund", func() (any, error) {
		params := &stripeapi.RefundParams{
			PaymentIntent: stripeapi.String(req.PaymentIntentID),
			Reason:        stripeapi.String(string(stripeapi.RefundReasonRequestedByCustomer)),
		}
		if req.AmountCents > 0 {
			params.Amount = stripeapi.Int64(req.AmountCents)
		}
		params.Context = ctx
		if req.Reason != "" {
			params.AddMetadata("reason", req.Reason)
		}
		for k, v := range req.Metadata {
			params.AddMetadata(k, v)
		}
		r, err := l.api.Refunds.New(params)
		return r, apiError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe refund: %w", err)
	}
	r := out.(*stripeapi.Refund)
	l.logger.Info("refund issued", zap.String("refund", r.ID), zap.String("payment_intent", req.PaymentIntentID))
	return &Refund{ID: r.ID, Status: string(r.Status), Amount: r.Amount}, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (l *Live) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if l.webhookSecret == "" {
		return nil, ErrWebhookSecretMissing
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, l.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && ev.Data != nil {
		var pi stripeapi.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
		out.Metadata = pi.Metadata
	}
	return out, nil
}
