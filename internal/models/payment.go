package models

import (
	"time"

	"github.com/google/uuid"
)

// Refund records a Stripe refund issued against a seminar registration.
type Refund struct {
	ID               uuid.UUID `json:"id"`
	RegistrationID   uuid.UUID `json:"registration_id"`
	PaymentIntentID  string    `json:"payment_intent_id"`
	ProviderRefundID string    `json:"provider_refund_id"`
	AmountCents      int       `json:"amount_cents"`
	Currency         string    `json:"currency"`
	Reason           string    `json:"reason,omitempty"`
	Status           string    `json:"status"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}
