package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aura-academy/backend/internal/vendors"
)

// Mock fakes Stripe for local development. Webhooks are accepted unsigned.
type Mock struct {
	publishable string

	mu      sync.Mutex
	intents map[string]PaymentIntent
}

// NewMock creates a mock client.
func NewMock(publishableKey string) *Mock {
	if publishableKey == "" {
		publishableKey = "pk_test_mock"
	}
	return &Mock{publishable: publishableKey, intents: make(map[string]PaymentIntent)}
}

func (m *Mock) Mode() string           { return vendors.ModeMock }
func (m *Mock) PublishableKey() string { return m.publishable }

func mockID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// CreatePaymentIntent records an intent awaiting payment.
func (m *Mock) CreatePaymentIntent(_ context.Context, amount int64, currency string, _ map[string]string) (*PaymentIntent, error) {
	id := mockID("pi_mock_")
	pi := PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_mock",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     strings.ToLower(currency),
	}
	m.mu.Lock()
	m.intents[id] = pi
	m.mu.Unlock()
	return &pi, nil
}

// Refund returns a succeeded refund for any intent.
func (m *Mock) Refund(_ context.Context, req RefundRequest) (*Refund, error) {
	if req.PaymentIntentID == "" {
		return nil, &vendors.APIError{Vendor: "stripe", Status: 400, Message: "payment_intent is required"}
	}
	amount := req.AmountCents
	m.mu.Lock()
	if pi, ok := m.intents[req.PaymentIntentID]; ok && amount == 0 {
		amount = pi.Amount
	}
	m.mu.Unlock()
	return &Refund{ID: mockID("re_mock_"), Status: "succeeded", Amount: amount}, nil
}

// ParseWebhook decodes an unsigned Stripe event body.
func (m *Mock) ParseWebhook(payload []byte, _ string) (*Event, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}
	if raw.Type == "" {
		return nil, fmt.Errorf("decode webhook: missing event type")
	}
	ev := &Event{ID: raw.ID, Type: raw.Type}
	if strings.HasPrefix(raw.Type, "payment_intent.") {
		ev.PaymentIntentID = raw.Data.Object.ID
		ev.Metadata = raw.Data.Object.Metadata
	}
	return ev, nil
}
