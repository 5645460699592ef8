package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-academy/backend/config"
	"github.com/aura-academy/backend/internal/vendors"
)

const eventBody = `{"id":"evt_1","object":"event","type":"payment_intent.succeeded",
	"data":{"object":{"id":"pi_123","object":"payment_intent","metadata":{"registration_id":"r1"}}}}`

func TestNew_SelectsMode(t *testing.T) {
	assert.Equal(t, vendors.ModeMock, New(config.StripeConfig{}, nil).Mode())
	assert.Equal(t, vendors.ModeLive, New(config.StripeConfig{SecretKey: "sk_test_x"}, nil).Mode())
}

func TestMock_PaymentAndRefund(t *testing.T) {
	m := NewMock("")
	ctx := context.Background()

	pi, err := m.CreatePaymentIntent(ctx, 4900, "USD", nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pi.ID, "pi_mock_"))
	assert.Equal(t, "usd", pi.Currency)
	assert.Equal(t, "pk_test_mock", m.PublishableKey())

	r, err := m.Refund(ctx, RefundRequest{PaymentIntentID: pi.ID})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.ID, "re_mock_"))
	assert.Equal(t, int64(4900), r.Amount)
}

func TestMock_ParseWebhook(t *testing.T) {
	ev, err := NewMock("").ParseWebhook([]byte(eventBody), "")
	require.NoError(t, err)
	assert.Equal(t, EventPaymentSucceeded, ev.Type)
	assert.Equal(t, "pi_123", ev.PaymentIntentID)
	assert.Equal(t, "r1", ev.Metadata["registration_id"])

	_, err = NewMock("").ParseWebhook([]byte(`{}`), "")
	assert.Error(t, err)
}

func TestLive_ParseWebhookVerifiesSignature(t *testing.T) {
	l := NewLive(config.StripeConfig{SecretKey: "sk_test_x", WebhookSecret: "whsec_test"}, nil)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(eventBody),
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	ev, err := l.ParseWebhook(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", ev.PaymentIntentID)

	_, err = l.ParseWebhook(signed.Payload, "t=1,v1=bad")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	noSecret := NewLive(config.StripeConfig{SecretKey: "sk_test_x"}, nil)
	_, err = noSecret.ParseWebhook(signed.Payload, signed.Header)
	assert.ErrorIs(t, err, ErrWebhookSecretMissing)
}

func TestLive_CreatePaymentIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4900", r.Form.Get("amount"))
		assert.Equal(t, "r1", r.Form.Get("metadata[registration_id]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_live","object":"payment_intent","client_secret":"pi_live_secret",
			"status":"requires_payment_method","amount":4900,"currency":"usd"}`))
	}))
	defer srv.Close()

	backends := &stripeapi.Backends{
		API: stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
			URL:               stripeapi.String(srv.URL),
			MaxNetworkRetries: stripeapi.Int64(0),
		}),
	}
	l := newLive(config.StripeConfig{SecretKey: "sk_test_x"}, backends, nil)

	pi, err := l.CreatePaymentIntent(context.Background(), 4900, "usd", map[string]string{"registration_id": "r1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_live", pi.ID)
	assert.Equal(t, "pi_live_secret", pi.ClientSecret)
}
