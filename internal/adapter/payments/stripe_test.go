package payments

import (
	"context"
	"crypto/sha256"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stripeWebhookSecret = "whsec_test"

func stripeSignature(ts time.Time, body []byte) string {
	t := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + t + ",v1=" + hexHMAC(sha256.New, stripeWebhookSecret, []byte(t), []byte("."), body)
}

func TestStripe_InitializeCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "like_abc", r.PostForm.Get("client_reference_id"))
		assert.Equal(t, "eur", r.PostForm.Get("line_items[0][price_data][currency]"))
		assert.Equal(t, "999", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.stripe.com/c/cs_1"}`))
	}))
	defer srv.Close()

	s := NewStripe("sk_test", stripeWebhookSecret, srv.Client(), clockwork.NewRealClock(), nil)
	s.baseURL = srv.URL

	session, err := s.InitializeCheckout(context.Background(), domain.CheckoutRequest{
		Reference: "like_abc", AmountMinor: 999, Currency: "EUR", Description: "Starter",
		SuccessURL: "https://app/cb?session_id={CHECKOUT_SESSION_ID}",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.SessionID)
}

func TestStripe_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"cs_1","status":"complete","payment_status":"paid","amount_total":999,"currency":"eur","client_reference_id":"like_abc"}`))
	}))
	defer srv.Close()

	s := NewStripe("sk_test", stripeWebhookSecret, srv.Client(), clockwork.NewRealClock(), nil)
	s.baseURL = srv.URL

	v, err := s.Verify(context.Background(), domain.VerifyRequest{SessionID: "cs_1"})
	require.NoError(t, err)
	assert.True(t, v.Paid)
	assert.Equal(t, "like_abc", v.Reference)
	assert.Equal(t, "EUR", v.Currency)

	_, err = s.Verify(context.Background(), domain.VerifyRequest{})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestStripe_ParseWebhookSignature(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	s := NewStripe("sk_test", stripeWebhookSecret, nil, clock, nil)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"paid","amount_total":999,"currency":"eur","client_reference_id":"like_abc"}}}`)

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid", stripeSignature(now, body), true},
		{"within tolerance", stripeSignature(now.Add(-4*time.Minute), body), true},
		{"too old", stripeSignature(now.Add(-6*time.Minute), body), false},
		{"tampered", stripeSignature(now, []byte(`{}`)), false},
		{"no v1", "t=" + strconv.FormatInt(now.Unix(), 10), false},
		{"garbage", "nonsense", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			header.Set("Stripe-Signature", tt.header)
			event, err := s.ParseWebhook(context.Background(), domain.WebhookRequest{Header: header, Body: body})
			if !tt.ok {
				assert.ErrorIs(t, err, domain.ErrInvalidSignature)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "evt_1", event.ID)
			assert.Equal(t, domain.WebhookSucceeded, event.Outcome)
			assert.Equal(t, "like_abc", event.Reference)
			assert.Equal(t, "cs_1", event.SessionID)
		})
	}
}

func TestStripe_ParseWebhookOutcomes(t *testing.T) {
	now := time.Now()
	s := NewStripe("sk_test", stripeWebhookSecret, nil, clockwork.NewFakeClockAt(now), nil)

	tests := []struct {
		body string
		want domain.WebhookOutcome
	}{
		{`{"id":"e1","type":"checkout.session.completed","data":{"object":{"payment_status":"unpaid"}}}`, domain.WebhookIgnored},
		{`{"id":"e2","type":"checkout.session.expired","data":{"object":{"id":"cs_2"}}}`, domain.WebhookFailed},
		{`{"id":"e3","type":"customer.created","data":{"object":{}}}`, domain.WebhookIgnored},
	}
	for _, tt := range tests {
		body := []byte(tt.body)
		header := http.Header{}
		header.Set("Stripe-Signature", stripeSignature(now, body))
		event, err := s.ParseWebhook(context.Background(), domain.WebhookRequest{Header: header, Body: body})
		require.NoError(t, err)
		assert.Equal(t, tt.want, event.Outcome, tt.body)
	}
}
