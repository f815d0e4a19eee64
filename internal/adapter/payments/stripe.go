package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const (
	stripeBaseURL            = "https://api.stripe.com"
	stripeSignatureTolerance = 5 * time.Minute
)

type Stripe struct {
	api           *apiClient
	baseURL       string
	secretKey     string
	webhookSecret string
	clock         clockwork.Clock
}

func NewStripe(secretKey, webhookSecret string, httpClient *http.Client, clock clockwork.Clock, m *metrics.PaymentMetrics) *Stripe {
	return &Stripe{
		api:           newAPIClient(domain.ProviderStripe, httpClient, m),
		baseURL:       stripeBaseURL,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		clock:         clock,
	}
}

func (s *Stripe) Name() domain.Provider { return domain.ProviderStripe }

type stripeSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

func (s *Stripe) InitializeCheckout(ctx context.Context, in domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", in.Reference)
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	if in.Email != "" {
		form.Set("customer_email", in.Email)
	}
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(in.Currency))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", in.Description)
	form.Set("metadata[reference]", in.Reference)
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}
	encoded := form.Encode()

	// One key for every retry of this checkout.
	idempotencyKey := uuid.NewString()

	var session stripeSession
	err := s.api.do(ctx, "initialize", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/checkout/sessions", strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.secretKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Idempotency-Key", idempotencyKey)
		return req, nil
	}, &session)
	if err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, fmt.Errorf("stripe returned no checkout url for session %s", session.ID)
	}
	return &domain.CheckoutSession{SessionID: session.ID, RedirectURL: session.URL}, nil
}

func (s *Stripe) Verify(ctx context.Context, in domain.VerifyRequest) (*domain.Verification, error) {
	if in.SessionID == "" {
		return nil, domain.Invalid("session_id", "is required")
	}

	var session stripeSession
	err := s.api.do(ctx, "verify", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/checkout/sessions/"+url.PathEscape(in.SessionID), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.secretKey)
		return req, nil
	}, &session)
	if err != nil {
		return nil, err
	}
	return session.verification(), nil
}

func (s stripeSession) verification() *domain.Verification {
	ref := s.ClientReferenceID
	if ref == "" {
		ref = s.Metadata["reference"]
	}
	return &domain.Verification{
		Reference:   ref,
		Paid:        s.PaymentStatus == "paid",
		Failed:      s.Status == "expired",
		AmountMinor: s.AmountTotal,
		Currency:    strings.ToUpper(s.Currency),
		Status:      s.PaymentStatus,
	}
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object stripeSession `json:"object"`
	} `json:"data"`
}

func (s *Stripe) ParseWebhook(_ context.Context, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
	if err := s.verifySignature(req.Header.Get("Stripe-Signature"), req.Body); err != nil {
		return nil, err
	}

	var evt stripeEvent
	if err := json.Unmarshal(req.Body, &evt); err != nil {
		return nil, domain.Invalid("body", "malformed stripe event")
	}

	session := evt.Data.Object
	out := &domain.WebhookEvent{
		ID:        evt.ID,
		Type:      evt.Type,
		SessionID: session.ID,
		Reference: session.verification().Reference,
	}
	switch {
	case evt.Type == "checkout.session.completed" && session.PaymentStatus == "paid",
		evt.Type == "checkout.session.async_payment_succeeded":
		out.Outcome = domain.WebhookSucceeded
		out.Verification = session.verification()
	case evt.Type == "checkout.session.expired", evt.Type == "checkout.session.async_payment_failed":
		out.Outcome = domain.WebhookFailed
		out.Reason = strings.TrimPrefix(evt.Type, "checkout.session.")
	default:
		out.Outcome = domain.WebhookIgnored
	}
	return out, nil
}

// verifySignature checks the t=...,v1=... header against the signed payload
// "t.body". Any v1 entry may match so secret rolls keep working.
func (s *Stripe) verifySignature(header string, body []byte) error {
	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			timestamp = v
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return domain.ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	age := s.clock.Now().Sub(time.Unix(ts, 0))
	if age > stripeSignatureTolerance || age < -stripeSignatureTolerance {
		return domain.ErrInvalidSignature
	}

	expected := hexHMAC(sha256.New, s.webhookSecret, []byte(timestamp), []byte("."), body)
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			return nil
		}
	}
	return domain.ErrInvalidSignature
}
