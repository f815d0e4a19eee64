package payments

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const paystackBaseURL = "https://api.paystack.co"

type Paystack struct {
	api       *apiClient
	baseURL   string
	secretKey string
}

func NewPaystack(secretKey string, httpClient *http.Client, m *metrics.PaymentMetrics) *Paystack {
	return &Paystack{
		api:       newAPIClient(domain.ProviderPaystack, httpClient, m),
		baseURL:   paystackBaseURL,
		secretKey: secretKey,
	}
}

func (p *Paystack) Name() domain.Provider { return domain.ProviderPaystack }

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type paystackInit struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackTransaction struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (p *Paystack) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
}

func (p *Paystack) InitializeCheckout(ctx context.Context, in domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	payload, err := json.Marshal(map[string]any{
		"email":        in.Email,
		"amount":       in.AmountMinor,
		"currency":     in.Currency,
		"reference":    in.Reference,
		"callback_url": in.SuccessURL,
		"metadata":     in.Metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp paystackEnvelope[paystackInit]
	err = p.api.do(ctx, "initialize", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transaction/initialize", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		p.authorize(req)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack initialize rejected: %s", resp.Message)
	}

	return &domain.CheckoutSession{SessionID: resp.Data.AccessCode, RedirectURL: resp.Data.AuthorizationURL}, nil
}

func (p *Paystack) Verify(ctx context.Context, in domain.VerifyRequest) (*domain.Verification, error) {
	if in.Reference == "" {
		return nil, domain.Invalid("reference", "is required")
	}

	var resp paystackEnvelope[paystackTransaction]
	err := p.api.do(ctx, "verify", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/transaction/verify/"+url.PathEscape(in.Reference), nil)
		if err != nil {
			return nil, err
		}
		p.authorize(req)
		return req, nil
	}, &resp)
	if err != nil {
		return nil, err
	}
	return paystackVerification(resp.Data), nil
}

func paystackVerification(tx paystackTransaction) *domain.Verification {
	return &domain.Verification{
		Reference:   tx.Reference,
		Paid:        tx.Status == "success",
		Failed:      tx.Status == "failed" || tx.Status == "abandoned" || tx.Status == "reversed",
		AmountMinor: tx.Amount,
		Currency:    strings.ToUpper(tx.Currency),
		Status:      tx.Status,
	}
}

type paystackWebhook struct {
	Event string              `json:"event"`
	Data  paystackTransaction `json:"data"`
}

func (p *Paystack) ParseWebhook(_ context.Context, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
	if !validHexHMAC(sha512.New, p.secretKey, req.Body, req.Header.Get("x-paystack-signature")) {
		return nil, domain.ErrInvalidSignature
	}

	var hook paystackWebhook
	if err := json.Unmarshal(req.Body, &hook); err != nil {
		return nil, domain.Invalid("body", "malformed paystack event")
	}

	event := &domain.WebhookEvent{
		ID:        hook.Event + ":" + strconv.FormatInt(hook.Data.ID, 10),
		Type:      hook.Event,
		Reference: hook.Data.Reference,
	}
	switch hook.Event {
	case "charge.success":
		event.Outcome = domain.WebhookSucceeded
		event.Verification = paystackVerification(hook.Data)
	case "charge.failed":
		event.Outcome = domain.WebhookFailed
		event.Reason = "charge failed"
	default:
		event.Outcome = domain.WebhookIgnored
	}
	return event, nil
}
