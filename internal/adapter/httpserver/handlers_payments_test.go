package httpserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	apperrors "github.com/kennedy-ak/mooibanana-project/internal/platform/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhook_PassesRawDelivery(t *testing.T) {
	payload := []byte(`{"event":"charge.success","data":{"reference":"MB-1"}}`)
	var got domain.WebhookRequest
	var gotProvider domain.Provider
	payments := &mockPaymentService{
		webhookFn: func(_ context.Context, name domain.Provider, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
			gotProvider = name
			got = req
			return &domain.WebhookEvent{ID: "evt_1", Outcome: domain.WebhookSucceeded}, nil
		},
	}
	srv := newTestServer(t, Services{Payments: payments})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", "abc123")
	req.RemoteAddr = "52.31.139.75:443"
	rec := serve(srv, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "received", decodeJSON[map[string]string](t, rec)["status"])
	assert.Equal(t, domain.ProviderPaystack, gotProvider)
	assert.Equal(t, payload, got.Body)
	assert.Equal(t, "abc123", got.Header.Get("X-Paystack-Signature"))
	assert.Equal(t, "52.31.139.75", got.RemoteIP)
}

func TestWebhook_RemoteIP(t *testing.T) {
	tests := []struct {
		name       string
		proxies    string
		remoteAddr string
		forwarded  string
		wantIP     string
	}{
		{"forged header without proxy", "", "203.0.113.9:443", "10.1.2.3", "203.0.113.9"},
		{"forged header from untrusted peer", "10.0.0.0/8", "203.0.113.9:443", "52.31.139.75", "203.0.113.9"},
		{"private peer is not trusted by default", "192.0.2.0/24", "10.9.9.9:443", "52.31.139.75", "10.9.9.9"},
		{"trusted proxy", "10.0.0.0/8", "10.0.0.5:443", "52.31.139.75", "52.31.139.75"},
		{"client-supplied hop before trusted proxy", "10.0.0.0/8", "10.0.0.5:443", "10.1.2.3, 203.0.113.9", "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got domain.WebhookRequest
			payments := &mockPaymentService{
				webhookFn: func(_ context.Context, _ domain.Provider, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
					got = req
					return &domain.WebhookEvent{ID: "evt_1"}, nil
				},
			}
			cfg := testConfig()
			cfg.TrustedProxyCIDRs = tt.proxies
			srv := NewServer(cfg, Services{Payments: payments})

			req := httptest.NewRequest(http.MethodPost, "/webhooks/viva", strings.NewReader("{}"))
			req.RemoteAddr = tt.remoteAddr
			req.Header.Set("X-Forwarded-For", tt.forwarded)
			req.Header.Set("X-Real-IP", "10.1.2.3")
			rec := serve(srv, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantIP, got.RemoteIP)
		})
	}
}

func TestWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad signature", domain.ErrInvalidSignature, http.StatusBadRequest},
		{"unknown source", domain.ErrUnknownWebhookIP, http.StatusForbidden},
		{"provider disabled", domain.ErrProviderDisabled, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &mockPaymentService{
				webhookFn: func(context.Context, domain.Provider, domain.WebhookRequest) (*domain.WebhookEvent, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(t, Services{Payments: payments})

			rec := serve(srv, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}")))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	srv := newTestServer(t, Services{Payments: &mockPaymentService{}})

	body := bytes.Repeat([]byte("a"), maxWebhookBody+1)
	rec := serve(srv, httptest.NewRequest(http.MethodPost, "/webhooks/viva", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "webhook body too large", decodeJSON[apperrors.ErrorResponse](t, rec).Error)
}

func TestWebhookKeyHandshake(t *testing.T) {
	payments := &mockPaymentService{
		webhookKeyFn: func(_ context.Context, name domain.Provider) (string, error) {
			require.Equal(t, domain.ProviderViva, name)
			return "B3248B1B2A4F", nil
		},
	}
	srv := newTestServer(t, Services{Payments: payments})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/webhooks/viva", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B3248B1B2A4F", decodeJSON[map[string]string](t, rec)["Key"])
}

func TestCheckout_ErrorMapping(t *testing.T) {
	me := &domain.User{ID: uuid.New()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{"provider outage", fmt.Errorf("paystack checkout failed: %w: %w", domain.ErrProviderUnavailable, errors.New("503 service unavailable")), http.StatusBadGateway, apperrors.TypeExternal},
		{"database failure", errors.New("failed to create purchase: conn reset"), http.StatusInternalServerError, apperrors.TypeInternal},
		{"provider disabled", domain.ErrProviderDisabled, http.StatusBadRequest, apperrors.TypeValidation},
		{"structured", apperrors.NotFoundError("package not found"), http.StatusNotFound, apperrors.TypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := &mockPaymentService{
				checkoutFn: func(context.Context, app.CheckoutInput) (*app.CheckoutResult, error) {
					return nil, tt.err
				},
			}
			srv := newTestServer(t, Services{Accounts: accountsFor(me), Payments: payments})

			rec := serve(srv, authedRequest(t, srv, me.ID, http.MethodPost, "/api/checkout", map[string]string{
				"package_id": uuid.NewString(), "provider": "paystack",
			}))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, decodeJSON[apperrors.ErrorResponse](t, rec).Type)
		})
	}
}

func TestCheckout_GiftRecipient(t *testing.T) {
	me := &domain.User{ID: uuid.New()}
	friend := uuid.New()
	var got app.CheckoutInput
	payments := &mockPaymentService{
		checkoutFn: func(_ context.Context, in app.CheckoutInput) (*app.CheckoutResult, error) {
			got = in
			return &app.CheckoutResult{
				Purchase:    &domain.Purchase{ID: uuid.New(), Status: domain.PurchasePending, Provider: in.Provider},
				RedirectURL: "https://checkout.paystack.com/abc",
			}, nil
		},
	}
	srv := newTestServer(t, Services{Accounts: accountsFor(me), Payments: payments})

	rec := serve(srv, authedRequest(t, srv, me.ID, http.MethodPost, "/api/checkout", map[string]string{
		"package_id": uuid.NewString(), "provider": "paystack", "recipient_id": friend.String(),
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, me.ID, got.BuyerID)
	require.NotNil(t, got.RecipientID)
	assert.Equal(t, friend, *got.RecipientID)
	assert.Equal(t, "https://checkout.paystack.com/abc", decodeJSON[map[string]any](t, rec)["redirect_url"])
}

func TestPaymentCallback(t *testing.T) {
	t.Run("viva order code and transaction", func(t *testing.T) {
		var got app.CallbackParams
		payments := &mockPaymentService{
			callbackFn: func(_ context.Context, name domain.Provider, params app.CallbackParams) (*app.PaymentResult, error) {
				assert.Equal(t, domain.ProviderViva, name)
				got = params
				return &app.PaymentResult{
					Purchase: &domain.Purchase{ID: uuid.New(), Status: domain.PurchaseCompleted},
					Credits:  []domain.Credit{{UserID: uuid.New(), Likes: 10}},
					Credited: true,
				}, nil
			},
		}
		srv := newTestServer(t, Services{Payments: payments})

		rec := serve(srv, httptest.NewRequest(http.MethodGet, "/payments/viva/callback?s=1234567890&t=tx-9", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "1234567890", got.SessionID)
		assert.Equal(t, "tx-9", got.TransactionID)
		body := decodeJSON[map[string]any](t, rec)
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, true, body["credited"])
		assert.Len(t, body["credits"], 1)
	})

	t.Run("missing reference", func(t *testing.T) {
		srv := newTestServer(t, Services{Payments: &mockPaymentService{}})

		rec := serve(srv, httptest.NewRequest(http.MethodGet, "/payments/paystack/callback", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "paystack", decodeJSON[apperrors.ErrorResponse](t, rec).Context["provider"])
	})
}

func TestProvidersArePublic(t *testing.T) {
	srv := newTestServer(t, Services{Payments: &mockPaymentService{}})

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/api/payments/providers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"paystack"}, decodeJSON[map[string]any](t, rec)["providers"])
}
