package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const vivaTransactionPaymentCreated = 1796

// VivaEndpoints are the hosts for one Viva environment.
type VivaEndpoints struct {
	Accounts string // OAuth2 token issuer
	API      string // checkout and transactions API
	Web      string // hosted checkout and webhook key
}

var (
	VivaProduction = VivaEndpoints{
		Accounts: "https://accounts.vivapayments.com",
		API:      "https://api.vivapayments.com",
		Web:      "https://www.vivapayments.com",
	}
	VivaDemo = VivaEndpoints{
		Accounts: "https://demo-accounts.vivapayments.com",
		API:      "https://demo-api.vivapayments.com",
		Web:      "https://demo.vivapayments.com",
	}
)

type VivaConfig struct {
	ClientID     string
	ClientSecret string
	MerchantID   string
	APIKey       string
	SourceCode   string
	AllowedCIDRs []netip.Prefix
	Endpoints    VivaEndpoints
}

type Viva struct {
	api   *apiClient
	cfg   VivaConfig
	clock clockwork.Clock

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewViva(cfg VivaConfig, httpClient *http.Client, clock clockwork.Clock, m *metrics.PaymentMetrics) *Viva {
	if cfg.Endpoints == (VivaEndpoints{}) {
		cfg.Endpoints = VivaProduction
	}
	return &Viva{
		api:   newAPIClient(domain.ProviderViva, httpClient, m),
		cfg:   cfg,
		clock: clock,
	}
}

func (v *Viva) Name() domain.Provider { return domain.ProviderViva }

type vivaToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken caches the client-credentials token until a minute before expiry.
func (v *Viva) accessToken(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.token != "" && v.clock.Now().Before(v.tokenExpiry) {
		return v.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}.Encode()
	var tok vivaToken
	err := v.api.do(ctx, "token", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.Endpoints.Accounts+"/connect/token", strings.NewReader(form))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(v.cfg.ClientID, v.cfg.ClientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, &tok)
	if err != nil {
		return "", fmt.Errorf("viva token request failed: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("viva returned an empty access token")
	}

	v.token = tok.AccessToken
	v.tokenExpiry = v.clock.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return v.token, nil
}

// bearer builds an authenticated request. The token is fetched before the
// call so token refreshes do not nest inside the breaker.
func bearer(token, method, endpoint string, body []byte) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
}

type vivaOrder struct {
	OrderCode int64 `json:"orderCode"`
}

func (v *Viva) InitializeCheckout(ctx context.Context, in domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	order := map[string]any{
		"amount":       in.AmountMinor,
		"customerTrns": in.Description,
		"customer":     map[string]string{"email": in.Email},
		"sourceCode":   v.cfg.SourceCode,
		"merchantTrns": in.Reference,
	}
	if code := vivaCurrencyCode(in.Currency); code != "" {
		order["currencyCode"] = code
	}
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	token, err := v.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var created vivaOrder
	if err := v.api.do(ctx, "initialize", bearer(token, http.MethodPost, v.cfg.Endpoints.API+"/checkout/v2/orders", payload), &created); err != nil {
		return nil, err
	}
	if created.OrderCode == 0 {
		return nil, fmt.Errorf("viva returned no order code")
	}

	code := strconv.FormatInt(created.OrderCode, 10)
	return &domain.CheckoutSession{
		SessionID:   code,
		RedirectURL: v.cfg.Endpoints.Web + "/web/checkout?ref=" + code,
	}, nil
}

type vivaTransaction struct {
	StatusID     string  `json:"statusId"`
	Amount       float64 `json:"amount"`
	OrderCode    int64   `json:"orderCode"`
	MerchantTrns string  `json:"merchantTrns"`
	CurrencyCode string  `json:"currencyCode"`
}

// Verify looks the transaction up by id, or the order by its code when only
// the session is known. Viva reports amounts in major units.
func (v *Viva) Verify(ctx context.Context, in domain.VerifyRequest) (*domain.Verification, error) {
	if in.TransactionID == "" {
		if in.SessionID != "" {
			return v.verifyOrder(ctx, in.SessionID)
		}
		return nil, domain.Invalid("t", "transaction id is required")
	}

	token, err := v.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var tx vivaTransaction
	endpoint := v.cfg.Endpoints.API + "/checkout/v2/transactions/" + url.PathEscape(in.TransactionID)
	if err := v.api.do(ctx, "verify", bearer(token, http.MethodGet, endpoint, nil), &tx); err != nil {
		return nil, err
	}

	return &domain.Verification{
		Reference:   tx.MerchantTrns,
		Paid:        tx.StatusID == "F",
		Failed:      tx.StatusID == "E" || tx.StatusID == "X" || tx.StatusID == "R",
		AmountMinor: int64(math.Round(tx.Amount * 100)),
		Currency:    vivaCurrencyName(tx.CurrencyCode),
		Status:      tx.StatusID,
	}, nil
}

// Order states reported by the orders API.
const (
	vivaOrderPending  = 0
	vivaOrderExpired  = 1
	vivaOrderCanceled = 2
	vivaOrderPaid     = 3
)

type vivaOrderState struct {
	OrderCode     int64   `json:"OrderCode"`
	StateID       int     `json:"StateId"`
	RequestAmount float64 `json:"RequestAmount"`
	MerchantTrns  string  `json:"MerchantTrns"`
}

// verifyOrder reads the order state. The orders API reports no currency, so a
// paid order is confirmed through its settled transaction.
func (v *Viva) verifyOrder(ctx context.Context, orderCode string) (*domain.Verification, error) {
	var order vivaOrderState
	endpoint := v.cfg.Endpoints.Web + "/api/orders/" + url.PathEscape(orderCode)
	if err := v.api.do(ctx, "verify_order", v.merchantAuth(http.MethodGet, endpoint), &order); err != nil {
		return nil, err
	}

	verification := &domain.Verification{
		Reference:   order.MerchantTrns,
		Failed:      order.StateID == vivaOrderExpired || order.StateID == vivaOrderCanceled,
		AmountMinor: int64(math.Round(order.RequestAmount * 100)),
		Status:      "order_state_" + strconv.Itoa(order.StateID),
	}
	if order.StateID != vivaOrderPaid {
		return verification, nil
	}

	tx, err := v.settledTransaction(ctx, orderCode)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		// Paid but not settled yet; the caller checks again later.
		verification.Status += "_unsettled"
		return verification, nil
	}
	verification.Paid = true
	verification.AmountMinor = int64(math.Round(tx.Amount * 100))
	verification.Currency = vivaCurrencyName(tx.CurrencyCode)
	if tx.MerchantTrns != "" {
		verification.Reference = tx.MerchantTrns
	}
	return verification, nil
}

type vivaOrderTransactions struct {
	Transactions []struct {
		StatusID     string  `json:"StatusId"`
		Amount       float64 `json:"Amount"`
		CurrencyCode string  `json:"CurrencyCode"`
		MerchantTrns string  `json:"MerchantTrns"`
	} `json:"Transactions"`
}

// settledTransaction returns the successful transaction of an order, or nil.
func (v *Viva) settledTransaction(ctx context.Context, orderCode string) (*vivaTransaction, error) {
	var list vivaOrderTransactions
	endpoint := v.cfg.Endpoints.Web + "/api/transactions?ordercode=" + url.QueryEscape(orderCode)
	if err := v.api.do(ctx, "order_transactions", v.merchantAuth(http.MethodGet, endpoint), &list); err != nil {
		return nil, err
	}
	for _, tx := range list.Transactions {
		if tx.StatusID == "F" {
			return &vivaTransaction{
				StatusID:     tx.StatusID,
				Amount:       tx.Amount,
				MerchantTrns: tx.MerchantTrns,
				CurrencyCode: tx.CurrencyCode,
			}, nil
		}
	}
	return nil, nil
}

// merchantAuth builds requests for the legacy APIs, which use the merchant
// id and API key as basic auth.
func (v *Viva) merchantAuth(method, endpoint string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(v.cfg.MerchantID, v.cfg.APIKey)
		return req, nil
	}
}

type vivaWebhookKey struct {
	Key string `json:"Key"`
}

// WebhookKey fetches the verification key Viva expects the webhook URL to echo.
func (v *Viva) WebhookKey(ctx context.Context) (string, error) {
	var key vivaWebhookKey
	if err := v.api.do(ctx, "webhook_key", v.merchantAuth(http.MethodGet, v.cfg.Endpoints.Web+"/api/messages/config/token"), &key); err != nil {
		return "", err
	}
	return key.Key, nil
}

type vivaWebhook struct {
	EventTypeID int `json:"EventTypeId"`
	EventData   struct {
		TransactionID string `json:"TransactionId"`
		OrderCode     int64  `json:"OrderCode"`
		MerchantTrns  string `json:"MerchantTrns"`
		StatusID      string `json:"StatusId"`
	} `json:"EventData"`
}

// ParseWebhook only trusts the source address. The transaction is verified
// through the API before the event is reported as succeeded.
func (v *Viva) ParseWebhook(ctx context.Context, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
	if !allowedIP(req.RemoteIP, v.cfg.AllowedCIDRs) {
		return nil, domain.ErrUnknownWebhookIP
	}

	var hook vivaWebhook
	if err := json.Unmarshal(req.Body, &hook); err != nil {
		return nil, domain.Invalid("body", "malformed viva event")
	}

	data := hook.EventData
	event := &domain.WebhookEvent{
		ID:        strconv.Itoa(hook.EventTypeID) + ":" + data.TransactionID,
		Type:      strconv.Itoa(hook.EventTypeID),
		Reference: data.MerchantTrns,
		SessionID: strconv.FormatInt(data.OrderCode, 10),
		Outcome:   domain.WebhookIgnored,
	}
	if hook.EventTypeID != vivaTransactionPaymentCreated || data.TransactionID == "" {
		return event, nil
	}

	verification, err := v.Verify(ctx, domain.VerifyRequest{TransactionID: data.TransactionID})
	if err != nil {
		return nil, fmt.Errorf("viva transaction lookup failed: %w", err)
	}
	if verification.Reference != "" {
		event.Reference = verification.Reference
	}
	if verification.Paid {
		event.Outcome = domain.WebhookSucceeded
		event.Verification = verification
	}
	return event, nil
}

func allowedIP(raw string, prefixes []netip.Prefix) bool {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

var vivaCurrencies = map[string]string{
	"EUR": "978",
	"GBP": "826",
	"USD": "840",
	"RON": "946",
	"PLN": "985",
	"CZK": "203",
	"BGN": "975",
}

func vivaCurrencyCode(iso string) string {
	return vivaCurrencies[strings.ToUpper(iso)]
}

func vivaCurrencyName(numeric string) string {
	for name, code := range vivaCurrencies {
		if code == numeric {
			return name
		}
	}
	return ""
}
