package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/app"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/config"
	"github.com/stretchr/testify/require"
)

var errNotImplemented = errors.New("not implemented")

// --- Mock services ---

type mockAccountService struct {
	registerFn     func(ctx context.Context, req app.RegisterRequest) (*domain.User, error)
	loginFn        func(ctx context.Context, email, password string) (*domain.User, error)
	meFn           func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	requestResetFn func(ctx context.Context, email string) error
	confirmResetFn func(ctx context.Context, token, newPassword string) error
}

func (m *mockAccountService) Register(ctx context.Context, req app.RegisterRequest) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAccountService) Me(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.meFn != nil {
		return m.meFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAccountService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.requestResetFn != nil {
		return m.requestResetFn(ctx, email)
	}
	return errNotImplemented
}

func (m *mockAccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if m.confirmResetFn != nil {
		return m.confirmResetFn(ctx, token, newPassword)
	}
	return errNotImplemented
}

// accountsFor resolves every session to user.
func accountsFor(user *domain.User) *mockAccountService {
	return &mockAccountService{
		meFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			if id != user.ID {
				return nil, domain.ErrUserNotFound
			}
			return user, nil
		},
	}
}

type mockLedgerService struct {
	giveLikeFn    func(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error)
	giveUnlikeFn  func(ctx context.Context, from, to uuid.UUID) (*app.UnlikeResult, error)
	sendRequestFn func(ctx context.Context, from, to uuid.UUID) (*domain.Notification, error)
	respondFn     func(ctx context.Context, receiver, id uuid.UUID, accept bool) (*app.MatchResponse, error)
	matchesFn     func(ctx context.Context, userID uuid.UUID) ([]domain.MatchView, error)
}

func (m *mockLedgerService) GiveLike(ctx context.Context, from, to uuid.UUID, t domain.LikeType) (*domain.LikeOutcome, error) {
	if m.giveLikeFn != nil {
		return m.giveLikeFn(ctx, from, to, t)
	}
	return nil, errNotImplemented
}

func (m *mockLedgerService) GiveUnlike(ctx context.Context, from, to uuid.UUID) (*app.UnlikeResult, error) {
	if m.giveUnlikeFn != nil {
		return m.giveUnlikeFn(ctx, from, to)
	}
	return nil, errNotImplemented
}

func (m *mockLedgerService) MyLikes(context.Context, uuid.UUID) ([]domain.GivenLike, error) {
	return nil, nil
}

func (m *mockLedgerService) Matches(ctx context.Context, userID uuid.UUID) ([]domain.MatchView, error) {
	if m.matchesFn != nil {
		return m.matchesFn(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockLedgerService) SendMatchRequest(ctx context.Context, from, to uuid.UUID) (*domain.Notification, error) {
	if m.sendRequestFn != nil {
		return m.sendRequestFn(ctx, from, to)
	}
	return nil, errNotImplemented
}

func (m *mockLedgerService) RespondMatchRequest(ctx context.Context, receiver, id uuid.UUID, accept bool) (*app.MatchResponse, error) {
	if m.respondFn != nil {
		return m.respondFn(ctx, receiver, id, accept)
	}
	return nil, errNotImplemented
}

type mockPaymentService struct {
	checkoutFn   func(ctx context.Context, in app.CheckoutInput) (*app.CheckoutResult, error)
	callbackFn   func(ctx context.Context, name domain.Provider, params app.CallbackParams) (*app.PaymentResult, error)
	webhookKeyFn func(ctx context.Context, name domain.Provider) (string, error)
	webhookFn    func(ctx context.Context, name domain.Provider, req domain.WebhookRequest) (*domain.WebhookEvent, error)
	packagesFn   func(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error)
}

func (m *mockPaymentService) ListPackages(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error) {
	if m.packagesFn != nil {
		return m.packagesFn(ctx, kind)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentService) MyPurchases(context.Context, uuid.UUID) ([]domain.Purchase, error) {
	return nil, nil
}

func (m *mockPaymentService) Checkout(ctx context.Context, in app.CheckoutInput) (*app.CheckoutResult, error) {
	if m.checkoutFn != nil {
		return m.checkoutFn(ctx, in)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentService) Callback(ctx context.Context, name domain.Provider, params app.CallbackParams) (*app.PaymentResult, error) {
	if m.callbackFn != nil {
		return m.callbackFn(ctx, name, params)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentService) WebhookKey(ctx context.Context, name domain.Provider) (string, error) {
	if m.webhookKeyFn != nil {
		return m.webhookKeyFn(ctx, name)
	}
	return "", errNotImplemented
}

func (m *mockPaymentService) Webhook(ctx context.Context, name domain.Provider, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
	if m.webhookFn != nil {
		return m.webhookFn(ctx, name, req)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentService) Providers() []domain.Provider {
	return []domain.Provider{domain.ProviderPaystack}
}

type mockNotificationService struct {
	unreadCountFn func(ctx context.Context, userID uuid.UUID) (int, error)
	markReadFn    func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockNotificationService) List(context.Context, uuid.UUID, int) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (m *mockNotificationService) Unread(context.Context, uuid.UUID, int) ([]domain.Notification, error) {
	return []domain.Notification{}, nil
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.unreadCountFn != nil {
		return m.unreadCountFn(ctx, userID)
	}
	return 0, errNotImplemented
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, userID, id)
	}
	return errNotImplemented
}

func (m *mockNotificationService) MarkAllRead(context.Context, uuid.UUID) (int, error) {
	return 0, errNotImplemented
}

type mockAdminService struct {
	statsFn func(ctx context.Context) (map[domain.StatKey]int64, error)
}

func (m *mockAdminService) DashboardStats(ctx context.Context) (map[domain.StatKey]int64, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}
	return nil, errNotImplemented
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:        "development",
		AppURL:        "http://localhost:8080",
		SessionSecret: "test-secret-key-32-bytes-long!!!",
		SessionMaxAge: time.Hour,
	}
}

func newTestServer(t *testing.T, svc Services, opts ...Option) *Server {
	t.Helper()
	return NewServer(testConfig(), svc, opts...)
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

const testCSRFToken = "test-csrf-token"

// withCSRF attaches a matching cookie and header pair.
func withCSRF(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	return req
}

// withSession attaches a session cookie for userID.
func withSession(t *testing.T, srv *Server, req *http.Request, userID uuid.UUID) *http.Request {
	t.Helper()
	session, err := srv.sessionStore.New(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID.String()

	rec := httptest.NewRecorder()
	require.NoError(t, session.Save(req, rec))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
