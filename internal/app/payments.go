package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

// Completion sources, used as a metric label and in logs.
const (
	SourceCallback   = "callback"
	SourceWebhook    = "webhook"
	SourceReconciler = "reconciler"
)

type CheckoutInput struct {
	BuyerID     uuid.UUID
	PackageID   uuid.UUID
	Provider    domain.Provider
	RecipientID *uuid.UUID
}

type CheckoutResult struct {
	Purchase    *domain.Purchase
	RedirectURL string
}

// CallbackParams are the identifiers a provider appends to the return URL.
type CallbackParams struct {
	Reference     string
	SessionID     string
	TransactionID string
}

type PaymentResult struct {
	Purchase *domain.Purchase
	Credits  []domain.Credit
	Credited bool
}

// webhookKeyer is implemented by providers that verify webhook URLs with a
// GET handshake.
type webhookKeyer interface {
	WebhookKey(ctx context.Context) (string, error)
}

// PaymentService sells like packages through the configured providers and
// credits each purchase exactly once, whichever of callback, webhook or
// reconciler sees the payment first.
type PaymentService struct {
	repo       domain.PaymentRepository
	users      domain.UserRepository
	providers  map[domain.Provider]domain.PaymentProvider
	notifier   Notifier
	metrics    *metrics.PaymentMetrics
	clock      clockwork.Clock
	appURL     string
	pendingTTL time.Duration
}

type PaymentConfig struct {
	AppURL     string
	PendingTTL time.Duration
}

func NewPaymentService(
	repo domain.PaymentRepository,
	users domain.UserRepository,
	notifier Notifier,
	m *metrics.PaymentMetrics,
	clock clockwork.Clock,
	cfg PaymentConfig,
	providers ...domain.PaymentProvider,
) *PaymentService {
	byName := make(map[domain.Provider]domain.PaymentProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &PaymentService{
		repo:       repo,
		users:      users,
		providers:  byName,
		notifier:   notifier,
		metrics:    m,
		clock:      clock,
		appURL:     strings.TrimRight(cfg.AppURL, "/"),
		pendingTTL: cfg.PendingTTL,
	}
}

func (s *PaymentService) provider(name domain.Provider) (domain.PaymentProvider, error) {
	p, ok := s.providers[name]
	if !ok {
		return nil, domain.ErrProviderDisabled
	}
	return p, nil
}

// Providers lists the enabled provider names.
func (s *PaymentService) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(s.providers))
	for _, name := range []domain.Provider{domain.ProviderPaystack, domain.ProviderStripe, domain.ProviderViva} {
		if _, ok := s.providers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (s *PaymentService) ListPackages(ctx context.Context, kind domain.PackageKind) ([]domain.Package, error) {
	if kind == "" {
		kind = domain.PackageLike
	}
	if !kind.Valid() {
		return nil, domain.Invalid("kind", "must be like or dislike")
	}
	return s.repo.ListPackages(ctx, kind)
}

func (s *PaymentService) MyPurchases(ctx context.Context, buyer uuid.UUID) ([]domain.Purchase, error) {
	return s.repo.ListPurchasesByBuyer(ctx, buyer)
}

// Checkout records a pending purchase and opens a hosted payment page with
// the provider. A provider failure leaves the purchase failed, not deleted.
func (s *PaymentService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	provider, err := s.provider(in.Provider)
	if err != nil {
		return nil, err
	}
	pkg, err := s.repo.GetPackage(ctx, in.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, domain.ErrPackageNotFound
	}

	buyer, err := s.users.GetByID(ctx, in.BuyerID)
	if err != nil {
		return nil, err
	}
	if in.RecipientID != nil {
		if *in.RecipientID == in.BuyerID {
			return nil, domain.Invalid("recipient_id", "you cannot send a gift to yourself")
		}
		if _, err := s.users.GetByID(ctx, *in.RecipientID); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	purchase := &domain.Purchase{
		ID:          id,
		BuyerID:     in.BuyerID,
		RecipientID: in.RecipientID,
		PackageID:   pkg.ID,
		Kind:        pkg.Kind,
		AmountMinor: pkg.PriceMinor,
		Currency:    pkg.Currency,
		Provider:    in.Provider,
		Reference:   domain.PurchaseReference(pkg.Kind, id),
	}
	if err := s.repo.CreatePurchase(ctx, purchase); err != nil {
		return nil, err
	}

	callback := s.appURL + "/payments/" + string(in.Provider) + "/callback"
	session, err := provider.InitializeCheckout(ctx, domain.CheckoutRequest{
		Reference:   purchase.Reference,
		AmountMinor: purchase.AmountMinor,
		Currency:    purchase.Currency,
		Email:       buyer.Email,
		Description: pkg.Name,
		SuccessURL:  s.successURL(in.Provider, callback),
		CancelURL:   s.appURL + "/shop?cancelled=1",
		Metadata: map[string]string{
			"reference":   purchase.Reference,
			"purchase_id": purchase.ID.String(),
			"package_id":  pkg.ID.String(),
		},
	})
	if err != nil {
		s.countCheckout(in.Provider, "error")
		if _, failErr := s.repo.FailPurchase(ctx, purchase.Reference, "checkout failed: "+err.Error()); failErr != nil {
			slog.ErrorContext(ctx, "Failed to mark purchase failed", "reference", purchase.Reference, "error", failErr)
		}
		return nil, providerFailure(in.Provider, "checkout", err)
	}

	if session.SessionID != "" {
		if err := s.repo.SetProviderSession(ctx, purchase.ID, session.SessionID); err != nil {
			return nil, err
		}
		purchase.ProviderSessionID = session.SessionID
	}

	s.countCheckout(in.Provider, "ok")
	slog.InfoContext(ctx, "Checkout started",
		"provider", in.Provider,
		"reference", purchase.Reference,
		"amount_minor", purchase.AmountMinor,
		"gift", purchase.IsGift())
	return &CheckoutResult{Purchase: purchase, RedirectURL: session.RedirectURL}, nil
}

func (s *PaymentService) successURL(provider domain.Provider, callback string) string {
	if provider == domain.ProviderStripe {
		return callback + "?session_id={CHECKOUT_SESSION_ID}"
	}
	return callback
}

// Callback handles the buyer returning from the provider's page. The payment
// is always re-verified with the provider; query parameters are not trusted.
func (s *PaymentService) Callback(ctx context.Context, name domain.Provider, params CallbackParams) (*PaymentResult, error) {
	provider, err := s.provider(name)
	if err != nil {
		return nil, err
	}

	purchase, err := s.findPurchase(ctx, name, params.Reference, params.SessionID)
	if err != nil {
		return nil, err
	}
	if purchase.Status != domain.PurchasePending {
		return &PaymentResult{Purchase: purchase}, nil
	}

	sessionID := params.SessionID
	if sessionID == "" {
		sessionID = purchase.ProviderSessionID
	}
	v, err := provider.Verify(ctx, domain.VerifyRequest{
		Reference:     purchase.Reference,
		SessionID:     sessionID,
		TransactionID: params.TransactionID,
	})
	if err != nil {
		return nil, providerFailure(name, "verify", err)
	}
	if v.Reference != "" && v.Reference != purchase.Reference {
		return nil, domain.ErrPaymentNotVerified
	}

	switch {
	case v.Paid:
		return s.complete(ctx, purchase, *v, SourceCallback)
	case v.Failed:
		if _, err := s.repo.FailPurchase(ctx, purchase.Reference, "provider status "+v.Status); err != nil {
			return nil, err
		}
		return s.reload(ctx, purchase.Reference)
	default:
		return &PaymentResult{Purchase: purchase}, nil
	}
}

func (s *PaymentService) findPurchase(ctx context.Context, provider domain.Provider, reference, sessionID string) (*domain.Purchase, error) {
	if reference != "" {
		p, err := s.repo.GetPurchaseByReference(ctx, reference)
		if err != nil {
			return nil, err
		}
		if p.Provider != provider {
			return nil, domain.ErrPurchaseNotFound
		}
		return p, nil
	}
	if sessionID != "" {
		return s.repo.GetPurchaseBySession(ctx, provider, sessionID)
	}
	return nil, domain.Invalid("reference", "payment reference is required")
}

func (s *PaymentService) reload(ctx context.Context, reference string) (*PaymentResult, error) {
	p, err := s.repo.GetPurchaseByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return &PaymentResult{Purchase: p}, nil
}

// Complete credits the purchase identified by reference after the provider
// confirmed payment v.
func (s *PaymentService) Complete(ctx context.Context, reference string, v domain.Verification, source string) (*PaymentResult, error) {
	purchase, err := s.repo.GetPurchaseByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, purchase, v, source)
}

func (s *PaymentService) complete(ctx context.Context, purchase *domain.Purchase, v domain.Verification, source string) (*PaymentResult, error) {
	// A verification without a currency cannot prove the purchase was paid in full.
	if v.AmountMinor != purchase.AmountMinor || !strings.EqualFold(v.Currency, purchase.Currency) {
		reason := fmt.Sprintf("paid %d %s, expected %d %s", v.AmountMinor, v.Currency, purchase.AmountMinor, purchase.Currency)
		if _, err := s.repo.FailPurchase(ctx, purchase.Reference, reason); err != nil {
			return nil, err
		}
		s.countCompletion(purchase.Provider, source, "mismatch")
		slog.WarnContext(ctx, "Payment amount mismatch", "reference", purchase.Reference, "reason", reason)
		return nil, domain.ErrAmountMismatch
	}

	res, err := s.repo.CompletePurchase(ctx, purchase.Reference)
	if err != nil {
		return nil, err
	}

	if !res.Credited {
		s.countCompletion(purchase.Provider, source, "duplicate")
		return &PaymentResult{Purchase: res.Purchase}, nil
	}

	s.countCompletion(purchase.Provider, source, "credited")
	slog.InfoContext(ctx, "Purchase completed",
		"reference", purchase.Reference,
		"provider", purchase.Provider,
		"source", source)

	if res.Purchase.IsGift() {
		notifyQuietly(ctx, s.notifier, domain.NewNotification{
			SenderID:   res.Purchase.BuyerID,
			ReceiverID: *res.Purchase.RecipientID,
			Type:       domain.NotifyGiftReceived,
			Status:     domain.NotificationPending,
			Message:    giftMessage(res.Purchase.Kind, res.Credits, *res.Purchase.RecipientID),
		})
	}
	return &PaymentResult{Purchase: res.Purchase, Credits: res.Credits, Credited: true}, nil
}

func giftMessage(kind domain.PackageKind, credits []domain.Credit, recipient uuid.UUID) string {
	for _, c := range credits {
		if c.UserID != recipient {
			continue
		}
		if kind == domain.PackageDislike {
			return fmt.Sprintf("You received %d unlikes as a gift", c.Unlikes)
		}
		return fmt.Sprintf("You received %d likes as a gift", c.Likes)
	}
	return "You received a gift"
}

// WebhookKey answers a provider's GET verification handshake.
func (s *PaymentService) WebhookKey(ctx context.Context, name domain.Provider) (string, error) {
	provider, err := s.provider(name)
	if err != nil {
		return "", err
	}
	keyer, ok := provider.(webhookKeyer)
	if !ok {
		return "", domain.ErrProviderDisabled
	}
	key, err := keyer.WebhookKey(ctx)
	if err != nil {
		return "", providerFailure(name, "webhook key", err)
	}
	return key, nil
}

// Webhook authenticates and applies one provider delivery. Repeated
// deliveries of the same event are acknowledged without reprocessing; a
// delivery whose processing fails is picked up later by the reconciler.
func (s *PaymentService) Webhook(ctx context.Context, name domain.Provider, req domain.WebhookRequest) (*domain.WebhookEvent, error) {
	provider, err := s.provider(name)
	if err != nil {
		return nil, err
	}

	event, err := provider.ParseWebhook(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) || errors.Is(err, domain.ErrUnknownWebhookIP) {
			s.countWebhook(name, "rejected")
		}
		return nil, err
	}
	s.countWebhook(name, string(event.Outcome))

	if event.Outcome == domain.WebhookIgnored {
		return event, nil
	}

	if event.ID != "" {
		fresh, err := s.repo.RecordEvent(ctx, name, event.ID, event.Reference, event.Type)
		if err != nil {
			return nil, err
		}
		if !fresh {
			slog.InfoContext(ctx, "Duplicate webhook delivery", "provider", name, "event_id", event.ID)
			return event, nil
		}
	}

	if err := s.applyWebhook(ctx, provider, event); err != nil {
		// Forget the delivery so the provider's retry is processed again.
		if event.ID != "" {
			if forgetErr := s.repo.ForgetEvent(ctx, name, event.ID); forgetErr != nil {
				slog.ErrorContext(ctx, "Failed to forget webhook event", "provider", name, "event_id", event.ID, "error", forgetErr)
			}
		}
		return nil, err
	}
	return event, nil
}

func (s *PaymentService) applyWebhook(ctx context.Context, provider domain.PaymentProvider, event *domain.WebhookEvent) error {
	name := provider.Name()
	purchase, err := s.findPurchase(ctx, name, event.Reference, event.SessionID)
	if errors.Is(err, domain.ErrPurchaseNotFound) {
		slog.WarnContext(ctx, "Webhook for unknown purchase", "provider", name, "reference", event.Reference)
		return nil
	}
	if err != nil {
		return err
	}

	switch event.Outcome {
	case domain.WebhookSucceeded:
		v := event.Verification
		if v == nil {
			v, err = provider.Verify(ctx, domain.VerifyRequest{
				Reference: purchase.Reference,
				SessionID: purchase.ProviderSessionID,
			})
			if err != nil {
				return providerFailure(name, "verify", err)
			}
		}
		if !v.Paid {
			return nil
		}
		if _, err := s.complete(ctx, purchase, *v, SourceWebhook); err != nil && !errors.Is(err, domain.ErrAmountMismatch) {
			return err
		}
	case domain.WebhookFailed:
		reason := event.Reason
		if reason == "" {
			reason = event.Type
		}
		if _, err := s.repo.FailPurchase(ctx, purchase.Reference, reason); err != nil {
			return err
		}
	}
	return nil
}

// providerFailure marks err as an outage of the named provider.
func providerFailure(name domain.Provider, operation string, err error) error {
	return fmt.Errorf("%s %s failed: %w: %w", name, operation, domain.ErrProviderUnavailable, err)
}

func (s *PaymentService) countCheckout(provider domain.Provider, result string) {
	if s.metrics != nil {
		s.metrics.Checkouts.WithLabelValues(string(provider), result).Inc()
	}
}

func (s *PaymentService) countCompletion(provider domain.Provider, source, result string) {
	if s.metrics != nil {
		s.metrics.Completions.WithLabelValues(string(provider), source, result).Inc()
	}
}

func (s *PaymentService) countWebhook(provider domain.Provider, outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(string(provider), outcome).Inc()
	}
}
