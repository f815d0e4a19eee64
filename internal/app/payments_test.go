package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// purchaseStore backs mockPaymentRepo with pending to completed semantics.
type purchaseStore struct {
	mu        sync.Mutex
	purchases map[string]*domain.Purchase
	events    map[string]bool
	credited  int
	pkg       domain.Package
}

func newPurchaseStore(pkg domain.Package) (*purchaseStore, *mockPaymentRepo) {
	s := &purchaseStore{
		purchases: make(map[string]*domain.Purchase),
		events:    make(map[string]bool),
		pkg:       pkg,
	}
	repo := &mockPaymentRepo{
		getPackageFn: func(_ context.Context, id uuid.UUID) (*domain.Package, error) {
			if id != s.pkg.ID {
				return nil, domain.ErrPackageNotFound
			}
			p := s.pkg
			return &p, nil
		},
		createPurchaseFn: func(_ context.Context, p *domain.Purchase) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			p.Status = domain.PurchasePending
			cp := *p
			s.purchases[p.Reference] = &cp
			return nil
		},
		setSessionFn: func(_ context.Context, id uuid.UUID, sessionID string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range s.purchases {
				if p.ID == id {
					p.ProviderSessionID = sessionID
				}
			}
			return nil
		},
		getByRefFn: func(_ context.Context, ref string) (*domain.Purchase, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			p, ok := s.purchases[ref]
			if !ok {
				return nil, domain.ErrPurchaseNotFound
			}
			cp := *p
			return &cp, nil
		},
		getBySessionFn: func(_ context.Context, provider domain.Provider, sessionID string) (*domain.Purchase, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range s.purchases {
				if p.Provider == provider && p.ProviderSessionID == sessionID {
					cp := *p
					return &cp, nil
				}
			}
			return nil, domain.ErrPurchaseNotFound
		},
		completeFn: func(_ context.Context, ref string) (*domain.CompletionResult, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			p, ok := s.purchases[ref]
			if !ok {
				return nil, domain.ErrPurchaseNotFound
			}
			if p.Status != domain.PurchasePending {
				cp := *p
				return &domain.CompletionResult{Purchase: &cp}, nil
			}
			p.Status = domain.PurchaseCompleted
			s.credited++
			cp := *p
			return &domain.CompletionResult{Purchase: &cp, Credits: cp.Credits(s.pkg), Credited: true}, nil
		},
		failFn: func(_ context.Context, ref, reason string) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			p, ok := s.purchases[ref]
			if !ok || p.Status != domain.PurchasePending {
				return false, nil
			}
			p.Status = domain.PurchaseFailed
			p.FailureReason = reason
			return true, nil
		},
		recordEventFn: func(_ context.Context, provider domain.Provider, eventID, _, _ string) (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			key := string(provider) + ":" + eventID
			if s.events[key] {
				return false, nil
			}
			s.events[key] = true
			return true, nil
		},
		forgetEventFn: func(_ context.Context, provider domain.Provider, eventID string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.events, string(provider)+":"+eventID)
			return nil
		},
	}
	return s, repo
}

func (s *purchaseStore) status(ref string) domain.PurchaseStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchases[ref].Status
}

type paymentFixture struct {
	svc      *PaymentService
	store    *purchaseStore
	provider *mockProvider
	notifier *recordingNotifier
	metrics  *metrics.PaymentMetrics
	clock    *clockwork.FakeClock
	buyer    *domain.User
	friend   *domain.User
	pkg      domain.Package
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		provider: &mockProvider{name: domain.ProviderPaystack},
		notifier: &recordingNotifier{},
		metrics:  metrics.NewPaymentMetrics(prometheus.NewRegistry()),
		clock:    clockwork.NewFakeClockAt(testNow),
		buyer:    &domain.User{ID: uuid.New(), Email: "buyer@x.com"},
		friend:   &domain.User{ID: uuid.New(), Email: "friend@x.com"},
		pkg: domain.Package{
			ID: uuid.New(), Kind: domain.PackageLike, Name: "Starter",
			PriceMinor: 1500, Currency: "GHS", RegularLikes: 10, SuperLikes: 2, Active: true,
		},
	}

	store, repo := newPurchaseStore(f.pkg)
	f.store = store
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			switch id {
			case f.buyer.ID:
				return f.buyer, nil
			case f.friend.ID:
				return f.friend, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	f.svc = NewPaymentService(repo, users, f.notifier, f.metrics, f.clock,
		PaymentConfig{AppURL: "https://mooibanana.test", PendingTTL: time.Hour}, f.provider)
	return f
}

func (f *paymentFixture) checkout(t *testing.T, recipient *uuid.UUID) *domain.Purchase {
	t.Helper()
	res, err := f.svc.Checkout(context.Background(), CheckoutInput{
		BuyerID: f.buyer.ID, PackageID: f.pkg.ID, Provider: domain.ProviderPaystack, RecipientID: recipient,
	})
	require.NoError(t, err)
	return res.Purchase
}

func (f *paymentFixture) paid(ref string, amount int64) {
	f.provider.verifyFn = func(context.Context, domain.VerifyRequest) (*domain.Verification, error) {
		return &domain.Verification{Reference: ref, Paid: true, AmountMinor: amount, Currency: "GHS", Status: "success"}, nil
	}
}

func TestCheckout_CreatesPendingPurchase(t *testing.T) {
	f := newPaymentFixture(t)
	var req domain.CheckoutRequest
	f.provider.checkoutFn = func(_ context.Context, r domain.CheckoutRequest) (*domain.CheckoutSession, error) {
		req = r
		return &domain.CheckoutSession{SessionID: "access_1", RedirectURL: "https://paystack.test/pay"}, nil
	}

	res, err := f.svc.Checkout(context.Background(), CheckoutInput{
		BuyerID: f.buyer.ID, PackageID: f.pkg.ID, Provider: domain.ProviderPaystack,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://paystack.test/pay", res.RedirectURL)
	assert.Equal(t, domain.PurchaseReference(domain.PackageLike, res.Purchase.ID), res.Purchase.Reference)
	assert.Equal(t, int64(1500), req.AmountMinor)
	assert.Equal(t, "buyer@x.com", req.Email)
	assert.Equal(t, "https://mooibanana.test/payments/paystack/callback", req.SuccessURL)
	assert.Equal(t, domain.PurchasePending, f.store.status(res.Purchase.Reference))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("paystack", "ok")))
}

func TestCheckout_ProviderErrorFailsPurchase(t *testing.T) {
	f := newPaymentFixture(t)
	f.provider.checkoutFn = func(context.Context, domain.CheckoutRequest) (*domain.CheckoutSession, error) {
		return nil, assert.AnError
	}

	_, err := f.svc.Checkout(context.Background(), CheckoutInput{
		BuyerID: f.buyer.ID, PackageID: f.pkg.ID, Provider: domain.ProviderPaystack,
	})
	require.ErrorIs(t, err, assert.AnError)
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)

	for ref := range f.store.purchases {
		assert.Equal(t, domain.PurchaseFailed, f.store.status(ref))
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Checkouts.WithLabelValues("paystack", "error")))
}

func TestCheckout_Rejections(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, CheckoutInput{BuyerID: f.buyer.ID, PackageID: f.pkg.ID, Provider: domain.ProviderStripe})
	assert.ErrorIs(t, err, domain.ErrProviderDisabled)

	_, err = f.svc.Checkout(ctx, CheckoutInput{BuyerID: f.buyer.ID, PackageID: uuid.New(), Provider: domain.ProviderPaystack})
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)

	self := f.buyer.ID
	_, err = f.svc.Checkout(ctx, CheckoutInput{BuyerID: f.buyer.ID, PackageID: f.pkg.ID, Provider: domain.ProviderPaystack, RecipientID: &self})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	ghost := uuid.New()
	_, err = f.svc.Checkout(ctx, CheckoutInput{BuyerID: f.buyer.ID, PackageID: f.pkg.ID, Provider: domain.ProviderPaystack, RecipientID: &ghost})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCallback_CompletesOnce(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.paid(p.Reference, p.AmountMinor)
	ctx := context.Background()

	res, err := f.svc.Callback(ctx, domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
	require.NoError(t, err)
	assert.True(t, res.Credited)
	assert.Equal(t, domain.PurchaseCompleted, res.Purchase.Status)

	// A replayed callback sees the completed purchase and credits nothing.
	res, err = f.svc.Callback(ctx, domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
	require.NoError(t, err)
	assert.False(t, res.Credited)
	assert.Equal(t, 1, f.store.credited)
}

func TestCallback_AmountMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.paid(p.Reference, p.AmountMinor-1)

	_, err := f.svc.Callback(context.Background(), domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)
	assert.Equal(t, domain.PurchaseFailed, f.store.status(p.Reference))
	assert.Equal(t, 0, f.store.credited)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Completions.WithLabelValues("paystack", SourceCallback, "mismatch")))
}

func TestCallback_MissingOrForeignCurrency(t *testing.T) {
	for _, currency := range []string{"", "EUR"} {
		t.Run("currency "+currency, func(t *testing.T) {
			f := newPaymentFixture(t)
			p := f.checkout(t, nil)
			f.provider.verifyFn = func(context.Context, domain.VerifyRequest) (*domain.Verification, error) {
				return &domain.Verification{Reference: p.Reference, Paid: true, AmountMinor: p.AmountMinor, Currency: currency}, nil
			}

			_, err := f.svc.Callback(context.Background(), domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
			assert.ErrorIs(t, err, domain.ErrAmountMismatch)
			assert.Equal(t, domain.PurchaseFailed, f.store.status(p.Reference))
			assert.Equal(t, 0, f.store.credited)
		})
	}
}

func TestCallback_VerifyOutage(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.provider.verifyFn = func(context.Context, domain.VerifyRequest) (*domain.Verification, error) {
		return nil, assert.AnError
	}

	_, err := f.svc.Callback(context.Background(), domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Equal(t, domain.PurchasePending, f.store.status(p.Reference))
}

func TestCallback_ReferenceMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.paid("like_someoneelse", p.AmountMinor)

	_, err := f.svc.Callback(context.Background(), domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
	assert.ErrorIs(t, err, domain.ErrPaymentNotVerified)
	assert.Equal(t, domain.PurchasePending, f.store.status(p.Reference))
}

func TestCallback_FailedPayment(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.provider.verifyFn = func(context.Context, domain.VerifyRequest) (*domain.Verification, error) {
		return &domain.Verification{Reference: p.Reference, Failed: true, Status: "abandoned"}, nil
	}

	res, err := f.svc.Callback(context.Background(), domain.ProviderPaystack, CallbackParams{Reference: p.Reference})
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseFailed, res.Purchase.Status)
}

func TestCallback_RequiresReference(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.Callback(context.Background(), domain.ProviderPaystack, CallbackParams{})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestComplete_GiftNotifiesRecipient(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, &f.friend.ID)

	res, err := f.svc.Complete(context.Background(), p.Reference, domain.Verification{
		Reference: p.Reference, Paid: true, AmountMinor: p.AmountMinor, Currency: "GHS",
	}, SourceWebhook)
	require.NoError(t, err)
	require.True(t, res.Credited)

	require.Len(t, f.notifier.sent, 1)
	n := f.notifier.sent[0]
	assert.Equal(t, domain.NotifyGiftReceived, n.Type)
	assert.Equal(t, f.friend.ID, n.ReceiverID)
	assert.Equal(t, f.buyer.ID, n.SenderID)
	assert.Equal(t, "You received 10 likes as a gift", n.Message)
}

func TestWebhook_DedupesEvents(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
		return &domain.WebhookEvent{
			ID: "evt_1", Type: "charge.success", Outcome: domain.WebhookSucceeded, Reference: p.Reference,
			Verification: &domain.Verification{Reference: p.Reference, Paid: true, AmountMinor: p.AmountMinor, Currency: "GHS"},
		}, nil
	}
	ctx := context.Background()

	for range 2 {
		_, err := f.svc.Webhook(ctx, domain.ProviderPaystack, domain.WebhookRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.store.credited)
	assert.Equal(t, domain.PurchaseCompleted, f.store.status(p.Reference))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.WebhookEvents.WithLabelValues("paystack", "succeeded")))
}

func TestWebhook_VerifiesWhenEventCarriesNoAmount(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.paid(p.Reference, p.AmountMinor)
	f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
		return &domain.WebhookEvent{ID: "evt_2", Outcome: domain.WebhookSucceeded, Reference: p.Reference}, nil
	}

	_, err := f.svc.Webhook(context.Background(), domain.ProviderPaystack, domain.WebhookRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseCompleted, f.store.status(p.Reference))
}

func TestWebhook_RetryAfterTransientFailure(t *testing.T) {
	f := newPaymentFixture(t)
	p := f.checkout(t, nil)
	f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
		return &domain.WebhookEvent{ID: "evt_9", Type: "charge.success", Outcome: domain.WebhookSucceeded, Reference: p.Reference}, nil
	}
	f.provider.verifyFn = func(context.Context, domain.VerifyRequest) (*domain.Verification, error) {
		return nil, assert.AnError
	}
	ctx := context.Background()

	_, err := f.svc.Webhook(ctx, domain.ProviderPaystack, domain.WebhookRequest{})
	require.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Empty(t, f.store.events, "failed delivery must not be remembered")
	assert.Equal(t, domain.PurchasePending, f.store.status(p.Reference))

	// The provider redelivers once it is reachable again.
	f.paid(p.Reference, p.AmountMinor)
	_, err = f.svc.Webhook(ctx, domain.ProviderPaystack, domain.WebhookRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseCompleted, f.store.status(p.Reference))
	assert.Equal(t, 1, f.store.credited)
	assert.Len(t, f.store.events, 1)
}

func TestWebhook_Outcomes(t *testing.T) {
	t.Run("rejected signature", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
			return nil, domain.ErrInvalidSignature
		}
		_, err := f.svc.Webhook(context.Background(), domain.ProviderPaystack, domain.WebhookRequest{})
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WebhookEvents.WithLabelValues("paystack", "rejected")))
	})

	t.Run("failed payment", func(t *testing.T) {
		f := newPaymentFixture(t)
		p := f.checkout(t, nil)
		f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
			return &domain.WebhookEvent{ID: "evt_3", Outcome: domain.WebhookFailed, Reference: p.Reference, Reason: "card declined"}, nil
		}
		_, err := f.svc.Webhook(context.Background(), domain.ProviderPaystack, domain.WebhookRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseFailed, f.store.status(p.Reference))
	})

	t.Run("unknown purchase is acknowledged", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
			return &domain.WebhookEvent{ID: "evt_4", Outcome: domain.WebhookSucceeded, Reference: "like_missing"}, nil
		}
		_, err := f.svc.Webhook(context.Background(), domain.ProviderPaystack, domain.WebhookRequest{})
		assert.NoError(t, err)
	})

	t.Run("ignored event", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.provider.parseWebhook = func(context.Context, domain.WebhookRequest) (*domain.WebhookEvent, error) {
			return &domain.WebhookEvent{ID: "evt_5", Outcome: domain.WebhookIgnored}, nil
		}
		ev, err := f.svc.Webhook(context.Background(), domain.ProviderPaystack, domain.WebhookRequest{})
		require.NoError(t, err)
		assert.Equal(t, domain.WebhookIgnored, ev.Outcome)
		assert.Empty(t, f.store.events)
	})
}

func TestProviders_StableOrder(t *testing.T) {
	svc := NewPaymentService(&mockPaymentRepo{}, &mockUserRepo{}, nil, nil, clockwork.NewFakeClock(), PaymentConfig{},
		&mockProvider{name: domain.ProviderViva}, &mockProvider{name: domain.ProviderPaystack})
	assert.Equal(t, []domain.Provider{domain.ProviderPaystack, domain.ProviderViva}, svc.Providers())
}
