package domain

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PackageKind string

const (
	PackageLike    PackageKind = "like"
	PackageDislike PackageKind = "dislike"
)

func (k PackageKind) Valid() bool { return k == PackageLike || k == PackageDislike }

type Provider string

const (
	ProviderPaystack Provider = "paystack"
	ProviderStripe   Provider = "stripe"
	ProviderViva     Provider = "viva"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseCompleted PurchaseStatus = "completed"
	PurchaseFailed    PurchaseStatus = "failed"
	PurchaseRefunded  PurchaseStatus = "refunded"
)

type Package struct {
	ID           uuid.UUID
	Kind         PackageKind
	Name         string
	Description  string
	PriceMinor   int64
	Currency     string
	RegularLikes int
	SuperLikes   int
	Boosters     int
	Unlikes      int
	Active       bool
	CreatedAt    time.Time
}

type Purchase struct {
	ID                uuid.UUID
	BuyerID           uuid.UUID
	RecipientID       *uuid.UUID
	PackageID         uuid.UUID
	Kind              PackageKind
	AmountMinor       int64
	Currency          string
	Provider          Provider
	Reference         string
	ProviderSessionID string
	Status            PurchaseStatus
	FailureReason     string
	CreatedAt         time.Time
	CompletedAt       *time.Time
}

// PurchaseReference is the merchant reference sent to providers.
func PurchaseReference(kind PackageKind, id uuid.UUID) string {
	return string(kind) + "_" + strings.ReplaceAll(id.String(), "-", "")
}

func (p *Purchase) IsGift() bool {
	return p.RecipientID != nil && *p.RecipientID != p.BuyerID
}

// Credit is a balance increment for one user.
type Credit struct {
	UserID     uuid.UUID
	Likes      int
	SuperLikes int
	Boosters   int
	Unlikes    int
}

func (c Credit) IsZero() bool {
	return c.Likes == 0 && c.SuperLikes == 0 && c.Boosters == 0 && c.Unlikes == 0
}

// Credits splits a package between buyer and recipient. A gifted like package
// gives the recipient the regular likes and keeps the extras with the buyer; a
// gifted dislike package goes entirely to the recipient.
func (p *Purchase) Credits(pkg Package) []Credit {
	if !p.IsGift() {
		return []Credit{{
			UserID:     p.BuyerID,
			Likes:      pkg.RegularLikes,
			SuperLikes: pkg.SuperLikes,
			Boosters:   pkg.Boosters,
			Unlikes:    pkg.Unlikes,
		}}
	}

	recipient := Credit{UserID: *p.RecipientID}
	buyer := Credit{UserID: p.BuyerID}
	if pkg.Kind == PackageDislike {
		recipient.Unlikes = pkg.Unlikes
		recipient.Likes = pkg.RegularLikes
	} else {
		recipient.Likes = pkg.RegularLikes
		recipient.Unlikes = pkg.Unlikes
		buyer.SuperLikes = pkg.SuperLikes
		buyer.Boosters = pkg.Boosters
	}

	credits := []Credit{recipient}
	if !buyer.IsZero() {
		credits = append(credits, buyer)
	}
	return credits
}

// CompletionResult reports the outcome of a pending to completed transition.
// Credited is false when another path already completed the purchase.
type CompletionResult struct {
	Purchase *Purchase
	Credits  []Credit
	Credited bool
}

type PaymentRepository interface {
	ListPackages(ctx context.Context, kind PackageKind) ([]Package, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	UpsertPackage(ctx context.Context, pkg Package) (*Package, error)

	CreatePurchase(ctx context.Context, p *Purchase) error
	SetProviderSession(ctx context.Context, id uuid.UUID, sessionID string) error
	GetPurchaseByReference(ctx context.Context, reference string) (*Purchase, error)
	GetPurchaseBySession(ctx context.Context, provider Provider, sessionID string) (*Purchase, error)
	ListPurchasesByBuyer(ctx context.Context, buyer uuid.UUID) ([]Purchase, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]Purchase, error)

	// CompletePurchase moves a pending purchase to completed and applies its
	// credits in the same transaction.
	CompletePurchase(ctx context.Context, reference string) (*CompletionResult, error)
	// FailPurchase moves a pending purchase to failed. Returns false if it was
	// no longer pending.
	FailPurchase(ctx context.Context, reference, reason string) (bool, error)

	// RecordEvent stores a webhook delivery. Returns false for a duplicate.
	RecordEvent(ctx context.Context, provider Provider, eventID, reference, eventType string) (bool, error)
	// ForgetEvent removes a recorded delivery whose processing failed.
	ForgetEvent(ctx context.Context, provider Provider, eventID string) error
}

type CheckoutRequest struct {
	Reference   string
	AmountMinor int64
	Currency    string
	Email       string
	Description string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// VerifyRequest identifies a payment at the provider. Providers use whichever
// field they understand.
type VerifyRequest struct {
	Reference     string
	SessionID     string
	TransactionID string
}

type Verification struct {
	Reference   string
	Paid        bool
	Failed      bool // definitively failed or expired
	AmountMinor int64
	Currency    string
	Status      string // raw provider status
}

type WebhookOutcome string

const (
	WebhookSucceeded WebhookOutcome = "succeeded"
	WebhookFailed    WebhookOutcome = "failed"
	WebhookIgnored   WebhookOutcome = "ignored"
)

type WebhookEvent struct {
	ID           string
	Type         string
	Outcome      WebhookOutcome
	Reference    string
	SessionID    string
	Verification *Verification
	Reason       string
}

type WebhookRequest struct {
	Header   http.Header
	Body     []byte
	RemoteIP string
}

type PaymentProvider interface {
	Name() Provider
	InitializeCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	Verify(ctx context.Context, req VerifyRequest) (*Verification, error)
	// ParseWebhook authenticates and decodes a delivery. ErrInvalidSignature
	// or ErrUnknownWebhookIP when authentication fails.
	ParseWebhook(ctx context.Context, req WebhookRequest) (*WebhookEvent, error)
}
