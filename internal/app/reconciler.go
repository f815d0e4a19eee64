package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

const (
	// Purchases younger than this are left to the callback and webhook.
	reconcileMinAge    = 2 * time.Minute
	reconcileBatchSize = 100
)

type ReconcileReport struct {
	Checked   int
	Completed int
	Failed    int
}

// Reconcile re-verifies stale pending purchases with their provider. Paid ones
// are completed, expired ones failed. Per-purchase errors are logged and do
// not stop the batch.
func (s *PaymentService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	now := s.clock.Now()
	stale, err := s.repo.ListStalePending(ctx, now.Add(-reconcileMinAge), reconcileBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale purchases: %w", err)
	}

	report := &ReconcileReport{}
	for i := range stale {
		p := &stale[i]
		report.Checked++

		expired := s.pendingTTL > 0 && now.Sub(p.CreatedAt) > s.pendingTTL
		outcome, err := s.reconcileOne(ctx, p, expired)
		if err != nil {
			slog.WarnContext(ctx, "Reconcile failed for purchase",
				"reference", p.Reference,
				"provider", p.Provider,
				"error", err)
			continue
		}
		switch outcome {
		case domain.PurchaseCompleted:
			report.Completed++
		case domain.PurchaseFailed:
			report.Failed++
		}
	}

	if report.Checked > 0 {
		slog.InfoContext(ctx, "Reconciled pending purchases",
			"checked", report.Checked,
			"completed", report.Completed,
			"failed", report.Failed)
	}
	return report, nil
}

func (s *PaymentService) reconcileOne(ctx context.Context, p *domain.Purchase, expired bool) (domain.PurchaseStatus, error) {
	provider, ok := s.providers[p.Provider]
	if !ok {
		if expired {
			return s.expire(ctx, p, "expired: provider no longer enabled")
		}
		return domain.PurchasePending, nil
	}

	v, err := provider.Verify(ctx, domain.VerifyRequest{
		Reference: p.Reference,
		SessionID: p.ProviderSessionID,
	})
	if err != nil {
		if expired {
			return s.expire(ctx, p, "expired: "+err.Error())
		}
		return domain.PurchasePending, err
	}

	switch {
	case v.Paid:
		_, err := s.complete(ctx, p, *v, SourceReconciler)
		if errors.Is(err, domain.ErrAmountMismatch) {
			return domain.PurchaseFailed, nil
		}
		if err != nil {
			return domain.PurchasePending, err
		}
		return domain.PurchaseCompleted, nil
	case v.Failed:
		return s.expire(ctx, p, "provider status "+v.Status)
	case expired:
		return s.expire(ctx, p, "expired: unpaid after "+s.pendingTTL.String())
	}
	return domain.PurchasePending, nil
}

func (s *PaymentService) expire(ctx context.Context, p *domain.Purchase, reason string) (domain.PurchaseStatus, error) {
	changed, err := s.repo.FailPurchase(ctx, p.Reference, reason)
	if err != nil {
		return domain.PurchasePending, err
	}
	if !changed {
		// Completed or failed by another path since the listing.
		return domain.PurchasePending, nil
	}
	s.countCompletion(p.Provider, SourceReconciler, "failed")
	return domain.PurchaseFailed, nil
}
