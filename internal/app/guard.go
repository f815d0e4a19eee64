package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kennedy-ak/mooibanana-project/internal/adapter/metrics"
	"github.com/kennedy-ak/mooibanana-project/internal/domain"
)

// Action names checked against the per-user rate limiter.
const (
	ActionLike     = "like"
	ActionUnlike   = "unlike"
	ActionPostLike = "post_like"
	ActionComment  = "comment"
	ActionMessage  = "message"
)

// ActionGuard rejects user actions that exceed the per-user rate limit. A nil
// limiter allows everything. Limiter failures fail open.
type ActionGuard struct {
	limiter domain.ActionRateLimiter
	metrics *metrics.LedgerMetrics
}

func NewActionGuard(limiter domain.ActionRateLimiter, m *metrics.LedgerMetrics) *ActionGuard {
	return &ActionGuard{limiter: limiter, metrics: m}
}

func (g *ActionGuard) Check(ctx context.Context, userID uuid.UUID, action string) error {
	if g == nil || g.limiter == nil {
		return nil
	}
	ok, err := g.limiter.Allow(ctx, userID, action)
	if err != nil {
		slog.WarnContext(ctx, "Rate limiter unavailable, allowing action", "action", action, "error", err)
		return nil
	}
	if !ok {
		if g.metrics != nil {
			g.metrics.RateLimited.WithLabelValues(action).Inc()
		}
		return domain.ErrRateLimited
	}
	return nil
}

// countInsufficient records a spend that bounced on the balance check.
func (g *ActionGuard) countInsufficient(action string, err error) {
	if g == nil || g.metrics == nil || !errors.Is(err, domain.ErrInsufficientBalance) {
		return
	}
	g.metrics.Insufficient.WithLabelValues(action).Inc()
}

// Notifier stores a notification and fans it out to connected clients.
type Notifier interface {
	Notify(ctx context.Context, n domain.NewNotification) (*domain.Notification, error)
}

// notifyQuietly sends n and logs instead of failing the caller. Used after a
// commit, when the primary operation already succeeded.
func notifyQuietly(ctx context.Context, notifier Notifier, n domain.NewNotification) {
	if notifier == nil {
		return
	}
	if _, err := notifier.Notify(ctx, n); err != nil {
		slog.WarnContext(ctx, "Failed to send notification",
			"type", n.Type,
			"receiver", n.ReceiverID,
			"error", err)
	}
}

// pageOffset converts a 1-based page into a row offset.
func pageOffset(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * size
}
