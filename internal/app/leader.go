package app

import (
	"context"
	"log/slog"
)

// LeaderLock is a lease that at most one instance holds at a time.
type LeaderLock interface {
	TryAcquire(ctx context.Context) (bool, error)
	// Renew extends the lease and fails once another instance owns it.
	Renew(ctx context.Context) error
	Release(ctx context.Context) error
}

// leadership remembers whether this instance holds lock between ticks. A nil
// lock means every instance runs the job.
type leadership struct {
	name string
	lock LeaderLock
	held bool
}

// ensure renews a held lease or tries to take a free one. It reports whether
// this instance should run the job now.
func (l *leadership) ensure(ctx context.Context) bool {
	if l.lock == nil {
		return true
	}

	if l.held {
		err := l.lock.Renew(ctx)
		if err == nil {
			return true
		}
		slog.WarnContext(ctx, "Lost leadership", "job", l.name, "error", err)
		l.held = false
	}

	ok, err := l.lock.TryAcquire(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Leader election failed", "job", l.name, "error", err)
		return false
	}
	if ok {
		slog.InfoContext(ctx, "Acquired leadership", "job", l.name)
	}
	l.held = ok
	return ok
}

func (l *leadership) release(ctx context.Context) {
	if l.lock == nil || !l.held {
		return
	}
	if err := l.lock.Release(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to release leadership", "job", l.name, "error", err)
		return
	}
	l.held = false
	slog.InfoContext(ctx, "Released leadership", "job", l.name)
}
