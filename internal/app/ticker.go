package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/kennedy-ak/mooibanana-project/internal/platform/correlation"
)

const releaseTimeout = 5 * time.Second

// Task is one run of a periodic job.
type Task func(ctx context.Context) error

// Ticker runs a task on a fixed interval. With a leader lock, only the
// instance holding the lease runs it.
type Ticker struct {
	name     string
	interval time.Duration
	clock    clockwork.Clock
	task     Task
	leader   *leadership

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewTicker(name string, interval time.Duration, clock clockwork.Clock, lock LeaderLock, task Task) *Ticker {
	return &Ticker{
		name:     name,
		interval: interval,
		clock:    clock,
		task:     task,
		leader:   &leadership{name: name, lock: lock},
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called, then gives up
// leadership.
func (t *Ticker) Run(ctx context.Context) {
	defer close(t.done)

	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	slog.Info("Background job started", "job", t.name, "interval", t.interval)
	for {
		select {
		case <-ticker.Chan():
			t.tick(ctx)
		case <-t.stopCh:
			t.shutdown()
			return
		case <-ctx.Done():
			t.shutdown()
			return
		}
	}
}

func (t *Ticker) tick(ctx context.Context) {
	tickCtx := correlation.WithID(ctx, correlation.NewID())
	if !t.leader.ensure(tickCtx) {
		return
	}

	start := t.clock.Now()
	if err := t.task(tickCtx); err != nil {
		slog.ErrorContext(tickCtx, "Background job failed", "job", t.name, "error", err)
		return
	}
	slog.DebugContext(tickCtx, "Background job finished", "job", t.name, "duration", t.clock.Since(start))
}

func (t *Ticker) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	t.leader.release(ctx)
	slog.Info("Background job stopped", "job", t.name)
}

// Stop ends Run and waits for it to return. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	<-t.done
}
