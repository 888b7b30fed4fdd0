// Package poller refreshes a remote resource on a fixed interval until it is
// stopped. Results that arrive after the poller has been stopped are dropped,
// so a slow response can never overwrite state owned by a newer view.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Default refresh intervals.
const (
	OrderTrackingInterval = 5 * time.Second
	NotificationsInterval = 30 * time.Second
	DashboardInterval     = 5 * time.Minute
)

// Poller calls Fetch immediately and then every Interval. Successful results
// go to Commit, failures to OnError. Both callbacks run on the polling
// goroutine and only while the poller is live; they may call Stop.
type Poller[T any] struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
	Commit   func(T)
	OnError  func(error)

	stopped atomic.Bool

	mu     sync.Mutex // guards cancel
	cancel context.CancelFunc
}

// Run blocks until ctx is done or Stop is called.
func (p *Poller[T]) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	if p.stopped.Load() {
		return
	}

	p.tick(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Stop ends Run. A result still in flight is discarded; a callback that is
// already running on the polling goroutine finishes first.
func (p *Poller[T]) Stop() {
	p.stopped.Store(true)
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *Poller[T]) tick(ctx context.Context) {
	v, err := p.Fetch(ctx)
	if p.stopped.Load() || ctx.Err() != nil {
		return
	}
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}
		return
	}
	if p.Commit != nil {
		p.Commit(v)
	}
}
