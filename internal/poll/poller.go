// Package poll keeps a refreshable snapshot of a list of "currently active"
// resources, such as vehicles parked right now.
package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/loadstate"
)

const maxBackoff = 30 * time.Second

// FetchFunc returns the full current list.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a copy of the poller state handed to renderers.
type Snapshot[T any] struct {
	Items               []T
	Phase               loadstate.Phase
	Err                 string
	LastUpdated         time.Time
	ConsecutiveFailures int
}

// Loading reports whether at least one refresh is in flight.
func (s Snapshot[T]) Loading() bool {
	return s.Phase == loadstate.Loading
}

// IsOffline returns true when the API failed on several refreshes in a row.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Option configures a Poller.
type Option func(*options)

type options struct {
	log zerolog.Logger
	now func() time.Time
}

// WithLogger attaches a logger for refresh failures.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Poller fetches snapshots on activation and on demand.
//
// A successful refresh replaces the list and clears the error. A failed refresh
// records the error and clears the list, so a stale list is never shown next to
// an error. Refreshes may overlap; the one that completes last wins. After Close
// no result is applied.
type Poller[T any] struct {
	fetch FetchFunc[T]
	log   zerolog.Logger
	now   func() time.Time

	mu       sync.Mutex
	machine  loadstate.Machine
	items    []T
	err      string
	updated  time.Time
	failures int
	inflight int
	started  bool
	closed   bool
}

// New builds a Poller around fetch.
func New[T any](fetch FetchFunc[T], opts ...Option) *Poller[T] {
	o := options{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Poller[T]{fetch: fetch, log: o.log, now: o.now}
}

// Start begins the first refresh. It returns ok=false after the first call or
// once the poller is closed.
func (p *Poller[T]) Start() (func(context.Context) error, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return nil, false
	}
	p.started = true
	return p.beginLocked(), true
}

// Next marks a refresh as in flight and returns the function that performs it.
func (p *Poller[T]) Next() (func(context.Context) error, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, false
	}
	p.started = true
	return p.beginLocked(), true
}

// Refresh fetches a new snapshot and applies it.
func (p *Poller[T]) Refresh(ctx context.Context) error {
	run, ok := p.Next()
	if !ok {
		return nil
	}
	return run(ctx)
}

// Close stops the poller from applying any further results.
func (p *Poller[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Snapshot returns a copy of the current state.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Snapshot[T]{
		Items:               cloneItems(p.items),
		Phase:               p.machine.Phase(),
		Err:                 p.err,
		LastUpdated:         p.updated,
		ConsecutiveFailures: p.failures,
	}
}

// Run refreshes at a fixed cadence until ctx is cancelled or the poller is
// closed, backing off while refreshes keep failing. A non-positive interval
// disables periodic refresh and Run returns immediately.
func (p *Poller[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	for {
		_ = p.Refresh(ctx)

		p.mu.Lock()
		closed := p.closed
		failures := p.failures
		p.mu.Unlock()
		if closed {
			return
		}

		timer := time.NewTimer(calculateBackoff(failures, interval))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Poller[T]) beginLocked() func(context.Context) error {
	if p.machine.Phase() != loadstate.Loading {
		p.machine.To(loadstate.Loading)
	}
	p.inflight++
	return func(ctx context.Context) error {
		items, err := p.fetch(ctx)
		p.settle(items, err)
		return err
	}
}

func (p *Poller[T]) settle(items []T, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inflight--
	if p.closed {
		p.log.Debug().Msg("discarding refresh completed after close")
		return
	}

	if errors.Is(err, context.Canceled) {
		p.log.Debug().Msg("discarding refresh cancelled by its caller")
		if p.inflight == 0 {
			p.restoreLocked()
		}
		return
	}

	if err != nil {
		p.items = nil
		p.err = apperr.Message(err)
		p.failures++
		p.log.Warn().Err(err).Int("consecutive_failures", p.failures).Msg("refresh failed")
	} else {
		p.items = cloneItems(items)
		p.err = ""
		p.failures = 0
	}
	p.updated = p.now()

	if p.inflight == 0 {
		p.machine.Settle(err)
	}
}

// restoreLocked leaves Loading for the phase the last applied result implies.
func (p *Poller[T]) restoreLocked() {
	switch {
	case p.err != "":
		p.machine.To(loadstate.Errored)
	case !p.updated.IsZero():
		p.machine.To(loadstate.Loaded)
	default:
		p.machine.To(loadstate.Idle)
	}
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 || interval >= maxBackoff {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

func cloneItems[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
