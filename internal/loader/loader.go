package loader

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/loadstate"
)

// DefaultLimit is the page size used when none is configured.
const DefaultLimit = 10

// PageRequest describes an offset/limit page.
type PageRequest struct {
	Skip  int
	Limit int
}

// FetchFunc returns one page of items.
type FetchFunc[T any] func(ctx context.Context, req PageRequest) ([]T, error)

// State is a point-in-time copy of a Loader.
type State[T any] struct {
	Items   []T
	Phase   loadstate.Phase
	Err     string
	HasMore bool
}

// Loading reports whether a fetch is in flight.
func (s State[T]) Loading() bool {
	return s.Phase == loadstate.Loading
}

// Option configures a Loader.
type Option func(*options)

type options struct {
	limit int
	log   zerolog.Logger
}

// WithLimit sets the page size. Non-positive values keep the default.
func WithLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.limit = limit
		}
	}
}

// WithLogger attaches a logger for page loads and failures.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Loader pages through a list on demand. Fetches are serialized: while one is in
// flight every further request is a no-op.
type Loader[T any] struct {
	fetch FetchFunc[T]
	limit int
	log   zerolog.Logger

	mu      sync.Mutex
	machine loadstate.Machine
	items   []T
	err     string
	hasMore bool
	started bool
	gen     uint64
	// stale is set while a fetch started before the last Reset is running.
	stale bool
}

// New builds a Loader around fetch.
func New[T any](fetch FetchFunc[T], opts ...Option) *Loader[T] {
	o := options{limit: DefaultLimit, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Loader[T]{
		fetch:   fetch,
		limit:   o.limit,
		log:     o.log,
		hasMore: true,
	}
}

// Limit returns the page size.
func (l *Loader[T]) Limit() int {
	return l.limit
}

// State returns a copy of the current state.
func (l *Loader[T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	var items []T
	if len(l.items) > 0 {
		items = make([]T, len(l.items))
		copy(items, l.items)
	}
	return State[T]{
		Items:   items,
		Phase:   l.machine.Phase(),
		Err:     l.err,
		HasMore: l.hasMore,
	}
}

// Start reserves the initial page the first time it is called.
func (l *Loader[T]) Start() (func(context.Context) error, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil, false
	}
	return l.reserveLocked()
}

// Next reserves the next page and returns the function that fetches and applies
// it. The loader reports Loading as soon as Next returns. ok is false when a
// fetch is already in flight or the list is exhausted.
func (l *Loader[T]) Next() (run func(context.Context) error, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserveLocked()
}

// LoadMore fetches and applies the next page. It returns the fetch error, which
// is also recorded in State.Err, and nil when there was nothing to do.
func (l *Loader[T]) LoadMore(ctx context.Context) error {
	run, ok := l.Next()
	if !ok {
		return nil
	}
	return run(ctx)
}

// OnSentinel is called with the sentinel's visibility. A visible sentinel
// reserves the next page like Next.
func (l *Loader[T]) OnSentinel(visible bool) (func(context.Context) error, bool) {
	if !visible {
		return nil, false
	}
	return l.Next()
}

// Reset drops every loaded item and re-arms the initial load. A fetch that is in
// flight keeps running but its result is discarded, and the loader stays Loading
// until it returns so that fetches never overlap.
func (l *Loader[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gen++
	l.items = nil
	l.err = ""
	l.hasMore = true
	l.started = false
	if l.machine.Phase() == loadstate.Loading {
		l.stale = true
		return
	}
	l.machine.To(loadstate.Idle)
}

func (l *Loader[T]) reserveLocked() (func(context.Context) error, bool) {
	if !l.hasMore || l.stale {
		return nil, false
	}
	if !l.machine.To(loadstate.Loading) {
		return nil, false
	}
	l.started = true
	req := PageRequest{Skip: len(l.items), Limit: l.limit}
	gen := l.gen
	return func(ctx context.Context) error {
		page, err := l.fetch(ctx, req)
		if !l.settle(gen, req, page, err) {
			return nil
		}
		return err
	}, true
}

// settle applies a finished fetch and reports whether it was applied.
func (l *Loader[T]) settle(gen uint64, req PageRequest, page []T, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		l.stale = false
		l.machine.To(loadstate.Idle)
		l.log.Debug().Int("skip", req.Skip).Msg("discarding page fetched before reset")
		return false
	}
	if err != nil {
		l.err = apperr.Message(err)
		l.machine.Settle(err)
		l.log.Warn().Err(err).Int("skip", req.Skip).Int("limit", req.Limit).Msg("page load failed")
		return true
	}

	l.items = append(l.items, page...)
	l.hasMore = len(page) == l.limit
	l.err = ""
	l.machine.Settle(nil)
	l.log.Debug().
		Int("skip", req.Skip).
		Int("received", len(page)).
		Bool("has_more", l.hasMore).
		Msg("page loaded")
	return true
}
