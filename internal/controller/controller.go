// Package controller owns the quote list, the favorite set and the load
// lifecycle, and publishes a State that presentation code subscribes to.
//
// All state changes are serialized by one mutex. Fetching and backoff delays
// run without the lock held, so State() and Subscribe() stay responsive while a
// load chain is in flight.
package controller

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"stonks/internal/favorites"
	"stonks/internal/fetcher"
	"stonks/internal/quote"
	"stonks/internal/views"
)

const (
	// DefaultMaxRetries is the number of automatic retries after the first attempt.
	DefaultMaxRetries = 3
	// DefaultBackoffUnit is the time unit of the 2^n backoff.
	DefaultBackoffUnit = 1 * time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Controller.
type Option func(c *Controller)

// WithMaxRetries sets how many times a retryable failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBackoffUnit sets the backoff time unit. Retry n waits 2^n units.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.backoffUnit = d
		}
	}
}

// WithFavoritesKey sets the store key of the favorite list.
func WithFavoritesKey(key string) Option {
	return func(c *Controller) {
		c.favoritesKey = key
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSleep replaces the backoff wait. Tests use it to record delays.
func WithSleep(fn SleepFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// Controller is the view-model for the quote list.
type Controller struct {
	source       fetcher.Source
	favs         *favorites.Manager
	favoritesKey string
	logger       *slog.Logger
	maxRetries   int
	backoffUnit  time.Duration
	sleep        SleepFunc

	// closeCtx is cancelled by Close and aborts pending fetches and delays.
	closeCtx    context.Context
	closeCancel context.CancelFunc

	// mu guards everything below.
	mu sync.Mutex

	quotes     []quote.Quote
	cache      views.Cache
	isLoading  bool
	lastErr    *fetcher.FetchError
	retryCount int
	version    uint64
	closed     bool

	// inflight is closed when the running load chain ends. nil when idle.
	inflight chan struct{}

	subscribers map[string][]subscriber
	sid         int
}

// New creates a Controller and loads the favorite set from store.
func New(ctx context.Context, source fetcher.Source, store favorites.Store, opts ...Option) (*Controller, error) {
	c := &Controller{
		source:       source,
		favoritesKey: favorites.DefaultKey,
		logger:       slog.Default(),
		maxRetries:   DefaultMaxRetries,
		backoffUnit:  DefaultBackoffUnit,
		sleep:        sleepContext,
		subscribers:  map[string][]subscriber{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.closeCtx, c.closeCancel = context.WithCancel(context.Background())

	c.favs = favorites.NewManager(store, c.favoritesKey, c.logger)
	if err := c.favs.Load(ctx); err != nil {
		c.closeCancel()
		return nil, err
	}
	c.cache.Recompute(nil, c.favs.IsFavorite)

	return c, nil
}

// Load runs one load chain: the first fetch plus up to MaxRetries retries of
// retryable failures, waiting 2^n backoff units before retry n.
//
// IsLoading is true from the start of the chain until it ends, and LastError
// is cleared at the start and set only when the chain ends in failure. A call
// made while a chain is running waits for that chain instead of starting
// another. If ctx is cancelled or the controller is closed mid-chain, the
// chain is abandoned without recording an error.
//
// Load never returns an error; failures are reported through State.
func (c *Controller) Load(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.inflight != nil {
		done := c.inflight
		c.mu.Unlock()

		c.logger.Debug("load already in flight, joining", "source", c.source.Key())
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}

	done := make(chan struct{})
	c.inflight = done
	c.isLoading = true
	changed := []string{FieldIsLoading}
	if c.lastErr != nil {
		c.lastErr = nil
		changed = append(changed, FieldLastError)
	}
	c.commitLocked(changed...)
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.closeCtx, cancel)
	defer stop()

	c.logger.Info("loading quotes", "source", c.source.Key())
	c.run(ctx, done)
}

// run is the retry loop. It always ends the chain through finish.
func (c *Controller) run(ctx context.Context, done chan struct{}) {
	for attempt := 1; ; attempt++ {
		quotes, err := c.source.Fetch(ctx)
		if err == nil {
			c.finish(done, func() []string {
				c.logger.Info("loaded quotes", "source", c.source.Key(), "count", len(quotes), "attempts", attempt)
				return c.applyQuotesLocked(quotes)
			})
			return
		}

		if ctx.Err() != nil {
			c.finish(done, func() []string {
				c.logger.Info("load abandoned", "source", c.source.Key(), "attempts", attempt)
				return c.abandonLocked()
			})
			return
		}

		fe := fetcher.Classify(err)

		c.mu.Lock()
		if !fe.Kind.Retryable() || c.retryCount >= c.maxRetries {
			c.mu.Unlock()
			c.finish(done, func() []string {
				c.logger.Warn("failed to load quotes",
					"source", c.source.Key(),
					"kind", fe.Kind,
					"attempts", attempt,
					"error", err)
				c.lastErr = fe
				return []string{FieldLastError}
			})
			return
		}

		c.retryCount++
		delay := c.backoff(c.retryCount)
		c.commitLocked(FieldRetryCount)
		retry := c.retryCount
		c.mu.Unlock()

		c.logger.Debug("retrying load",
			"source", c.source.Key(),
			"kind", fe.Kind,
			"retry", retry,
			"delay", delay,
			"error", err)

		if err := c.sleep(ctx, delay); err != nil {
			c.finish(done, func() []string {
				c.logger.Info("load abandoned during backoff", "source", c.source.Key(), "retry", retry)
				return c.abandonLocked()
			})
			return
		}
	}
}

// finish ends the chain: apply runs under the lock and returns the fields it
// changed, loading is switched off and waiting callers are released.
func (c *Controller) finish(done chan struct{}, apply func() []string) {
	c.mu.Lock()
	changed := apply()
	c.isLoading = false
	c.inflight = nil
	c.commitLocked(append(changed, FieldIsLoading)...)
	c.mu.Unlock()

	close(done)
}

// applyQuotesLocked stores a successful result and rebuilds every projection.
func (c *Controller) applyQuotesLocked(quotes []quote.Quote) []string {
	c.quotes = slices.Clone(quotes)
	if c.quotes == nil {
		c.quotes = []quote.Quote{}
	}
	c.cache.Recompute(c.quotes, c.favs.IsFavorite)

	changed := []string{FieldQuotes, FieldFeatured, FieldFavorites, FieldSortedFavorites}
	if c.retryCount != 0 {
		c.retryCount = 0
		changed = append(changed, FieldRetryCount)
	}
	return changed
}

// abandonLocked drops the retries spent by a chain that ended without a
// result, so the next chain starts with the full budget.
func (c *Controller) abandonLocked() []string {
	if c.retryCount == 0 {
		return nil
	}
	c.retryCount = 0
	return []string{FieldRetryCount}
}

// backoff returns 2^retry units.
func (c *Controller) backoff(retry int) time.Duration {
	return c.backoffUnit * time.Duration(1<<retry)
}

// RetryLoading resets the retry counter and starts a new load chain. It is
// meant for a user-initiated retry after the automatic retries ran out. While
// a chain is running it joins that chain like Load.
func (c *Controller) RetryLoading(ctx context.Context) {
	c.mu.Lock()
	if c.inflight == nil && c.retryCount != 0 {
		c.retryCount = 0
		c.commitLocked(FieldRetryCount)
	}
	c.mu.Unlock()

	c.Load(ctx)
}

// ToggleFavorite adds id to the favorites, or removes it if present, and
// writes the full set to the store. The in-memory change is kept even when
// the write fails; the error is returned.
func (c *Controller) ToggleFavorite(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	member, err := c.favs.Toggle(ctx, id)
	c.cache.Recompute(c.quotes, c.favs.IsFavorite)
	c.commitLocked(FieldFavoriteIDs, FieldFavorites, FieldSortedFavorites)

	c.logger.Debug("toggled favorite", "id", id, "favorite", member)
	return err
}

// IsFavorite reports whether id is a favorite. Ids need not match a loaded quote.
func (c *Controller) IsFavorite(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.favs.IsFavorite(id)
}

// SetSortOrder sets the direction of SortedFavorites. Only SortedFavorites
// is recomputed.
func (c *Controller) SetSortOrder(ascending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := []string{FieldSortedFavorites}
	if c.cache.Ascending != ascending {
		changed = append(changed, FieldSortAscending)
	}
	c.cache.SetSortOrder(ascending)
	c.commitLocked(changed...)
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{
		Version:         c.version,
		Quotes:          c.quotes,
		FavoriteIDs:     c.favs.IDs(),
		Featured:        c.cache.Featured,
		Favorites:       c.cache.Favorites,
		SortedFavorites: c.cache.SortedFavorites,
		SortAscending:   c.cache.Ascending,
		IsLoading:       c.isLoading,
		RetryCount:      c.retryCount,
	}
	if s.Quotes == nil {
		s.Quotes = []quote.Quote{}
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr
		s.ErrorMessage = c.lastErr.Description()
	}
	return s
}

// Subscribe returns a channel that receives a Signal whenever field changes,
// or on every change when field is Any. The channel has a buffer of one and
// sends never block: a slow reader misses intermediate signals, but every
// Signal carries the complete State. CancelFunc closes the channel.
func (c *Controller) Subscribe(field string) (<-chan Signal, CancelFunc, error) {
	if err := validField(field); err != nil {
		return nil, nil, err
	}

	ch := make(chan Signal, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)
		return ch, func() {}, nil
	}

	id := c.sid
	c.sid++
	c.subscribers[field] = append(c.subscribers[field], subscriber{id: id, ch: ch})

	return ch, c.cancelFunc(field, id), nil
}

func (c *Controller) cancelFunc(field string, id int) CancelFunc {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		subs := c.subscribers[field]
		for i, s := range subs {
			if s.id == id {
				close(s.ch)
				c.subscribers[field] = slices.Delete(subs, i, i+1)
				if len(c.subscribers[field]) == 0 {
					delete(c.subscribers, field)
				}
				return
			}
		}
	}
}

// commitLocked bumps the version and signals subscribers of the changed fields.
func (c *Controller) commitLocked(changed ...string) {
	if len(changed) == 0 {
		return
	}
	changed = slices.Clone(changed)
	slices.Sort(changed)
	changed = slices.Compact(changed)

	c.version++
	if len(c.subscribers) == 0 {
		return
	}

	state := c.stateLocked()
	for _, field := range changed {
		for _, sub := range c.subscribers[field] {
			signal(sub.ch, Signal{Version: state.Version, Fields: []string{field}, State: state})
		}
	}
	for _, sub := range c.subscribers[Any] {
		signal(sub.ch, Signal{Version: state.Version, Fields: changed, State: state})
	}
}

// signal sends sig on ch, replacing an unread older signal. It never blocks.
func signal(ch chan Signal, sig Signal) {
	for {
		select {
		case ch <- sig:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Close abandons any running load chain, closes all subscriptions and makes
// further Load calls no-ops.
func (c *Controller) Close() {
	c.closeCancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for field, subs := range c.subscribers {
		for _, s := range subs {
			close(s.ch)
		}
		delete(c.subscribers, field)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

