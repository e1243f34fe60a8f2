// Package resources implements the asynchronous, deduplicating image cache.
//
// Every identifier passed to Load is fetched at most once for the lifetime
// of the cache. Readiness is the condition that every identifier ever
// requested is Loaded; callbacks registered with OnReady run once when the
// cache reaches that condition.
package resources

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"ebiten-arcade/logger"
)

// State is the lifecycle state of a cache entry
type State int

const (
	StateUnknown State = iota
	StatePending
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type entry struct {
	state State
	img   image.Image
	err   error
}

// Cache loads images in the background and hands them out once loaded
type Cache struct {
	fetcher Fetcher
	retry   RetryPolicy
	sem     *semaphore.Weighted
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	entries        map[string]*entry
	failures       []error
	readyCallbacks []func()
	errorCallbacks []func(error)
	changed        chan struct{} // closed and replaced on every state change
	closed         bool
}

// Option configures a Cache
type Option func(*Cache)

// WithRetry sets the retry policy for failed fetches
func WithRetry(p RetryPolicy) Option {
	return func(c *Cache) {
		c.retry = p
	}
}

// WithMaxConcurrent bounds the number of fetches in flight
func WithMaxConcurrent(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithLogger sets the cache logger
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// NewCache creates an empty cache backed by fetcher
func NewCache(fetcher Fetcher, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetcher: fetcher,
		retry:   NoRetry,
		sem:     semaphore.NewWeighted(4),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDefault(c.logger, "resources")
	return c
}

// Load starts fetching every identifier not already in the cache.
// Identifiers already present, in any state, are left alone.
func (c *Cache) Load(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Warn("load on closed cache ignored", "ids", ids)
		return
	}

	for _, id := range ids {
		if _, exists := c.entries[id]; exists {
			continue
		}
		c.entries[id] = &entry{state: StatePending}
		c.wg.Add(1)
		go c.fetch(id)
	}
}

func (c *Cache) fetch(id string) {
	var img image.Image
	var attempts int
	err := c.sem.Acquire(c.ctx, 1)
	if err == nil {
		attempts, err = c.retry.do(c.ctx, func(ctx context.Context) error {
			var fetchErr error
			img, fetchErr = c.fetcher.Fetch(ctx, id)
			if fetchErr != nil && retryable(fetchErr) {
				c.logger.Debug("asset fetch failed", "id", id, "err", fetchErr)
			}
			return fetchErr
		})
		c.sem.Release(1)
	}
	if err != nil {
		err = &AssetLoadError{ID: id, Attempts: attempts, Err: err}
	}

	ready, failed := c.complete(id, img, err)

	// Callbacks may call Close, which waits for this fetch
	c.wg.Done()

	for _, fn := range failed {
		fn(err)
	}
	for _, fn := range ready {
		fn()
	}
}

// complete records the outcome of a fetch and returns the callbacks the
// transition released, to be run outside the lock
func (c *Cache) complete(id string, img image.Image, err error) (ready []func(), failed []func(error)) {
	c.mu.Lock()
	e := c.entries[id]
	// Cancellation during Close is not an asset failure anyone asked about
	cancelled := err != nil && c.closed && errors.Is(err, context.Canceled)
	if err != nil {
		e.state = StateFailed
		e.err = err
		if !cancelled {
			c.failures = append(c.failures, err)
			failed = append(failed, c.errorCallbacks...)
		}
	} else {
		e.state = StateLoaded
		e.img = img
		if c.isReadyLocked() {
			ready = c.readyCallbacks
			c.readyCallbacks = nil
		}
	}
	c.notifyLocked()
	c.mu.Unlock()

	switch {
	case cancelled:
		c.logger.Debug("asset load cancelled", "id", id)
	case err != nil:
		c.logger.Error("asset failed", "id", id, "err", err)
	default:
		c.logger.Debug("asset loaded", "id", id)
	}
	return ready, failed
}

// Get returns the image for id if it is Loaded. It never blocks and never starts a load.
func (c *Cache) Get(id string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[id]
	if !exists || e.state != StateLoaded {
		return nil, false
	}
	return e.img, true
}

// State returns the lifecycle state of id
func (c *Cache) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.entries[id]; exists {
		return e.state
	}
	return StateUnknown
}

// IsReady reports whether every requested identifier is Loaded.
// An empty cache is ready.
func (c *Cache) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReadyLocked()
}

func (c *Cache) isReadyLocked() bool {
	for _, e := range c.entries {
		if e.state != StateLoaded {
			return false
		}
	}
	return true
}

// OnReady registers fn to run once the cache is ready. If the cache is
// already ready fn runs synchronously before OnReady returns; otherwise it
// runs on the goroutine that completes the last pending load. Callbacks
// pending at the same transition run in registration order.
func (c *Cache) OnReady(fn func()) {
	c.mu.Lock()
	if !c.isReadyLocked() {
		c.readyCallbacks = append(c.readyCallbacks, fn)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	fn()
}

// OnError registers fn to receive an *AssetLoadError for every asset that
// fails. Failures that happened before registration are delivered immediately.
func (c *Cache) OnError(fn func(error)) {
	c.mu.Lock()
	c.errorCallbacks = append(c.errorCallbacks, fn)
	past := append([]error(nil), c.failures...)
	c.mu.Unlock()

	for _, err := range past {
		fn(err)
	}
}

// Wait blocks until the cache is ready, an asset fails, or ctx is done
func (c *Cache) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		switch {
		case len(c.failures) > 0:
			err := c.failures[0]
			c.mu.Unlock()
			return err
		case c.isReadyLocked():
			c.mu.Unlock()
			return nil
		case c.closed:
			c.mu.Unlock()
			return ErrCacheClosed
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Pending returns the identifiers still being fetched, sorted
func (c *Cache) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []string
	for id, e := range c.entries {
		if e.state == StatePending {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Reload fetches a Loaded asset again and swaps in the new image.
// Used by the hot reload watcher; the asset stays Loaded if the fetch fails.
func (c *Cache) Reload(ctx context.Context, id string) error {
	c.mu.Lock()
	e, exists := c.entries[id]
	if c.closed {
		c.mu.Unlock()
		return ErrCacheClosed
	}
	if !exists || e.state != StateLoaded {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	// Close waits for reloads like any other fetch
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return &AssetLoadError{ID: id, Err: err}
	}
	var img image.Image
	err := c.retry.attempt(ctx, func(ctx context.Context) error {
		var fetchErr error
		img, fetchErr = c.fetcher.Fetch(ctx, id)
		return fetchErr
	})
	c.sem.Release(1)
	if err != nil {
		return &AssetLoadError{ID: id, Attempts: 1, Err: err}
	}

	c.mu.Lock()
	e.img = img
	c.notifyLocked()
	c.mu.Unlock()

	c.logger.Info("asset reloaded", "id", id)
	return nil
}

// Close cancels in-flight fetches and waits for them to finish
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.notifyLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Cache) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
