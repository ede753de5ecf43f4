// Package cache is a keyed query cache. Each entry has a freshness policy,
// concurrent fetches of one key are shared, and invalidation moves the key
// to a new generation so late results from an older one are dropped.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// maxRetryDelay caps exponential retry backoff
const maxRetryDelay = 30 * time.Second

// Key identifies a cache entry: a resource kind and the scope it belongs to,
// such as ("cart", sessionID) or ("seats", "page=1").
type Key struct {
	Resource string
	Scope    string
}

func (k Key) String() string {
	if k.Scope == "" {
		return k.Resource
	}
	return k.Resource + "/" + k.Scope
}

// Policy controls freshness and retry for a key
type Policy struct {
	// StaleTime is how long a value is served without refetching. Zero means
	// every Fetch goes to the network.
	StaleTime time.Duration
	// RefetchInterval drives Poll. Zero disables polling.
	RefetchInterval time.Duration
	// Retry is the number of extra attempts after a failed fetch
	Retry int
	// RetryDelay is the first backoff, doubled on every further attempt
	RetryDelay time.Duration
	// ShouldRetry filters which errors are retried. Nil retries everything
	// except caller cancellation.
	ShouldRetry func(error) bool
}

func (p Policy) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if p.ShouldRetry == nil {
		return true
	}
	return p.ShouldRetry(err)
}

func (p Policy) backoff(attempt int) time.Duration {
	if p.RetryDelay <= 0 {
		return 0
	}
	d := p.RetryDelay << attempt
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// Status describes an entry for views
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Snapshot is a point-in-time view of an entry
type Snapshot struct {
	Value     any
	HasValue  bool
	Err       error
	Status    Status
	UpdatedAt time.Time
	Stale     bool
}

// Fetcher loads the value of a key
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	value     any
	hasValue  bool
	err       error
	updatedAt time.Time
	stale     bool
	fetching  int
}

type flight struct {
	value any
	err   error
	// abandoned is set when the fetching caller went away before the result
	abandoned bool
}

// Cache is safe for concurrent use
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	gens    map[Key]uint64
	group   singleflight.Group
	now     func() time.Time
	logger  log.FieldLogger
}

// Option configures a Cache
type Option func(*Cache)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(l log.FieldLogger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates an empty cache
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
		now:     time.Now,
		logger:  log.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch returns the cached value of key while it is fresh under p, and
// otherwise loads it with fetch
func (c *Cache) Fetch(ctx context.Context, key Key, p Policy, fetch Fetcher) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.hasValue && !e.stale && p.StaleTime > 0 &&
		c.now().Sub(e.updatedAt) < p.StaleTime {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()
	return c.Refetch(ctx, key, p, fetch)
}

// Refetch loads key regardless of freshness. Callers racing on the same key
// and generation share one request.
func (c *Cache) Refetch(ctx context.Context, key Key, p Policy, fetch Fetcher) (any, error) {
	for {
		c.mu.Lock()
		gen := c.gens[key]
		c.mu.Unlock()

		ch := c.group.DoChan(key.String()+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
			return c.load(ctx, key, gen, p, fetch), nil
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			f := res.Val.(flight)
			if f.abandoned && ctx.Err() == nil {
				// The caller that owned the request cancelled; run our own.
				continue
			}
			return f.value, f.err
		}
	}
}

func (c *Cache) load(ctx context.Context, key Key, gen uint64, p Policy, fetch Fetcher) flight {
	c.mu.Lock()
	e := c.entry(key)
	e.fetching++
	c.mu.Unlock()

	v, err := c.fetchWithRetry(ctx, p, fetch)

	c.mu.Lock()
	defer c.mu.Unlock()

	// e may have been removed meanwhile; Remove bumps the generation, so the
	// check below keeps a detached entry from being written.
	e.fetching--

	if ctx.Err() != nil {
		return flight{value: v, err: errOrCtx(err, ctx), abandoned: true}
	}
	if gen != c.gens[key] {
		c.logger.WithField("key", key.String()).Debug("Dropping result from an invalidated generation")
		return flight{value: v, err: err}
	}
	if err != nil {
		// Keep the last known-good value.
		e.err = err
		return flight{value: v, err: err}
	}
	e.value = v
	e.hasValue = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
	return flight{value: v}
}

func errOrCtx(err error, ctx context.Context) error {
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (c *Cache) fetchWithRetry(ctx context.Context, p Policy, fetch Fetcher) (any, error) {
	attempts := 1 + max(0, p.Retry)
	for i := 0; ; i++ {
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		if i == attempts-1 || ctx.Err() != nil || !p.shouldRetry(err) {
			return nil, err
		}
		t := time.NewTimer(p.backoff(i))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, err
		case <-t.C:
		}
	}
}

// entry returns the entry for key, creating it. Callers hold c.mu.
func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Peek returns the last known-good value of key
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// Snapshot describes key for display
func (c *Cache) Snapshot(key Key, p Policy) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Status: StatusIdle, Stale: true}
	}
	s := Snapshot{
		Value:     e.value,
		HasValue:  e.hasValue,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Stale:     e.stale || !e.hasValue || c.now().Sub(e.updatedAt) >= p.StaleTime,
	}
	switch {
	case e.fetching > 0:
		s.Status = StatusLoading
	case e.err != nil:
		s.Status = StatusError
	case e.hasValue:
		s.Status = StatusSuccess
	default:
		s.Status = StatusIdle
	}
	return s
}

// Set stores value for key directly, as after a mutation that returned it.
// In-flight fetches for key are superseded.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	e := c.entry(key)
	e.value = value
	e.hasValue = true
	e.err = nil
	e.stale = false
	e.updatedAt = c.now()
}

// Invalidate marks key stale and supersedes in-flight fetches. The last value
// stays readable through Peek until a new one arrives.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked(key)
}

func (c *Cache) invalidateLocked(key Key) {
	c.gens[key]++
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// InvalidateScope invalidates every key in scope
func (c *Cache) InvalidateScope(scope string) {
	c.invalidateWhere(func(k Key) bool { return k.Scope == scope })
}

// InvalidateResource invalidates every key of resource
func (c *Cache) InvalidateResource(resource string) {
	c.invalidateWhere(func(k Key) bool { return k.Resource == resource })
}

func (c *Cache) invalidateWhere(match func(Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.gens {
		if match(k) {
			c.invalidateLocked(k)
		}
	}
	for k := range c.entries {
		if match(k) {
			c.invalidateLocked(k)
		}
	}
}

// Remove drops key entirely
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	delete(c.entries, key)
}

// Clear drops every entry, as on logout
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		c.gens[k]++
	}
	for k := range c.gens {
		if _, ok := c.entries[k]; !ok {
			c.gens[k]++
		}
	}
	c.entries = make(map[Key]*entry)
}

// Generation returns the current generation of key
func (c *Cache) Generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// Poll refetches key every p.RefetchInterval until ctx is done, handing each
// outcome to fn. It blocks; run it in its own goroutine.
func (c *Cache) Poll(ctx context.Context, key Key, p Policy, fetch Fetcher, fn func(any, error)) error {
	if p.RefetchInterval <= 0 {
		return fmt.Errorf("poll %s: no refetch interval", key)
	}
	ticker := time.NewTicker(p.RefetchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			v, err := c.Refetch(ctx, key, p, fetch)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if fn != nil {
				fn(v, err)
			}
		}
	}
}

// Get is Fetch with a typed result
func Get[T any](ctx context.Context, c *Cache, key Key, p Policy, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, p, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	return as[T](v, err)
}

// Reload is Refetch with a typed result
func Reload[T any](ctx context.Context, c *Cache, key Key, p Policy, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Refetch(ctx, key, p, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	return as[T](v, err)
}

// PeekAs is Peek with a typed result
func PeekAs[T any](c *Cache, key Key) (T, bool) {
	v, ok := c.Peek(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func as[T any](v any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: cached value is %T, not %T", v, zero)
	}
	return t, nil
}
