package unitcache

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/randalmurphal/unitcache/pkg/unitcache/observability"
)

// Cache maps identity keys to Handles with a single-registration
// guarantee: for any unit type, at most one Registry.Register call ever
// happens through the cache, and every caller observes the same Handle.
//
// The cache is indexed purely by the unit's static type. A supplied
// unit's value is discarded on a hit, which is only sound because the
// cached path accepts zero-size types: every value of such a type is the
// same value. Units carrying payload are rejected with
// ErrPayloadNotZeroSized before any lookup or registration happens.
//
// A key moves from absent to registered exactly once. A failed
// registration leaves the key absent, so a later call retries. Only
// Reset and Invalidate revert a registered key; both are intended for
// callers holding exclusive access (typically test teardown), since a
// concurrent GetOrRegister may re-register the key and allocate a second
// record.
//
// A Cache is safe for concurrent use.
type Cache struct {
	reg     *Registry
	logger  *slog.Logger
	metrics observability.MetricsRecorder

	mu      sync.RWMutex
	entries map[IdentityKey]Handle

	// group collapses concurrent first-use registrations for the same
	// key into a single Registry.Register call.
	group singleflight.Group
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheLogger sets the logger for cache events.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithCacheMetrics sets the metrics recorder for cache lookups.
func WithCacheMetrics(m observability.MetricsRecorder) CacheOption {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

// NewCache creates a handle cache on top of reg.
//
// Panics if reg is nil.
func NewCache(reg *Registry, opts ...CacheOption) *Cache {
	if reg == nil {
		panic("unitcache: cache requires a registry")
	}
	c := &Cache{
		reg:     reg,
		metrics: observability.NoopMetrics{},
		entries: make(map[IdentityKey]Handle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry the cache registers through.
func (c *Cache) Registry() *Registry {
	return c.reg
}

// GetOrRegister returns the Handle for u's unit type, registering u on
// first use.
//
// On a hit the supplied value is discarded without being inspected. On a
// miss exactly one registration happens, no matter how many callers race
// on the same type; all of them receive the winning Handle. A failed
// registration is returned to every waiting caller and leaves the key
// absent.
func (c *Cache) GetOrRegister(u Unit) (Handle, error) {
	if u == nil {
		return Handle{}, ErrNilUnit
	}
	if err := CheckCacheable(u); err != nil {
		return Handle{}, err
	}
	return c.getOrRegister(DeriveKey(u), u)
}

// GetOrRegisterFor is the type-indexed form of Cache.GetOrRegister: the
// unit is U's zero value, so no caller-supplied payload can ever reach
// the cache. This is the preferred entry point when the call site knows
// the type statically.
func GetOrRegisterFor[U Unit](c *Cache) (Handle, error) {
	t := reflect.TypeOf((*U)(nil)).Elem()
	if t.Kind() == reflect.Interface {
		return Handle{}, ErrNilUnit
	}
	if err := checkCacheableType(t); err != nil {
		return Handle{}, err
	}
	var u U
	return c.getOrRegister(deriveKeyForType(t), u)
}

func (c *Cache) getOrRegister(key IdentityKey, u Unit) (Handle, error) {
	for {
		if h, ok := c.Lookup(key); ok {
			c.metrics.RecordCacheLookup(context.Background(), key.Signature(), true)
			observability.LogCacheHit(c.logger, key.Signature(), h.String())
			return h, nil
		}

		// registered stays false for callers whose flight function never
		// ran, so each call records exactly one lookup outcome: a miss for
		// the caller that performed the registration, a hit for everyone
		// who waited on it.
		registered := false
		_, err, _ := c.group.Do(key.String(), func() (any, error) {
			// Re-check inside the flight: a previous winner may have
			// inserted the entry between our lookup and Do.
			if h, ok := c.Lookup(key); ok {
				return h, nil
			}
			observability.LogCacheMiss(c.logger, key.Signature())
			h, err := c.reg.Register(u)
			if err != nil {
				return Handle{}, err
			}
			c.mu.Lock()
			c.entries[key] = h
			c.mu.Unlock()
			registered = true
			return h, nil
		})

		// Trust only an entry recorded under our exact key. Flight keys
		// are strings, and two distinct types with an identical type
		// string would share one; taking the flight's return value
		// directly could then alias them.
		if h, ok := c.Lookup(key); ok {
			c.metrics.RecordCacheLookup(context.Background(), key.Signature(), !registered)
			if !registered {
				observability.LogCacheHit(c.logger, key.Signature(), h.String())
			}
			return h, nil
		}
		if err != nil {
			c.metrics.RecordCacheLookup(context.Background(), key.Signature(), false)
			return Handle{}, err
		}
		// The shared flight registered a different key; claim ours.
	}
}

// Lookup returns the Handle stored for key, if any, without registering.
func (c *Cache) Lookup(key IdentityKey) (Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.entries[key]
	return h, ok
}

// Invalidate removes the entry for key, returning the Handle it held.
// The backing record is not touched; pair with Registry.Remove to tear
// it down. Safe only under exclusive access, see the type comment.
func (c *Cache) Invalidate(key IdentityKey) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[key]
	delete(c.entries, key)
	return h, ok
}

// Reset removes all entries.
// Backing records are not touched. Safe only under exclusive access, see
// the type comment.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[IdentityKey]Handle)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
