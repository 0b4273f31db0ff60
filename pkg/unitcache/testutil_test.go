package unitcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/unitcache/pkg/unitcache/store"
)

// Test unit types. Zero-size unless stated otherwise.

// pruneUnit is a well-behaved zero-payload unit.
type pruneUnit struct{}

func (pruneUnit) Run(ctx Context) error { return nil }

// compactUnit is a second, distinct zero-payload unit.
type compactUnit struct{}

func (compactUnit) Run(ctx Context) error { return nil }

// countingUnit bumps a counter every time it runs.
type countingUnit struct{}

var countingRuns atomic.Int64

func (countingUnit) Run(ctx Context) error {
	countingRuns.Add(1)
	return nil
}

var errBoom = errors.New("boom")

// failingUnit always fails.
type failingUnit struct{}

func (failingUnit) Run(ctx Context) error { return errBoom }

// panicUnit panics with a fixed value.
type panicUnit struct{}

func (panicUnit) Run(ctx Context) error { panic("kaboom") }

// payloadUnit carries captured data and must be refused by the cache.
type payloadUnit struct {
	threshold int
}

func (payloadUnit) Run(ctx Context) error { return nil }

// flakyStore fails the first failures saves, then behaves like a
// MemoryStore. Used to exercise retry-after-allocation-failure paths.
type flakyStore struct {
	store.Store
	mu       sync.Mutex
	failures int
	saves    int
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{
		Store:    store.NewMemoryStore(),
		failures: failures,
	}
}

func (f *flakyStore) Save(rec store.Record) error {
	f.mu.Lock()
	f.saves++
	fail := f.saves <= f.failures
	f.mu.Unlock()

	if fail {
		return errBoom
	}
	return f.Store.Save(rec)
}

// saveCount returns how many Save attempts the store has seen.
func (f *flakyStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// lookupMetrics counts cache lookup outcomes; other recordings are ignored.
type lookupMetrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (m *lookupMetrics) RecordRegistration(_ context.Context, _ string, _ time.Duration, _ error) {
}

func (m *lookupMetrics) RecordCacheLookup(_ context.Context, _ string, hit bool) {
	if hit {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
}

func (m *lookupMetrics) RecordInvocation(_ context.Context, _ string, _ time.Duration, _ error) {
}

// testCtx creates a simple invocation context.
func testCtx() Context {
	return NewContext(context.Background())
}
