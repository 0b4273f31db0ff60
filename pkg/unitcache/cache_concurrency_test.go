package unitcache

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCache_SingleRegistrationUnderConcurrency verifies that N concurrent
// first-time callers for the same key trigger exactly one registration
// and all observe the same winning handle.
func TestCache_SingleRegistrationUnderConcurrency(t *testing.T) {
	reg := NewRegistry()
	cache := NewCache(reg)

	workers := runtime.GOMAXPROCS(0) * 8
	start := make(chan struct{})
	handles := make([]Handle, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(i int) {
			defer wg.Done()
			<-start
			handles[i], errs[i] = cache.GetOrRegister(pruneUnit{})
		}(w)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, handles[0], handles[i], "worker %d observed a different handle", i)
	}
	assert.Equal(t, 1, reg.Len(), "expected exactly one registration")
	assert.Equal(t, 1, cache.Len())
}

// TestCache_ConcurrentDistinctKeys verifies racing callers on different
// keys don't serialize into each other's entries.
func TestCache_ConcurrentDistinctKeys(t *testing.T) {
	reg := NewRegistry()
	cache := NewCache(reg)

	workers := runtime.GOMAXPROCS(0) * 4
	start := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(workers * 2)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			<-start
			if _, err := cache.GetOrRegister(pruneUnit{}); err != nil {
				t.Errorf("prune: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			<-start
			if _, err := cache.GetOrRegister(compactUnit{}); err != nil {
				t.Errorf("compact: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 2, reg.Len())

	hp, ok := cache.Lookup(DeriveKeyFor[pruneUnit]())
	require.True(t, ok)
	hc, ok := cache.Lookup(DeriveKeyFor[compactUnit]())
	require.True(t, ok)
	assert.NotEqual(t, hp, hc)
}

// TestCache_ConcurrentHitsAfterFirstUse hammers the read path while the
// entry already exists.
func TestCache_ConcurrentHitsAfterFirstUse(t *testing.T) {
	reg := NewRegistry()
	cache := NewCache(reg)

	want, err := cache.GetOrRegister(pruneUnit{})
	require.NoError(t, err)

	workers := runtime.GOMAXPROCS(0) * 4
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				h, err := cache.GetOrRegister(pruneUnit{})
				if err != nil || h != want {
					t.Errorf("hit returned %v, %v", h, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Len())
}

// TestCache_ConcurrentFailuresThenSuccess verifies failed concurrent
// first-use attempts leave the key retryable and that a later success
// wins exactly once.
func TestCache_ConcurrentFailuresThenSuccess(t *testing.T) {
	// Every worker's first flight fails; the store recovers afterwards.
	st := newFlakyStore(1)
	reg := NewRegistry(WithRecordStore(st))
	cache := NewCache(reg)

	workers := 8
	start := make(chan struct{})
	errs := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = cache.GetOrRegister(pruneUnit{})
		}(w)
	}
	close(start)
	wg.Wait()

	// At least one caller saw the store failure, or all shared the
	// post-recovery success; either way the cache must be consistent.
	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
		}
	}
	if failures == workers {
		assert.Zero(t, cache.Len())
	}

	h, err := cache.GetOrRegister(pruneUnit{})
	require.NoError(t, err)
	again, err := cache.GetOrRegister(pruneUnit{})
	require.NoError(t, err)
	assert.Equal(t, h, again)
	assert.Equal(t, 1, cache.Len())
}

// TestCache_LookupAccounting verifies each call records exactly one lookup
// outcome: a miss for the registering call, a hit for every later one.
func TestCache_LookupAccounting(t *testing.T) {
	m := &lookupMetrics{}
	cache := NewCache(NewRegistry(), WithCacheMetrics(m))

	_, err := cache.GetOrRegister(pruneUnit{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.misses.Load())
	assert.Equal(t, int64(0), m.hits.Load())

	_, err = cache.GetOrRegister(pruneUnit{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.misses.Load())
	assert.Equal(t, int64(1), m.hits.Load())
}

// TestCache_LookupAccountingUnderConcurrency verifies callers that wait on
// a shared first-use registration count as hits, not misses.
func TestCache_LookupAccountingUnderConcurrency(t *testing.T) {
	m := &lookupMetrics{}
	cache := NewCache(NewRegistry(), WithCacheMetrics(m))

	workers := runtime.GOMAXPROCS(0) * 8
	start := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			<-start
			if _, err := cache.GetOrRegister(pruneUnit{}); err != nil {
				t.Errorf("register: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), m.misses.Load(), "only the registering caller is a miss")
	assert.Equal(t, int64(workers-1), m.hits.Load())
}
