package unitcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/unitcache/pkg/unitcache/observability"
	"github.com/randalmurphal/unitcache/pkg/unitcache/registry"
	"github.com/randalmurphal/unitcache/pkg/unitcache/store"
)

// Record is the backing-state record for one registered unit.
// Records are owned by the Registry that created them; callers hold
// Handles, never Records, except through Resolve for inspection.
type Record struct {
	handle    Handle
	uid       string
	key       IdentityKey
	unit      Unit
	createdAt time.Time
}

// Handle returns the handle referencing this record.
func (r *Record) Handle() Handle { return r.handle }

// UID returns the record's globally unique identifier.
// Handles are compact process-local indices; the UID is what correlates a
// record across restarts and in observability tools.
func (r *Record) UID() string { return r.uid }

// Key returns the identity key of the registered unit.
func (r *Record) Key() IdentityKey { return r.key }

// Unit returns the registered unit.
func (r *Record) Unit() Unit { return r.unit }

// CreatedAt returns when the record was allocated.
func (r *Record) CreatedAt() time.Time { return r.createdAt }

// Registry allocates backing-state records for units and issues Handles.
//
// Register never deduplicates: every call allocates a fresh record, even
// for two identical units. Deduplication by unit type is the Cache's job.
// Use the Registry directly when a fresh, independent instance per call
// is exactly what you want.
//
// A Registry is safe for concurrent use.
type Registry struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	rstore  store.Store
	max     int

	// mu serializes allocation so the capacity check, the store write,
	// and the index insert are atomic with respect to other callers.
	mu      sync.Mutex
	next    uint64
	closed  bool
	records *registry.Registry[Handle, *Record]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger for registration events.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithRegistryMetrics sets the metrics recorder for registration events.
func WithRegistryMetrics(m observability.MetricsRecorder) RegistryOption {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithRecordStore attaches a durable record store.
// Record metadata is persisted on Register and deleted on Remove. A store
// write failure fails the registration and leaves no in-memory record.
func WithRecordStore(s store.Store) RegistryOption {
	return func(r *Registry) {
		r.rstore = s
	}
}

// WithMaxRecords caps the number of live records.
// Register returns an AllocationError once the cap is reached.
// Zero (the default) means unlimited.
func WithMaxRecords(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = n
		}
	}
}

// NewRegistry creates a new unit registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		metrics: observability.NoopMetrics{},
		records: registry.New[Handle, *Record](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register allocates a fresh backing-state record for u and returns its
// Handle. Every call allocates; call sites that want one record per unit
// type go through the Cache instead.
//
// Fails with an AllocationError when capacity is exhausted or the durable
// store rejects the write; no record exists after a failed call.
func (r *Registry) Register(u Unit) (Handle, error) {
	if u == nil {
		return Handle{}, ErrNilUnit
	}
	key := DeriveKey(u)

	start := time.Now()
	h, err := r.allocate(key, u)
	r.metrics.RecordRegistration(context.Background(), key.Signature(), time.Since(start), err)
	if err != nil {
		observability.LogRegistrationError(r.logger, key.Signature(), err)
		return Handle{}, err
	}
	return h, nil
}

// allocate performs the locked allocation sequence.
func (r *Registry) allocate(key IdentityKey, u Unit) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Handle{}, ErrRegistryClosed
	}
	if r.max > 0 && r.records.Len() >= r.max {
		return Handle{}, &AllocationError{Signature: key.Signature()}
	}

	rec := &Record{
		handle:    Handle{idx: r.next + 1},
		uid:       uuid.NewString(),
		key:       key,
		unit:      u,
		createdAt: time.Now().UTC(),
	}

	// Persist before publishing: a store failure must leave no record.
	if r.rstore != nil {
		err := r.rstore.Save(store.Record{
			UID:         rec.uid,
			Signature:   key.Signature(),
			Fingerprint: key.Fingerprint(),
			CreatedAt:   rec.createdAt,
		})
		if err != nil {
			return Handle{}, &AllocationError{Signature: key.Signature(), Cause: err}
		}
	}

	r.next++
	r.records.Register(rec.handle, rec)
	observability.LogRegistration(r.logger, key.Signature(), rec.handle.String(), rec.uid)
	return rec.handle, nil
}

// Resolve returns the record referenced by h and whether it exists.
func (r *Registry) Resolve(h Handle) (*Record, bool) {
	if h.IsZero() {
		return nil, false
	}
	return r.records.Get(h)
}

// Remove tears down the record referenced by h.
// The handle index is never reused. Returns ErrHandleNotFound if h
// references no live record.
func (r *Registry) Remove(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	rec, ok := r.records.Get(h)
	if !ok {
		return ErrHandleNotFound
	}

	if r.rstore != nil {
		if err := r.rstore.Delete(rec.uid); err != nil {
			return err
		}
	}

	r.records.Delete(h)
	observability.LogRecordRemoved(r.logger, h.String(), rec.uid)
	return nil
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	return r.records.Len()
}

// Handles returns the handles of all live records.
// The order is not guaranteed.
func (r *Registry) Handles() []Handle {
	return r.records.Keys()
}

// Close closes the registry and its durable store, if any.
// Further Register and Remove calls return ErrRegistryClosed; existing
// handles can still be resolved.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.rstore != nil {
		return r.rstore.Close()
	}
	return nil
}
