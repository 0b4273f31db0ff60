package unitcache

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/unitcache/pkg/unitcache/observability"
	"github.com/randalmurphal/unitcache/pkg/unitcache/store"
)

// Runtime owns a Registry and a Cache and provides the invocation path
// for registered handles.
//
// Run wraps the unit's own Run method with cancellation checks, panic
// recovery, structured logging, and optional OpenTelemetry metrics and
// tracing. Handles returned by the Cache or the Registry are used
// directly; there is no translation step.
type Runtime struct {
	reg     *Registry
	cache   *Cache
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	tracing bool
	caching bool
	regOpts []RegistryOption
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeLogger sets the logger for registration, cache, and
// invocation events.
func WithRuntimeLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithRuntimeMetrics sets the metrics recorder.
func WithRuntimeMetrics(m observability.MetricsRecorder) RuntimeOption {
	return func(rt *Runtime) {
		if m != nil {
			rt.metrics = m
		}
	}
}

// WithRuntimeStore attaches a durable record store to the runtime's
// registry.
func WithRuntimeStore(s store.Store) RuntimeOption {
	return func(rt *Runtime) {
		rt.regOpts = append(rt.regOpts, WithRecordStore(s))
	}
}

// WithRuntimeMaxRecords caps the runtime registry's live records.
func WithRuntimeMaxRecords(n int) RuntimeOption {
	return func(rt *Runtime) {
		rt.regOpts = append(rt.regOpts, WithMaxRecords(n))
	}
}

// WithTracing enables OTel trace spans around invocations.
func WithTracing(enabled bool) RuntimeOption {
	return func(rt *Runtime) {
		rt.tracing = enabled
	}
}

// WithCaching toggles handle deduplication on the runtime's registration
// path. Enabled by default. When disabled, GetOrRegister and RunCached
// allocate a fresh record on every call instead of reusing the handle
// registered for the unit's type.
func WithCaching(enabled bool) RuntimeOption {
	return func(rt *Runtime) {
		rt.caching = enabled
	}
}

// NewRuntime creates a Runtime with a fresh Registry and Cache.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
		caching: true,
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.tracing {
		rt.spans = observability.NewSpanManager()
	}

	regOpts := []RegistryOption{
		WithRegistryLogger(rt.logger),
		WithRegistryMetrics(rt.metrics),
	}
	regOpts = append(regOpts, rt.regOpts...)
	rt.reg = NewRegistry(regOpts...)
	rt.cache = NewCache(rt.reg,
		WithCacheLogger(rt.logger),
		WithCacheMetrics(rt.metrics),
	)
	return rt
}

// Registry returns the runtime's unit registry, for callers who want a
// fresh, non-deduplicated record per Register call.
func (rt *Runtime) Registry() *Registry {
	return rt.reg
}

// Cache returns the runtime's handle cache.
func (rt *Runtime) Cache() *Cache {
	return rt.cache
}

// GetOrRegister returns the cached Handle for u's type, registering u on
// first use. See Cache.GetOrRegister.
//
// With caching disabled (WithCaching(false)), every call allocates a
// fresh record. The zero-payload constraint still applies, so flipping
// the toggle never changes which unit types are accepted.
func (rt *Runtime) GetOrRegister(u Unit) (Handle, error) {
	if !rt.caching {
		if u == nil {
			return Handle{}, ErrNilUnit
		}
		if err := CheckCacheable(u); err != nil {
			return Handle{}, err
		}
		return rt.reg.Register(u)
	}
	return rt.cache.GetOrRegister(u)
}

// runConfig holds per-invocation configuration.
type runConfig struct {
	runID string
}

// RunOption configures a single invocation.
type RunOption func(*runConfig)

// WithRunID sets the run identifier for one invocation.
// Auto-generated if not set.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// Run invokes the unit backing h.
//
// The unit's Run method is called with a Context carrying the handle, a
// run ID, and an enriched logger. Panics inside the unit are recovered
// and returned as a *PanicError. A context cancelled before the unit
// starts returns an *InvokeError wrapping ctx.Err() without invoking the
// unit.
func (rt *Runtime) Run(ctx context.Context, h Handle, opts ...RunOption) (runErr error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	rec, ok := rt.reg.Resolve(h)
	if !ok {
		return &InvokeError{Handle: h, Err: ErrHandleNotFound}
	}

	ctxOpts := []ContextOption{WithLogger(rt.logger)}
	if cfg.runID != "" {
		ctxOpts = append(ctxOpts, WithContextRunID(cfg.runID))
	}
	ic := NewContext(ctx, ctxOpts...).(*invokeContext).withHandle(h)

	// Check for cancellation before invoking the unit.
	select {
	case <-ctx.Done():
		return &InvokeError{Handle: h, Err: ctx.Err()}
	default:
	}

	var span trace.Span
	if rt.tracing {
		var tctx context.Context
		tctx, span = rt.spans.StartInvokeSpan(ctx, h.String(), ic.RunID())
		ic = ic.withParent(tctx)
		defer func() {
			rt.spans.EndSpanWithError(span, runErr)
		}()
	}

	observability.LogInvokeStart(ic.Logger(), h.String())
	start := time.Now()

	runErr = rt.invoke(ic, rec)

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	rt.metrics.RecordInvocation(ctx, h.String(), duration, runErr)

	if runErr != nil {
		observability.LogInvokeError(ic.Logger(), h.String(), runErr, durationMs)
	} else {
		observability.LogInvokeComplete(ic.Logger(), h.String(), durationMs)
	}

	return runErr
}

// RunCached is GetOrRegister followed by Run: it resolves the cached
// handle for u's type, registering on first use, and invokes it.
func (rt *Runtime) RunCached(ctx context.Context, u Unit, opts ...RunOption) error {
	h, err := rt.GetOrRegister(u)
	if err != nil {
		return err
	}
	return rt.Run(ctx, h, opts...)
}

// invoke calls the unit's Run method with panic recovery.
func (rt *Runtime) invoke(ic *invokeContext, rec *Record) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{
				Handle: rec.handle,
				Value:  v,
				Stack:  string(debug.Stack()),
			}
		}
	}()

	if runErr := rec.unit.Run(ic); runErr != nil {
		return &InvokeError{Handle: rec.handle, Err: runErr}
	}
	return nil
}

// Close closes the runtime's registry and its durable store, if any.
func (rt *Runtime) Close() error {
	return rt.reg.Close()
}
