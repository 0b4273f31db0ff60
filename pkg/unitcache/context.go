package unitcache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context provides invocation context to units.
// It extends context.Context with unitcache-specific services and metadata.
//
// Context is immutable after creation. The runtime creates derived
// contexts per invocation with the handle set and the logger enriched.
type Context interface {
	context.Context

	// Logger returns the configured logger, enriched with run and handle
	// context. Never returns nil - defaults to slog.Default() if not
	// configured.
	Logger() *slog.Logger

	// RunID returns the unique identifier for this invocation.
	// Auto-generated if not configured.
	RunID() string

	// Handle returns the handle being invoked.
	// The zero Handle before invocation starts.
	Handle() Handle

	// Attempt returns the retry attempt number (1 = first attempt).
	Attempt() int
}

// invokeContext is the internal implementation of Context.
type invokeContext struct {
	context.Context

	logger  *slog.Logger
	runID   string
	handle  Handle
	attempt int
}

// Logger returns the configured logger.
func (c *invokeContext) Logger() *slog.Logger {
	return c.logger
}

// RunID returns the run identifier.
func (c *invokeContext) RunID() string {
	return c.runID
}

// Handle returns the handle being invoked.
func (c *invokeContext) Handle() Handle {
	return c.handle
}

// Attempt returns the retry attempt number.
func (c *invokeContext) Attempt() int {
	return c.attempt
}

// ContextOption configures a Context.
type ContextOption func(*invokeContext)

// WithLogger sets the logger for the context.
// The logger is enriched with run_id, handle, and attempt during invocation.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *invokeContext) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID is auto-generated.
func WithContextRunID(id string) ContextOption {
	return func(c *invokeContext) {
		if id != "" {
			c.runID = id
		}
	}
}

// NewContext creates an invocation context from a standard context.
// The returned Context wraps the provided context.Context and adds
// unitcache-specific services and metadata.
//
// Example:
//
//	ctx := unitcache.NewContext(context.Background(),
//	    unitcache.WithLogger(myLogger),
//	    unitcache.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ic := &invokeContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
		attempt: 1,
	}

	for _, opt := range opts {
		opt(ic)
	}

	return ic
}

// withParent returns a copy of the context reparented onto ctx.
// Used by the runtime to splice a trace-carrying context under an
// already-built invocation context without mutating it.
func (c *invokeContext) withParent(ctx context.Context) *invokeContext {
	clone := *c
	clone.Context = ctx
	return &clone
}

// withHandle returns a new context with the given handle set.
// Used internally by the runtime to enrich the context per invocation.
func (c *invokeContext) withHandle(h Handle) *invokeContext {
	return &invokeContext{
		Context: c.Context,
		logger:  c.logger.With("run_id", c.runID, "handle", h.String(), "attempt", c.attempt),
		runID:   c.runID,
		handle:  h,
		attempt: c.attempt,
	}
}
