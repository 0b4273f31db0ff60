// Package observability provides structured logging, metrics, and tracing
// for unitcache registration and invocation paths.
//
// Logging uses slog (Go stdlib); metrics and tracing use OpenTelemetry.
// Everything is opt-in and has a no-op implementation when disabled.
package observability

import "log/slog"

// EnrichLogger adds invocation context to a logger.
// Returns a new logger with run_id, handle, and attempt fields.
func EnrichLogger(logger *slog.Logger, runID, handle string, attempt int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("handle", handle),
		slog.Int("attempt", attempt),
	)
}

// LogRegistration logs a freshly allocated backing record.
func LogRegistration(logger *slog.Logger, signature, handle, uid string) {
	if logger == nil {
		return
	}
	logger.Debug("record registered",
		slog.String("signature", signature),
		slog.String("handle", handle),
		slog.String("record_uid", uid),
	)
}

// LogRegistrationError logs a failed allocation.
func LogRegistrationError(logger *slog.Logger, signature string, err error) {
	if logger == nil {
		return
	}
	logger.Error("record allocation failed",
		slog.String("signature", signature),
		slog.String("error", err.Error()),
	)
}

// LogCacheHit logs a cache hit for an identity key.
func LogCacheHit(logger *slog.Logger, signature, handle string) {
	if logger == nil {
		return
	}
	logger.Debug("cache hit",
		slog.String("signature", signature),
		slog.String("handle", handle),
	)
}

// LogCacheMiss logs a first-use registration through the cache.
func LogCacheMiss(logger *slog.Logger, signature string) {
	if logger == nil {
		return
	}
	logger.Debug("cache miss, registering",
		slog.String("signature", signature),
	)
}

// LogRecordRemoved logs explicit teardown of a record.
func LogRecordRemoved(logger *slog.Logger, handle, uid string) {
	if logger == nil {
		return
	}
	logger.Debug("record removed",
		slog.String("handle", handle),
		slog.String("record_uid", uid),
	)
}

// LogInvokeStart logs the start of a unit invocation.
func LogInvokeStart(logger *slog.Logger, handle string) {
	if logger == nil {
		return
	}
	logger.Debug("unit starting",
		slog.String("handle", handle),
	)
}

// LogInvokeComplete logs successful unit completion.
func LogInvokeComplete(logger *slog.Logger, handle string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("unit completed",
		slog.String("handle", handle),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogInvokeError logs a failed unit invocation.
func LogInvokeError(logger *slog.Logger, handle string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("unit failed",
		slog.String("handle", handle),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}
