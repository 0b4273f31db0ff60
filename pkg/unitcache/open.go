package unitcache

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/unitcache/pkg/unitcache/config"
	"github.com/randalmurphal/unitcache/pkg/unitcache/observability"
	"github.com/randalmurphal/unitcache/pkg/unitcache/store"
)

// Config keys understood by Open.
//
//	store.backend          "memory" (default), "sqlite", or "none"
//	store.path             sqlite file path (default "./unitcache.db")
//	registry.max_records   cap on live records, 0 = unlimited
//	cache.enabled          deduplicate handles by unit type (default true)
//	observability.metrics  enable OTel metrics (default false)
//	observability.tracing  enable OTel tracing (default false)

// Open builds a fully wired Runtime from configuration.
//
// Example:
//
//	cfg, err := config.FromFile("unitcache.yaml")
//	if err != nil { ... }
//	rt, err := unitcache.Open(cfg, unitcache.WithRuntimeLogger(logger))
func Open(cfg config.Config, opts ...RuntimeOption) (*Runtime, error) {
	var wired []RuntimeOption

	backend := cfg.String("store.backend", "memory")
	switch backend {
	case "memory":
		wired = append(wired, WithRuntimeStore(store.NewMemoryStore()))
	case "sqlite":
		path := cfg.String("store.path", "./unitcache.db")
		s, err := store.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		wired = append(wired, WithRuntimeStore(s))
	case "none":
		// Records live in memory only, without store semantics.
	default:
		return nil, fmt.Errorf("unknown store backend: %q", backend)
	}

	if max := cfg.Int("registry.max_records", 0); max > 0 {
		wired = append(wired, WithRuntimeMaxRecords(max))
	}
	if !cfg.Bool("cache.enabled", true) {
		wired = append(wired, WithCaching(false))
	}
	if cfg.Bool("observability.metrics", false) {
		wired = append(wired, WithRuntimeMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Bool("observability.tracing", false) {
		wired = append(wired, WithTracing(true))
	}

	// Caller options run last so they can override the wired defaults.
	wired = append(wired, opts...)
	rt := NewRuntime(wired...)

	if rt.logger != nil {
		rt.logger.Info("unitcache runtime opened",
			slog.String("store_backend", backend),
			slog.Int("max_records", cfg.Int("registry.max_records", 0)),
		)
	}
	return rt, nil
}
