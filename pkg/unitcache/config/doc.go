// Package config provides map-backed configuration with typed accessors
// and YAML/JSON file loading.
//
// Keys are dotted paths into nested maps:
//
//	store:
//	  backend: sqlite
//	  path: ./units.db
//	registry:
//	  max_records: 1024
//
//	cfg, err := config.FromFile("unitcache.yaml")
//	backend := cfg.String("store.backend", "memory")
//	max := cfg.Int("registry.max_records", 0)
//
// Accessors never fail; they fall back to the supplied default when a key
// is missing or holds a value of the wrong type. Pass the loaded Config
// to unitcache.Open to build a fully wired Runtime.
package config
