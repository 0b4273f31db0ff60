// Package unitcache provides idempotent handle registration for runnable units.
//
// A Unit is a runnable piece of logic identified by its concrete Go type.
// The Registry allocates a fresh backing-state record for every Register
// call and hands back an opaque Handle. The Cache sits on top of the
// Registry and guarantees that repeated requests for the same unit type
// return the same Handle, registering the unit lazily on first use:
//
//	reg := unitcache.NewRegistry()
//	cache := unitcache.NewCache(reg)
//
//	h1, _ := cache.GetOrRegister(pruneExpired{})
//	h2, _ := cache.GetOrRegister(pruneExpired{}) // h2 == h1, no new record
//
// The cache is indexed purely by the unit's static type, never by its
// value. That is only sound when every value of a given type is
// indistinguishable, so the cached path accepts zero-size types only
// (empty structs). Units that carry payload are rejected with
// ErrPayloadNotZeroSized before anything is registered; they can still
// use Registry.Register directly, which never deduplicates.
//
// For callers that want the type, not a value, to be the request, the
// generic entry point skips the value entirely:
//
//	h, err := unitcache.GetOrRegisterFor[pruneExpired](cache)
//
// Registered handles are invoked through Runtime.Run, which adds
// cancellation checks, panic recovery, structured logging, and optional
// OpenTelemetry metrics and tracing around the unit's Run method.
package unitcache
