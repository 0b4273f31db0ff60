// Package registry provides a generic thread-safe map for values indexed by key.
//
// The unit registry uses it for the handle-to-record index, and the
// runtime uses it for per-handle bookkeeping. It supports any comparable
// key type and any value type through Go generics:
//
//	r := registry.New[string, int]()
//	r.Register("one", 1)
//
//	value, ok := r.Get("one")
//
// All methods are safe for concurrent use. Range iterates over a
// snapshot, so entries may be registered or deleted during iteration
// without affecting the iteration itself.
//
// The package deliberately has no get-or-create primitive: lazy,
// exactly-once creation with error propagation is the job of
// unitcache.Cache, and keeping a second, error-less variant here would
// invite misuse.
package registry
