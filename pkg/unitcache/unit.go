package unitcache

import "reflect"

// Unit is a runnable unit of logic.
//
// The concrete type of a Unit is its identity: the Cache deduplicates
// registrations by type, never by value. Implement Unit on a named empty
// struct to make it cacheable:
//
//	type pruneExpired struct{}
//
//	func (pruneExpired) Run(ctx unitcache.Context) error {
//	    ...
//	}
//
// Units that capture data (non-empty structs, func values, pointers) are
// valid for Registry.Register but are refused by the cached path, because
// two values of such a type are distinguishable and would silently alias
// one another under a type-indexed cache.
type Unit interface {
	// Run executes the unit. It is called through Runtime.Run with a
	// context carrying the handle, run ID, and an enriched logger.
	Run(ctx Context) error
}

// CheckCacheable reports whether u may use the cached registration path.
//
// It returns nil for units whose concrete type occupies zero bytes, and a
// *PayloadError wrapping ErrPayloadNotZeroSized otherwise. The check runs
// before any lookup or registration, so a rejected unit never creates a
// record and never claims a cache key.
func CheckCacheable(u Unit) error {
	if u == nil {
		return ErrNilUnit
	}
	return checkCacheableType(reflect.TypeOf(u))
}

// checkCacheableType is the type-level form shared with the generic path.
func checkCacheableType(t reflect.Type) error {
	if size := t.Size(); size != 0 {
		return &PayloadError{Type: t, Size: size}
	}
	return nil
}
