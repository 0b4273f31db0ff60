package unitcache

import (
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// IdentityKey identifies a unit by its static type signature.
//
// Keys are comparable values suitable for map indexing. Equality rests on
// the unit's reflect.Type, so two keys are equal exactly when they were
// derived from the same concrete type; the value a unit carries never
// influences its key. A 64-bit fingerprint of the signature travels with
// the key for durable storage, logs, and metrics, where a reflect.Type
// cannot go. Fingerprint collisions between distinct types are harmless:
// nothing resolves a key by fingerprint alone.
type IdentityKey struct {
	rtype       reflect.Type
	fingerprint uint64
}

// DeriveKey derives the identity key for u's concrete type.
// Deriving is pure and deterministic: the same type always yields the
// same key. Panics if u is nil, which is a programmer error.
func DeriveKey(u Unit) IdentityKey {
	if u == nil {
		panic("unitcache: cannot derive key for nil unit")
	}
	return deriveKeyForType(reflect.TypeOf(u))
}

// DeriveKeyFor derives the identity key for the type U without needing a
// value of it.
func DeriveKeyFor[U Unit]() IdentityKey {
	return deriveKeyForType(reflect.TypeOf((*U)(nil)).Elem())
}

// deriveKeyForType builds a key from a concrete reflect.Type.
func deriveKeyForType(t reflect.Type) IdentityKey {
	return IdentityKey{
		rtype:       t,
		fingerprint: xxhash.Sum64String(signatureOf(t)),
	}
}

// signatureOf returns the canonical signature string for t.
// Named types use the full import path so that "a.Task" in two packages
// never share a signature.
func signatureOf(t reflect.Type) string {
	if pkg := t.PkgPath(); pkg != "" && t.Name() != "" {
		return pkg + "." + t.Name()
	}
	return t.String()
}

// Type returns the reflect.Type the key was derived from.
func (k IdentityKey) Type() reflect.Type {
	return k.rtype
}

// Signature returns the canonical signature string.
func (k IdentityKey) Signature() string {
	if k.rtype == nil {
		return ""
	}
	return signatureOf(k.rtype)
}

// Fingerprint returns the 64-bit xxhash of the signature.
func (k IdentityKey) Fingerprint() uint64 {
	return k.fingerprint
}

// IsZero reports whether k is the zero key (derived from nothing).
func (k IdentityKey) IsZero() bool {
	return k.rtype == nil
}

// String returns the signature with fingerprint, for logs.
func (k IdentityKey) String() string {
	if k.IsZero() {
		return "key(none)"
	}
	return fmt.Sprintf("%s#%016x", k.Signature(), k.fingerprint)
}
