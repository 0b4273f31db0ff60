package unitcache

import "fmt"

// Handle is an opaque, stable reference to one backing-state record.
//
// Handles are plain values: copy them, compare them with ==, use them as
// map keys. Two handles are equal exactly when they reference the same
// record. A Registry never reuses an index, so a handle stays distinct
// from every other handle that registry ever issued, even after the
// record it references is removed.
//
// The zero Handle references nothing and is returned alongside errors.
type Handle struct {
	idx uint64
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.idx == 0
}

// String returns a short identifier for logs and metrics.
func (h Handle) String() string {
	if h.IsZero() {
		return "unit(none)"
	}
	return fmt.Sprintf("unit-%d", h.idx)
}
