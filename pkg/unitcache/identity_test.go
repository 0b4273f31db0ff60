package unitcache

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeriveKey_SameTypeSameKey verifies deriving is pure and deterministic.
func TestDeriveKey_SameTypeSameKey(t *testing.T) {
	k1 := DeriveKey(pruneUnit{})
	k2 := DeriveKey(pruneUnit{})

	assert.Equal(t, k1, k2)
	assert.True(t, k1 == k2, "keys must be comparable with ==")
	assert.Equal(t, k1.Fingerprint(), k2.Fingerprint())
}

// TestDeriveKey_DistinctTypesDistinctKeys verifies per-type isolation.
func TestDeriveKey_DistinctTypesDistinctKeys(t *testing.T) {
	k1 := DeriveKey(pruneUnit{})
	k2 := DeriveKey(compactUnit{})

	assert.NotEqual(t, k1, k2)
	assert.NotEqual(t, k1.Signature(), k2.Signature())
	assert.NotEqual(t, k1.Fingerprint(), k2.Fingerprint())
}

// TestDeriveKey_IgnoresPayload verifies the key depends on the type only.
func TestDeriveKey_IgnoresPayload(t *testing.T) {
	k1 := DeriveKey(payloadUnit{threshold: 1})
	k2 := DeriveKey(payloadUnit{threshold: 99})

	assert.Equal(t, k1, k2, "payload must not influence the key")
}

// TestDeriveKeyFor_MatchesValueDerivation verifies the type-indexed path.
func TestDeriveKeyFor_MatchesValueDerivation(t *testing.T) {
	assert.Equal(t, DeriveKey(pruneUnit{}), DeriveKeyFor[pruneUnit]())
	assert.Equal(t, DeriveKey(compactUnit{}), DeriveKeyFor[compactUnit]())
}

// TestDeriveKey_NilPanics verifies nil is rejected as a programmer error.
func TestDeriveKey_NilPanics(t *testing.T) {
	assert.Panics(t, func() {
		DeriveKey(nil)
	})
}

// TestIdentityKey_Signature verifies the canonical signature format.
func TestIdentityKey_Signature(t *testing.T) {
	k := DeriveKey(pruneUnit{})

	sig := k.Signature()
	require.NotEmpty(t, sig)
	assert.Contains(t, sig, "pruneUnit")
	assert.Contains(t, sig, "unitcache", "named types carry their import path")
	assert.Equal(t, reflect.TypeOf(pruneUnit{}), k.Type())
}

// TestIdentityKey_Zero verifies zero-key behavior.
func TestIdentityKey_Zero(t *testing.T) {
	var k IdentityKey
	assert.True(t, k.IsZero())
	assert.Empty(t, k.Signature())
	assert.Equal(t, "key(none)", k.String())
}

// TestCheckCacheable covers the zero-payload guard.
func TestCheckCacheable(t *testing.T) {
	testCases := []struct {
		name string
		unit Unit
		ok   bool
	}{
		{"empty struct", pruneUnit{}, true},
		{"second empty struct", compactUnit{}, true},
		{"struct with field", payloadUnit{threshold: 3}, false},
		{"zero value with field", payloadUnit{}, false},
		{"pointer to empty struct", &pruneUnit{}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckCacheable(tc.unit)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPayloadNotZeroSized)

			var perr *PayloadError
			require.ErrorAs(t, err, &perr)
			assert.NotZero(t, perr.Size)
		})
	}
}

// TestCheckCacheable_Nil verifies the nil guard.
func TestCheckCacheable_Nil(t *testing.T) {
	assert.ErrorIs(t, CheckCacheable(nil), ErrNilUnit)
}
