package unitcache

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors for registration.
var (
	// ErrNilUnit indicates a nil Unit was passed to a registration path.
	ErrNilUnit = errors.New("unit cannot be nil")

	// ErrPayloadNotZeroSized indicates a unit's concrete type carries
	// payload and therefore cannot use the type-indexed cache.
	ErrPayloadNotZeroSized = errors.New("unit payload is not zero-sized")

	// ErrAllocationFailed indicates the registry could not allocate a
	// backing-state record. Callers may retry later; no partial record
	// or cache entry is left behind.
	ErrAllocationFailed = errors.New("backing record allocation failed")

	// ErrRegistryClosed indicates the registry has been closed.
	ErrRegistryClosed = errors.New("registry closed")
)

// Sentinel errors for invocation.
var (
	// ErrHandleNotFound indicates a handle references no live record.
	ErrHandleNotFound = errors.New("handle not found")
)

// PayloadError reports the type that was refused by the cached path.
type PayloadError struct {
	// Type is the concrete unit type.
	Type reflect.Type
	// Size is the type's static size in bytes.
	Size uintptr
}

// Error implements the error interface.
func (e *PayloadError) Error() string {
	return fmt.Sprintf("unit type %s carries %d bytes of payload and cannot be cached by type", e.Type, e.Size)
}

// Unwrap returns ErrPayloadNotZeroSized for errors.Is support.
func (e *PayloadError) Unwrap() error {
	return ErrPayloadNotZeroSized
}

// AllocationError wraps a failed backing-record allocation.
type AllocationError struct {
	// Signature is the signature of the unit being registered.
	Signature string
	// Cause is the underlying failure, or nil when capacity was exhausted.
	Cause error
}

// Error implements the error interface.
func (e *AllocationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("allocate record for %s: %v", e.Signature, e.Cause)
	}
	return fmt.Sprintf("allocate record for %s: capacity exhausted", e.Signature)
}

// Unwrap returns ErrAllocationFailed for errors.Is support.
func (e *AllocationError) Unwrap() error {
	return ErrAllocationFailed
}

// InvokeError wraps an error from running a unit through the Runtime.
type InvokeError struct {
	// Handle is the handle that was invoked.
	Handle Handle
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	return fmt.Sprintf("run %s: %v", e.Handle, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *InvokeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a unit's Run method.
// It includes the stack trace for debugging.
type PanicError struct {
	// Handle is the handle whose unit panicked.
	Handle Handle
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Handle, e.Value)
}
