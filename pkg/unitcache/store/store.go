// Package store provides durable storage for backing-state record metadata.
package store

import (
	"errors"
	"time"
)

// Store persists backing-state records so a process can audit or rebuild
// its registrations after a restart.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a record. Saving an existing UID overwrites it.
	Save(rec Record) error

	// Load retrieves a record by UID.
	// Returns ErrNotFound if the record doesn't exist.
	Load(uid string) (Record, error)

	// List returns all records, ordered by creation time.
	// Returns an empty slice (not an error) when the store is empty.
	List() ([]Record, error)

	// Delete removes a record.
	// Returns nil if the record doesn't exist.
	Delete(uid string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is the durable image of one backing-state record.
type Record struct {
	// UID is the record's globally unique identifier.
	UID string
	// Signature is the canonical type signature of the registered unit.
	Signature string
	// Fingerprint is the 64-bit hash of the signature.
	Fingerprint uint64
	// CreatedAt is when the record was allocated.
	CreatedAt time.Time
	// State is the opaque execution state blob. May be nil.
	State []byte
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("record store closed")
)
