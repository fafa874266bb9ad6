package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for event operations.
var (
	// ErrValidation is returned when a required field is missing.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned for a duplicate event name or a duplicate registrant email.
	ErrConflict = errors.New("conflict")
	// ErrNotFound is returned when the target event does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorruptTable is wrapped by StorageError when a table exists but cannot be decoded.
	ErrCorruptTable = errors.New("table data is corrupt")
)

// StorageError reports a failed read or write of one table.
type StorageError struct {
	Table Table
	Op    string // "get" or "put"
	Err   error
}

// NewStorageError wraps err for the given table and operation.
func NewStorageError(table Table, op string, err error) *StorageError {
	return &StorageError{Table: table, Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is a storage read that found undecodable data.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptTable)
}
