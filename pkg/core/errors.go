// Package core provides the vecmem client: per-role memory stores with admission
// filtering, nearest-neighbor recall and capacity-triggered eviction.
package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Test for them with errors.Is; every error returned by the client
// wraps at most one of them.
var (
	// ErrInvalidConfig is returned by Validate, the config loaders and NewClient.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed marks a failed embedding call. The client logs it and
	// degrades instead of returning it.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrInvalidInput is returned for an empty role id.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageOperation is returned when artifacts cannot be read or written.
	ErrStorageOperation = errors.New("storage operation failed")
)

// MemoryError records the client operation that failed.
//
// A persistence failure during Save reads:
//
//	vecmem: Save: storage operation failed: persist: rename ...: permission denied
//
// and an unreadable store on first use:
//
//	vecmem: ClearAll: storage operation failed: read metadata: connection refused
type MemoryError struct {
	// Op is the client operation (Save, ClearAll, NewClient, Validate, ...).
	Op string

	// Err is the underlying error.
	Err error
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("vecmem: %s: %v", e.Op, e.Err)
}

func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError wraps err with op, and returns nil for a nil err.
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{Op: op, Err: err}
}
