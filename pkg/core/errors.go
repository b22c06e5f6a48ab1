package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested document was not found.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates that a connection to a backing store failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrStorageOperation indicates that a store operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrLLMOperation indicates that an LLM call failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrQueueClosed indicates an enqueue on a closed write-behind queue.
	ErrQueueClosed = errors.New("write queue closed")

	// ErrJobLocked indicates that another consolidation instance holds the lock.
	ErrJobLocked = errors.New("consolidation lock held by another process")
)

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// SoulError wraps errors with operation context.
//
// It records which engine operation failed so that log lines and wrapped
// errors carry enough context for debugging.
//
// Example:
//
//	err := &SoulError{Op: "PutRelationship", Err: ErrStorageOperation}
//	// Error() returns: "soulmem: PutRelationship: storage operation failed"
type SoulError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message in the form "soulmem: <Op>: <Err>".
func (e *SoulError) Error() string {
	return fmt.Sprintf("soulmem: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *SoulError) Unwrap() error {
	return e.Err
}

// NewSoulError creates a new SoulError wrapping the given error.
// If err is nil, returns nil, so call sites can wrap unconditionally.
func NewSoulError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SoulError{Op: op, Err: err}
}
