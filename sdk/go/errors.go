package tusclient

import (
	"errors"
	"fmt"
)

// Standard errors returned by the client.
var (
	// ErrValidation indicates invalid input parameters.
	ErrValidation = errors.New("validation error")
	// ErrEmptySource indicates an attempt to upload zero bytes.
	ErrEmptySource = errors.New("cannot upload empty source")
)

// ValidationError represents an input validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap returns ErrValidation for errors.Is support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// CreateError represents a failure to create an upload session.
type CreateError struct {
	// Message describes what went wrong.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

func (e *CreateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("create upload failed: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("create upload failed: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *CreateError) Unwrap() error {
	return e.Err
}

// ChunkError represents a chunk append that failed after all retries.
// Offset is the acknowledged offset before the failing chunk; it has
// not advanced.
type ChunkError struct {
	// Offset is the session offset at which the chunk was to be appended.
	Offset int64
	// Attempts is how many times the append was tried.
	Attempts int
	// Err is the last underlying cause.
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk append at offset %d failed after %d attempts: %v", e.Offset, e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *ChunkError) Unwrap() error {
	return e.Err
}

// ProbeError represents a failed upload info query.
type ProbeError struct {
	// URL is the upload being probed.
	URL string
	// Err is the underlying cause.
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe upload %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProbeError) Unwrap() error {
	return e.Err
}
