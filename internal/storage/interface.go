// Package storage abstracts the object store holding completed uploads.
// The hook service never caches object state: size, content type, and
// metadata are re-queried on every call because tusd may finish or replace
// an object between requests.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors implementations map backend failures onto. Handlers use
// them to choose the response status: ErrNotFound -> 404, ErrUnavailable
// -> 503 (retry recommended).
var (
	ErrNotFound    = errors.New("object not found")
	ErrUnavailable = errors.New("storage unavailable")
)

// ObjectInfo describes a stored object as reported by the backend.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
	// Metadata is the user metadata persisted with the object. Key casing
	// and prefixing vary by backend client; consumers must not assume a
	// canonical form.
	Metadata map[string]string
}

// ObjectStore is the capability the hook service needs from its backend.
type ObjectStore interface {
	// Stat returns the object's current metadata.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	// Get returns a reader for the object body. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put streams an object into the store with the given content type and
	// user metadata. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) error

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Error wraps a backend failure with the operation and key involved.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return e.Op + " " + e.Key + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error with the given details.
func NewError(op, key string, err error) *Error {
	return &Error{Op: op, Key: key, Err: err}
}
