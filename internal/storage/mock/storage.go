// Package mock provides an in-memory implementation of storage.ObjectStore
// for testing. It stores objects in memory and supports error injection.
package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/lmeng-dev/tusgate/internal/storage"
)

// Object is one stored object with its body and metadata.
type Object struct {
	Body         []byte
	ContentType  string
	ETag         string
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectStore is an in-memory storage.ObjectStore for tests.
type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string]*Object

	// Error injection
	StatError   error
	GetError    error
	PutError    error
	DeleteError error
	PingError   error
}

// New creates an empty mock store.
func New() *ObjectStore {
	return &ObjectStore{
		objects: make(map[string]*Object),
	}
}

// Ensure ObjectStore implements storage.ObjectStore
var _ storage.ObjectStore = (*ObjectStore)(nil)

// SetObject seeds the store with an object.
func (s *ObjectStore) SetObject(key string, obj *Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.LastModified.IsZero() {
		obj.LastModified = time.Now().UTC()
	}
	if obj.ETag == "" {
		obj.ETag = fmt.Sprintf("etag-%s", key)
	}
	s.objects[key] = obj
}

// Stat returns the object's metadata.
func (s *ObjectStore) Stat(ctx context.Context, key string) (*storage.ObjectInfo, error) {
	if s.StatError != nil {
		return nil, s.StatError
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.NewError("Stat", key, storage.ErrNotFound)
	}

	meta := make(map[string]string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		meta[k] = v
	}

	return &storage.ObjectInfo{
		Key:          key,
		Size:         int64(len(obj.Body)),
		ContentType:  obj.ContentType,
		ETag:         obj.ETag,
		LastModified: obj.LastModified,
		Metadata:     meta,
	}, nil
}

// Get returns a reader over the object body.
func (s *ObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.GetError != nil {
		return nil, s.GetError
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, storage.NewError("Get", key, storage.ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(obj.Body)), nil
}

// Put stores an object.
func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, metadata map[string]string) error {
	if s.PutError != nil {
		return s.PutError
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return storage.NewError("Put", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = &Object{
		Body:         body,
		ContentType:  contentType,
		ETag:         fmt.Sprintf("etag-%s", key),
		LastModified: time.Now().UTC(),
		Metadata:     metadata,
	}
	return nil
}

// Delete removes an object; missing objects are not an error.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	if s.DeleteError != nil {
		return s.DeleteError
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Ping reports injected availability.
func (s *ObjectStore) Ping(ctx context.Context) error {
	return s.PingError
}
