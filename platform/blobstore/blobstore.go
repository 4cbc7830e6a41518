// Package blobstore holds binary payloads for the resource store. Metadata
// about a payload lives elsewhere, a BlobStore only moves bytes and hands
// back a URL that readers can resolve directly.
package blobstore

import (
	"context"
	"fmt"
	"sync"
)

type BlobStore interface {
	// Put stores the payload under key, overwriting any existing object, and
	// returns a resolvable URL for it.
	Put(ctx context.Context, key, contentType string, payload []byte) (string, error)

	// Delete removes the object under key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps blobs in process memory. It exists for tests and local
// development without cloud credentials.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, key, contentType string, payload []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.blobs[key] = buf

	return fmt.Sprintf("memory://%s", key), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

// Get returns the stored payload, or nil if the key is absent.
func (s *MemoryStore) Get(key string) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blobs[key]
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.blobs)
}
