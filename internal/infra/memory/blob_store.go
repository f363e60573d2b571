package memory

import (
	"context"
	"sync"
)

// BlobStore is an in-process named-blob store. Contents are lost on restart.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]string
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]string)}
}

func (s *BlobStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.blobs[key]
	return v, ok, nil
}

func (s *BlobStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = make(map[string]string)
	}
	s.blobs[key] = value
	return nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}
