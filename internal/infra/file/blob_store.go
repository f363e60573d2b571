// Package file keeps named blobs in a single JSON document on local disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// BlobStore persists blobs as one JSON object keyed by blob name. Every write
// rewrites the file through a temp file and rename.
type BlobStore struct {
	path string
	mu   sync.Mutex
}

func NewBlobStore(path string) (*BlobStore, error) {
	if path == "" {
		return nil, errors.New("blob store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &BlobStore{path: path}, nil
}

func (s *BlobStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blobs, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := blobs[key]
	return v, ok, nil
}

func (s *BlobStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blobs, err := s.read()
	if err != nil {
		return err
	}
	blobs[key] = value
	return s.write(blobs)
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	blobs, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := blobs[key]; !ok {
		return nil
	}
	delete(blobs, key)
	return s.write(blobs)
}

func (s *BlobStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	blobs := map[string]string{}
	if len(raw) == 0 {
		return blobs, nil
	}
	if err := json.Unmarshal(raw, &blobs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return blobs, nil
}

func (s *BlobStore) write(blobs map[string]string) error {
	raw, err := json.MarshalIndent(blobs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode blobs: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".blobs-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
