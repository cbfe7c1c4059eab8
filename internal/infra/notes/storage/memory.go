package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	domain "github.com/clinscribe/intake/internal/domain/notes"
)

// MemoryStorage keeps note blobs in process memory for tests/dev.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	mimes   map[string]string
}

// NewMemoryStorage constructs the in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
		mimes:   make(map[string]string),
	}
}

func (s *MemoryStorage) Put(_ context.Context, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	s.mimes[key] = mimeType
	return domain.StoredObject{
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     "memory",
	}, nil
}

func (s *MemoryStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.mimes, key)
	return nil
}

var _ domain.ObjectStorage = (*MemoryStorage)(nil)
