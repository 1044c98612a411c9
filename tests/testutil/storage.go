package testutil

import (
	"context"
	"sync"
)

// MemoryStorage is an in-memory media.Storage
type MemoryStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Puts    int
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{Objects: map[string][]byte{}}
}

func (s *MemoryStorage) Put(_ context.Context, key, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = body
	s.Puts++
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

func (s *MemoryStorage) URL(_ context.Context, key string) (string, error) {
	return "memory://" + key, nil
}

func (s *MemoryStorage) PutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Puts
}
