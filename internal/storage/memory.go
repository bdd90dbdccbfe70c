package storage

import (
	"context"
	"encoding/json"
	"sync"
)

type MemoryStorage struct {
	mu     sync.RWMutex
	scopes map[Scope]map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		scopes: map[Scope]map[string][]byte{
			ScopeSync:  make(map[string][]byte),
			ScopeLocal: make(map[string][]byte),
		},
	}
}

func (s *MemoryStorage) Get(ctx context.Context, scope Scope, keys ...string) (map[string]json.RawMessage, error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		if value, exists := s.scopes[scope][key]; exists {
			result[key] = append(json.RawMessage(nil), value...)
		}
	}
	return result, nil
}

func (s *MemoryStorage) Set(ctx context.Context, scope Scope, values map[string]any) error {
	if err := checkScope(scope); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	keys, encoded, err := encodeValues(values)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		s.scopes[scope][key] = encoded[key]
	}
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
