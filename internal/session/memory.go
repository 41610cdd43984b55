package session

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps sessions in process memory. Suitable for tests and
// single-instance deployments without Redis.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore builds an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]string)}
}

func (s *MemoryStore) Read(_ context.Context, sid string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.sessions[sid]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(values))
	maps.Copy(out, values)
	return out, nil
}

func (s *MemoryStore) Write(_ context.Context, sid string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sid]
	if !ok {
		current = make(map[string]string, len(values))
		s.sessions[sid] = current
	}
	maps.Copy(current, values)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[sid]
	if !ok {
		return nil
	}
	for _, key := range keys {
		delete(current, key)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}
