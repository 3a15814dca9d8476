package session

import (
	"context"
	"sync"
)

// Store persists sessions by key. Load returns ErrNotFound for unknown keys.
type Store interface {
	Load(ctx context.Context, key string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, key string) error
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[key]
	if !ok {
		return nil, ErrNotFound
	}

	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.Key] = *s

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, key)

	return nil
}
