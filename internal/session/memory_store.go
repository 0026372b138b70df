package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	memberID  string
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Sessions do not survive a restart
// and are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, sid, memberID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.entries[sid] = memoryEntry{memberID: memberID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Lookup(_ context.Context, sid string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sid]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, sid)
		return "", ErrSessionNotFound
	}
	return e.memberID, nil
}

func (s *MemoryStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sid)
	return nil
}

// evictExpired must be called with mu held.
func (s *MemoryStore) evictExpired() {
	now := s.now()
	for sid, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, sid)
		}
	}
}
