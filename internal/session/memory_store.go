package session

import (
	"context"
	"sync"
	"time"
)

// maxSweepInterval bounds how long expired entries may linger when the TTL
// is long.
const maxSweepInterval = time.Minute

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-instance runs.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	entries   map[string]memoryEntry
	lastSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		return nil, nil
	}
	data := entry.data
	return &data, nil
}

func (s *MemoryStore) Set(ctx context.Context, id string, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[id] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

// sweep drops expired entries at most once per sweep interval. Callers hold
// s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	interval := s.ttl
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	if now.Sub(s.lastSweep) < interval {
		return
	}
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
	s.lastSweep = now
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
