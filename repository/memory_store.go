package repository

import (
	"context"
	"sync"
	"time"

	"teknologiumum.com/pesto/models"
)

type memoryEntry struct {
	value     string
	list      []string
	isList    bool
	expiresAt time.Time
}

// MemoryStore is an in-process RecordStore with expiry. It backs the
// gateway when no Redis URL is configured and serves as the store in tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for expiry.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// lookup returns the live entry at key, dropping it if it has expired.
func (s *MemoryStore) lookup(key string) *memoryEntry {
	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil
	}
	return e
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return "", false, nil
	}
	if e.isList {
		return "", false, wrongType("get", key)
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{value: value}
	return nil
}

func (s *MemoryStore) SetWithExpiry(_ context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt time.Time
	if e := s.lookup(key); e != nil {
		expiresAt = e.expiresAt
	}
	s.entries[key] = &memoryEntry{value: value, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) ListAppend(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		e = &memoryEntry{isList: true}
		s.entries[key] = e
	}
	if !e.isList {
		return wrongType("rpush", key)
	}
	e.list = append(e.list, value)
	return nil
}

func (s *MemoryStore) ListRange(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil {
		return []string{}, nil
	}
	if !e.isList {
		return nil, wrongType("lrange", key)
	}
	out := make([]string, len(e.list))
	copy(out, e.list)
	return out, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lookup(key) != nil {
		return false, nil
	}
	s.entries[key] = &memoryEntry{value: "running", expiresAt: s.now().Add(ttl)}
	return true, nil
}

// TTL reports the remaining lifetime of key. ok is false when the key is
// absent or has no expiry.
func (s *MemoryStore) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(key)
	if e == nil || e.expiresAt.IsZero() {
		return 0, false
	}
	return e.expiresAt.Sub(s.now()), true
}

func wrongType(op string, key string) error {
	return &models.KindError{Kind: models.ErrDecode, Msg: op + " " + key + ": WRONGTYPE Operation against a key holding the wrong kind of value"}
}
