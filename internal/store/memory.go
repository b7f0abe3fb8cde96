package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memberScore struct {
	member string
	score  int64
}

type stringEntry struct {
	value     string
	expiresAt time.Time
}

type setEntry struct {
	members   []memberScore
	expiresAt time.Time
}

// MemoryStore is an in-process Store honoring the same atomic-pipeline
// contract as RedisStore. It exists for unit tests and local development;
// state is not shared across instances. The clock is injectable so tests
// can advance time past TTLs and window cutoffs.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]stringEntry
	sets    map[string]setEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]stringEntry),
		sets:    make(map[string]setEntry),
		now:     time.Now,
	}
}

// SetClock overrides the store's notion of now. Test use only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) SlideWindow(_ context.Context, key string, cutoff int64, member string, score int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.sets[key]
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		entry = setEntry{}
	}

	kept := entry.members[:0]
	for _, m := range entry.members {
		if m.score > cutoff {
			kept = append(kept, m)
		}
	}
	count := int64(len(kept))

	replaced := false
	for i, m := range kept {
		if m.member == member {
			kept[i].score = score
			replaced = true
			break
		}
	}
	if !replaced {
		kept = append(kept, memberScore{member: member, score: score})
	}

	entry.members = kept
	entry.expiresAt = s.now().Add(ttl)
	s.sets[key] = entry
	return count, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.strings[key]
	if !ok || !s.now().Before(entry.expiresAt) {
		delete(s.strings, key)
		return "", ErrNotFound
	}
	return entry.value, nil
}

func (s *MemoryStore) SetEx(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strings[key] = stringEntry{value: value, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) CountKeys(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var count int64
	for key, entry := range s.strings {
		if strings.HasPrefix(key, prefix) && now.Before(entry.expiresAt) {
			count++
		}
	}
	for key, entry := range s.sets {
		if strings.HasPrefix(key, prefix) && now.Before(entry.expiresAt) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
