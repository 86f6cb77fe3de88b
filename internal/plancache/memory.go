package plancache

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Entries are kept encoded so that it
// exercises the same codec as SQLiteStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key][]byte
}

// NewMemory returns an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{entries: make(map[Key][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Variant != keys[j].Variant {
			return keys[i].Variant < keys[j].Variant
		}
		return keys[i].N < keys[j].N
	})

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e, err := decode(k, s.entries[k])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		b, err := encode(e)
		if err != nil {
			return err
		}
		s.entries[e.Key()] = b
	}
	return nil
}

// Put stores a raw payload under key. It is meant for tests that need to
// simulate damaged content.
func (s *MemoryStore) Put(key Key, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = payload
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
