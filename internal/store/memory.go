package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/climate-viewer/internal/climate"
)

var (
	// ErrNotFound is returned when no dataset is cached under a key.
	ErrNotFound = errors.New("no cached dataset for key")
)

// MemoryStore is a concurrency-safe in-memory cache of downloaded datasets.
type MemoryStore struct {
	mu sync.RWMutex

	// key: file|start|end, value: dataset
	data map[string]climate.Dataset
	// insertion order, oldest first
	order []string

	// retention configuration
	maxEntries int           // max number of cached datasets
	maxAge     time.Duration // optional max age for datasets
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries or maxAge is <= 0, that limit is treated as unlimited.
func NewMemoryStore(maxEntries int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]climate.Dataset),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

// Save stores a dataset and enforces retention by count. Entries under
// other keys that point at the same file are dropped: the file now holds
// only the window of ds.
func (s *MemoryStore) Save(key string, ds climate.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	for _, k := range s.order {
		if k == key || s.data[k].File == ds.File {
			delete(s.data, k)
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	s.data[key] = ds
	s.order = append(s.order, key)

	if s.maxEntries > 0 && len(s.order) > s.maxEntries {
		over := len(s.order) - s.maxEntries
		for _, k := range s.order[:over] {
			delete(s.data, k)
		}
		s.order = s.order[over:]
	}
}

// Get returns the dataset stored under key, unless it has expired.
func (s *MemoryStore) Get(key string) (climate.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.data[key]
	if !ok || s.expired(ds, time.Now()) {
		return climate.Dataset{}, ErrNotFound
	}
	return ds, nil
}

// Len returns the number of cached datasets, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Prune drops datasets older than maxAge at now and returns how many were removed.
func (s *MemoryStore) Prune(now time.Time) int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.order[:0]
	removed := 0
	for _, k := range s.order {
		if s.expired(s.data[k], now) {
			delete(s.data, k)
			removed++
			continue
		}
		kept = append(kept, k)
	}
	s.order = kept
	return removed
}

func (s *MemoryStore) expired(ds climate.Dataset, now time.Time) bool {
	return s.maxAge > 0 && ds.FetchedAt.Before(now.Add(-s.maxAge))
}
