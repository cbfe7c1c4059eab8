package intakestore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinscribe/intake/internal/domain/intake"
)

type cachedEntry struct {
	record    intake.CachedResult
	expiresAt time.Time
}

// MemoryStore keeps cache data in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	results map[string]cachedEntry
	counts  map[string]int64
	display map[string]string
}

// NewMemoryStore constructs the in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results: make(map[string]cachedEntry),
		counts:  make(map[string]int64),
		display: make(map[string]string),
	}
}

func (s *MemoryStore) GetResult(_ context.Context, canonical string) (intake.CachedResult, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.results[canonical]
	if !ok {
		return intake.CachedResult{}, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.results, canonical)
		return intake.CachedResult{}, false, nil
	}
	return entry.record, true, nil
}

func (s *MemoryStore) SaveResult(_ context.Context, canonical string, record intake.CachedResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := cachedEntry{record: record}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.results[canonical] = entry
	return nil
}

func (s *MemoryStore) IncrementTerm(_ context.Context, canonical, display string) error {
	if canonical == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[canonical]++
	if _, ok := s.display[canonical]; !ok && display != "" {
		s.display[canonical] = display
	}
	return nil
}

func (s *MemoryStore) TopTerms(_ context.Context, limit int) ([]intake.TrendingTerm, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	type pair struct {
		canonical string
		count     int64
	}
	pairs := make([]pair, 0, len(s.counts))
	for canonical, count := range s.counts {
		pairs = append(pairs, pair{canonical: canonical, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].canonical < pairs[j].canonical
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]intake.TrendingTerm, 0, len(pairs))
	for _, p := range pairs {
		display := s.display[p.canonical]
		if display == "" {
			display = p.canonical
		}
		out = append(out, intake.TrendingTerm{Term: display, Count: p.count})
	}
	return out, nil
}

var _ intake.Store = (*MemoryStore)(nil)
