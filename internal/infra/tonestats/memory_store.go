package tonestats

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
)

// MemoryStore counts dominant tones in process memory for tests/dev.
type MemoryStore struct {
	mu     sync.RWMutex
	counts map[string]int64
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counts: make(map[string]int64)}
}

// Increment implements tone.StatsStore.
func (s *MemoryStore) Increment(_ context.Context, categoryID, toneID string) error {
	if toneID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[member(categoryID, toneID)]++
	return nil
}

// Top returns the most frequent dominant tones.
func (s *MemoryStore) Top(_ context.Context, limit int) ([]tone.TrendingTone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = len(s.counts)
	}
	items := make([]tone.TrendingTone, 0, len(s.counts))
	for key, count := range s.counts {
		categoryID, toneID := splitMember(key)
		items = append(items, tone.TrendingTone{CategoryID: categoryID, ToneID: toneID, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return member(items[i].CategoryID, items[i].ToneID) < member(items[j].CategoryID, items[j].ToneID)
		}
		return items[i].Count > items[j].Count
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func member(categoryID, toneID string) string {
	return categoryID + "/" + toneID
}

func splitMember(value string) (string, string) {
	categoryID, toneID, ok := strings.Cut(value, "/")
	if !ok {
		return "", value
	}
	return categoryID, toneID
}

var _ tone.StatsStore = (*MemoryStore)(nil)
