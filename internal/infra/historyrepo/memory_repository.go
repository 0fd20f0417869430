package historyrepo

import (
	"context"
	"sync"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
)

// MemoryRepository is an in-memory HistoryRepository used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]tone.Record
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]tone.Record)}
}

// Save implements tone.HistoryRepository.
func (r *MemoryRepository) Save(_ context.Context, record tone.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = record
	return nil
}

// Get implements tone.HistoryRepository.
func (r *MemoryRepository) Get(_ context.Context, id string) (tone.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	return record, ok, nil
}

var _ tone.HistoryRepository = (*MemoryRepository)(nil)
