package archive

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
)

// MemoryArchive keeps payloads in memory. Useful for tests and local dev.
type MemoryArchive struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryArchive constructs an empty archive.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{blobs: make(map[string][]byte)}
}

// Put stores a copy of data under key.
func (a *MemoryArchive) Put(_ context.Context, key string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Get returns a reader for the stored payload.
func (a *MemoryArchive) Get(_ context.Context, key string) (io.ReadCloser, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return io.NopCloser(bytes.NewReader(data)), true, nil
}

var _ tone.PayloadArchive = (*MemoryArchive)(nil)
