package tone

import (
	"context"
	"io"
)

// Analyzer calls the remote tone service. It returns the decoded analysis
// together with the raw response payload.
type Analyzer interface {
	GetTone(ctx context.Context, text string) (ToneAnalysis, []byte, error)
	Version() string
}

// Decoder turns a raw response payload into a ToneAnalysis.
type Decoder func(body []byte) (ToneAnalysis, error)

// HistoryRepository persists analyses.
type HistoryRepository interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, bool, error)
}

// StatsStore counts dominant tones.
type StatsStore interface {
	Increment(ctx context.Context, categoryID, toneID string) error
	Top(ctx context.Context, limit int) ([]TrendingTone, error)
}

// PayloadArchive keeps raw service payloads so they can be decoded again.
type PayloadArchive interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) (io.ReadCloser, bool, error)
}
