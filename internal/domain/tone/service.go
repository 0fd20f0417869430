package tone

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/tone-analyzer/pkg/errors"
	"github.com/yanqian/tone-analyzer/pkg/util"
)

const defaultMaxTextBytes = 128 << 10

// Service exposes tone analysis capabilities.
type Service interface {
	Analyze(ctx context.Context, req Request) (Response, error)
	Get(ctx context.Context, id string) (Response, error)
	Replay(ctx context.Context, id string) (Response, error)
	Trending(ctx context.Context, limit int) ([]TrendingTone, error)
}

type service struct {
	cfg      Config
	analyzer Analyzer
	decode   Decoder
	history  HistoryRepository
	stats    StatsStore
	archive  PayloadArchive
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires up the tone domain.
func NewService(cfg Config, analyzer Analyzer, decode Decoder, history HistoryRepository, stats StatsStore, archive PayloadArchive, logger *slog.Logger) Service {
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = defaultMaxTextBytes
	}
	return &service{
		cfg:      cfg,
		analyzer: analyzer,
		decode:   decode,
		history:  history,
		stats:    stats,
		archive:  archive,
		logger:   logger.With("component", "tone.service"),
		now:      util.NowUTC,
		newID:    func() string { return uuid.NewString() },
	}
}

func (s *service) Analyze(ctx context.Context, req Request) (Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil)
	}
	if len(text) > s.cfg.MaxTextBytes {
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("text exceeds %d bytes", s.cfg.MaxTextBytes), nil)
	}

	analysis, payload, err := s.analyzer.GetTone(ctx, text)
	if err != nil {
		return Response{}, err
	}

	record := Record{
		ID:        s.newID(),
		Text:      text,
		Version:   s.analyzer.Version(),
		Analysis:  analysis,
		CreatedAt: s.now(),
	}
	s.logger.Info("tone analysis completed", "id", record.ID, "sentences", len(analysis.SentenceTones))

	s.persist(ctx, record, payload)
	return toResponse(record), nil
}

func (s *service) persist(ctx context.Context, record Record, payload []byte) {
	if err := s.history.Save(ctx, record); err != nil {
		s.logger.Error("save analysis failed", "id", record.ID, "error", err)
	}
	if len(payload) > 0 {
		if err := s.archive.Put(ctx, archiveKey(record.ID), payload); err != nil {
			s.logger.Error("archive payload failed", "id", record.ID, "error", err)
		}
	}
	for _, dominant := range record.Analysis.DocumentTone.Dominant() {
		if err := s.stats.Increment(ctx, dominant.CategoryID, dominant.ToneID); err != nil {
			s.logger.Error("increment tone stats failed", "category", dominant.CategoryID, "tone", dominant.ToneID, "error", err)
		}
	}
}

func (s *service) Get(ctx context.Context, id string) (Response, error) {
	record, err := s.lookup(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return toResponse(record), nil
}

func (s *service) Replay(ctx context.Context, id string) (Response, error) {
	record, err := s.lookup(ctx, id)
	if err != nil {
		return Response{}, err
	}
	reader, ok, err := s.archive.Get(ctx, archiveKey(record.ID))
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeArchive, "failed to load archived payload", err)
	}
	if !ok {
		return Response{}, apperrors.Wrap(apperrors.CodeNotFound, "no archived payload for analysis", nil)
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeArchive, "failed to read archived payload", err)
	}
	analysis, err := s.decode(payload)
	if err != nil {
		return Response{}, err
	}
	record.Analysis = analysis
	s.logger.Info("tone analysis replayed", "id", record.ID, "sentences", len(analysis.SentenceTones))
	return toResponse(record), nil
}

func (s *service) Trending(ctx context.Context, limit int) ([]TrendingTone, error) {
	if limit <= 0 {
		limit = 10
	}
	items, err := s.stats.Top(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStats, "failed to load trending tones", err)
	}
	if items == nil {
		items = []TrendingTone{}
	}
	return items, nil
}

func (s *service) lookup(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, apperrors.Wrap(apperrors.CodeInvalidInput, "analysis id must be a uuid", err)
	}
	record, ok, err := s.history.Get(ctx, id)
	if err != nil {
		return Record{}, apperrors.Wrap(apperrors.CodeHistory, "failed to load analysis", err)
	}
	if !ok {
		return Record{}, apperrors.Wrap(apperrors.CodeNotFound, "analysis not found", nil)
	}
	return record, nil
}

func toResponse(record Record) Response {
	sentences := record.Analysis.SentenceTones
	if sentences == nil {
		sentences = []SentenceTone{}
	}
	return Response{
		ID:            record.ID,
		Version:       record.Version,
		CreatedAt:     record.CreatedAt,
		DocumentTone:  record.Analysis.DocumentTone,
		SentenceTones: sentences,
		Dominant:      record.Analysis.DocumentTone.Dominant(),
	}
}

func archiveKey(id string) string {
	return "analyses/" + id + ".json"
}
