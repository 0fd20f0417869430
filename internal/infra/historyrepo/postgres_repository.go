package historyrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/tone-analyzer/internal/domain/tone"
)

// PostgresRepository implements tone.HistoryRepository using pgx.
// Schema lives in migrations/001_tone_analyses.sql.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Save inserts a new analysis row.
func (r *PostgresRepository) Save(ctx context.Context, record tone.Record) error {
	payload, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO tone_analyses (id, input_text, version, analysis, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, record.ID, record.Text, record.Version, payload, record.CreatedAt)
	return err
}

// Get fetches an analysis by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (tone.Record, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, input_text, version, analysis, created_at
		FROM tone_analyses
		WHERE id = $1
	`, id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return tone.Record{}, false, nil
	}
	if err != nil {
		return tone.Record{}, false, err
	}
	return record, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (tone.Record, error) {
	var (
		record  tone.Record
		payload []byte
	)
	if err := row.Scan(&record.ID, &record.Text, &record.Version, &payload, &record.CreatedAt); err != nil {
		return tone.Record{}, err
	}
	if err := json.Unmarshal(payload, &record.Analysis); err != nil {
		return tone.Record{}, fmt.Errorf("decode stored analysis: %w", err)
	}
	return record, nil
}

var _ tone.HistoryRepository = (*PostgresRepository)(nil)
