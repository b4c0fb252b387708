package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotify/rfq-extractor/internal/common"
	"github.com/quotify/rfq-extractor/internal/llm"
)

// ExtractionRecord is one persisted batch result. Fields is stored as JSONB
// so schema evolution on the extraction side never needs a migration.
type ExtractionRecord struct {
	ID            uuid.UUID
	BatchID       uuid.UUID
	Title         string
	Fields        llm.RFQFields
	DocumentCount int
	ChunkCount    int
	Retries       int
	CreatedAt     time.Time
}

// DocumentRecord is per-source-file extraction metadata for a batch.
type DocumentRecord struct {
	ExtractionID uuid.UUID
	SourceName   string
	Format       string
	CharCount    int
	WordCount    int
	ParseError   string
}

type ExtractionRepository interface {
	Save(ctx context.Context, rec ExtractionRecord, docs []DocumentRecord) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (ExtractionRecord, error)
	ListRecent(ctx context.Context, limit int) ([]ExtractionRecord, error)
}

type extractionRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewExtractionRepository(pool *pgxpool.Pool, logger *slog.Logger) ExtractionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionRepository{pool: pool, logger: logger}
}

func (r *extractionRepository) Save(ctx context.Context, rec ExtractionRecord, docs []DocumentRecord) (uuid.UUID, error) {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal fields: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO extractions (id, batch_id, title, fields, document_count, chunk_count, retries, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		id, rec.BatchID, rec.Title, fieldsJSON, rec.DocumentCount, rec.ChunkCount, rec.Retries,
	)
	if err != nil {
		r.logger.Error("repository.extraction.insert_failed", "batch_id", rec.BatchID, "error", err)
		return uuid.Nil, common.WrapError(common.ErrDatabase, err.Error())
	}

	for _, d := range docs {
		_, err = tx.Exec(ctx, `
			INSERT INTO extraction_documents (extraction_id, source_name, format, char_count, word_count, parse_error)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))`,
			id, d.SourceName, d.Format, d.CharCount, d.WordCount, d.ParseError,
		)
		if err != nil {
			r.logger.Error("repository.extraction.document_insert_failed",
				"batch_id", rec.BatchID, "source", d.SourceName, "error", err)
			return uuid.Nil, common.WrapError(common.ErrDatabase, err.Error())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	r.logger.Info("repository.extraction.saved",
		"extraction_id", id, "batch_id", rec.BatchID, "documents", len(docs))
	return id, nil
}

func (r *extractionRepository) GetByID(ctx context.Context, id uuid.UUID) (ExtractionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, batch_id, title, fields, document_count, chunk_count, retries, created_at
		FROM extractions WHERE id = $1`, id)
	return scanExtraction(row)
}

func (r *extractionRepository) ListRecent(ctx context.Context, limit int) ([]ExtractionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, title, fields, document_count, chunk_count, retries, created_at
		FROM extractions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, common.WrapError(common.ErrDatabase, err.Error())
	}
	defer rows.Close()

	var out []ExtractionRecord
	for rows.Next() {
		rec, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanExtraction(row pgx.Row) (ExtractionRecord, error) {
	var (
		rec        ExtractionRecord
		fieldsJSON []byte
	)
	err := row.Scan(&rec.ID, &rec.BatchID, &rec.Title, &fieldsJSON,
		&rec.DocumentCount, &rec.ChunkCount, &rec.Retries, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ExtractionRecord{}, common.WrapError(common.ErrDatabase, "extraction not found")
	}
	if err != nil {
		return ExtractionRecord{}, common.WrapError(common.ErrDatabase, err.Error())
	}
	if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
		return ExtractionRecord{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	return rec, nil
}
