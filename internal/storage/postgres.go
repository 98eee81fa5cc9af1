package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS processed_files (
		content_hash TEXT PRIMARY KEY,
		filename     TEXT NOT NULL,
		content      TEXT NOT NULL,
		fields       JSONB NOT NULL,
		status       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		fields   JSONB NOT NULL,
		category TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_entries (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		category        TEXT NOT NULL,
		description     TEXT NOT NULL,
		tags            TEXT[] NOT NULL,
		source_filename TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS error_logs (
		id            TEXT PRIMARY KEY,
		message       TEXT NOT NULL,
		file_context  TEXT NOT NULL,
		error_kind    TEXT NOT NULL,
		suggested_fix TEXT,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
}

// PostgresStore keeps ingestion output in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and creates the tables if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range pgSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SubmitProcessedFile(ctx context.Context, rec models.ProcessedFileRecord) error {
	fields, err := encodeFields(rec.Fields)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO processed_files (content_hash, filename, content, fields, status, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5, $6)
ON CONFLICT (content_hash)
DO UPDATE SET
  filename = EXCLUDED.filename,
  content = EXCLUDED.content,
  fields = EXCLUDED.fields,
  status = EXCLUDED.status`,
		rec.ContentHash, rec.Filename, rec.Content, fields, rec.Status, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert processed file %s: %w", rec.Filename, err)
	}
	return nil
}

func (s *PostgresStore) SubmitTemplate(ctx context.Context, tmpl models.TemplateRecord) error {
	fields, err := encodeFields(tmpl.Fields)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO templates (id, name, fields, category)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (id)
DO UPDATE SET
  name = EXCLUDED.name,
  fields = EXCLUDED.fields,
  category = EXCLUDED.category`,
		tmpl.ID, tmpl.Name, fields, tmpl.Category)
	if err != nil {
		return fmt.Errorf("upsert template %s: %w", tmpl.ID, err)
	}
	return nil
}

func (s *PostgresStore) SubmitCatalogEntry(ctx context.Context, entry models.CatalogEntry) error {
	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO catalog_entries (id, title, category, description, tags, source_filename)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id)
DO UPDATE SET
  title = EXCLUDED.title,
  category = EXCLUDED.category,
  description = EXCLUDED.description,
  tags = EXCLUDED.tags,
  source_filename = EXCLUDED.source_filename`,
		entry.ID, entry.Title, entry.Category, entry.Description, tags, entry.SourceFilename)
	if err != nil {
		return fmt.Errorf("upsert catalog entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *PostgresStore) ReportError(ctx context.Context, report models.ErrorReport) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO error_logs (id, message, file_context, error_kind, suggested_fix, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
ON CONFLICT (id) DO NOTHING`,
		report.ID, report.Message, report.FileContext, report.ErrorKind, report.SuggestedFix, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert error log: %w", err)
	}
	return nil
}

// Template reads a template back by id.
func (s *PostgresStore) Template(ctx context.Context, id string) (*models.TemplateRecord, error) {
	var (
		tmpl   models.TemplateRecord
		fields string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, fields::text, category FROM templates WHERE id = $1`, id).
		Scan(&tmpl.ID, &tmpl.Name, &fields, &tmpl.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query template %s: %w", id, err)
	}
	if tmpl.Fields, err = decodeFields(fields); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM processed_files),
  (SELECT COUNT(*) FROM templates),
  (SELECT COUNT(*) FROM catalog_entries),
  (SELECT COUNT(*) FROM error_logs)`).
		Scan(&st.ProcessedFiles, &st.Templates, &st.CatalogEntries, &st.ErrorLogs)
	if err != nil {
		return Stats{}, fmt.Errorf("count rows: %w", err)
	}
	return st, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}
