package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dild26/caffeine-projects-sub001/internal/models"
	"github.com/marcboeker/go-duckdb"
)

var duckSchema = []string{
	`CREATE TABLE IF NOT EXISTS processed_files (
		content_hash VARCHAR PRIMARY KEY,
		filename     VARCHAR NOT NULL,
		content      VARCHAR NOT NULL,
		fields       VARCHAR NOT NULL,
		status       VARCHAR NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id       VARCHAR PRIMARY KEY,
		name     VARCHAR NOT NULL,
		fields   VARCHAR NOT NULL,
		category VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_entries (
		id              VARCHAR PRIMARY KEY,
		title           VARCHAR NOT NULL,
		category        VARCHAR NOT NULL,
		description     VARCHAR NOT NULL,
		tags            VARCHAR NOT NULL,
		source_filename VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS error_logs (
		id            VARCHAR PRIMARY KEY,
		message       VARCHAR NOT NULL,
		file_context  VARCHAR NOT NULL,
		error_kind    VARCHAR NOT NULL,
		suggested_fix VARCHAR,
		created_at    TIMESTAMP NOT NULL
	)`,
}

// DuckStore keeps ingestion output in an embedded DuckDB file.
type DuckStore struct {
	db     *sql.DB
	dbPath string
}

// NewDuckStore opens (or creates) the database at dbPath.
func NewDuckStore(dbPath string) (*DuckStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	for _, stmt := range duckSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file location.
func (s *DuckStore) Path() string {
	return s.dbPath
}

func (s *DuckStore) SubmitProcessedFile(ctx context.Context, rec models.ProcessedFileRecord) error {
	fields, err := encodeFields(rec.Fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO processed_files (content_hash, filename, content, fields, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ContentHash, rec.Filename, rec.Content, fields, rec.Status, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert processed file %s: %w", rec.Filename, err)
	}
	return nil
}

func (s *DuckStore) SubmitTemplate(ctx context.Context, tmpl models.TemplateRecord) error {
	fields, err := encodeFields(tmpl.Fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO templates (id, name, fields, category) VALUES (?, ?, ?, ?)`,
		tmpl.ID, tmpl.Name, fields, tmpl.Category)
	if err != nil {
		return fmt.Errorf("insert template %s: %w", tmpl.ID, err)
	}
	return nil
}

func (s *DuckStore) SubmitCatalogEntry(ctx context.Context, entry models.CatalogEntry) error {
	tags, err := json.Marshal(entry.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO catalog_entries (id, title, category, description, tags, source_filename)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Title, entry.Category, entry.Description, string(tags), entry.SourceFilename)
	if err != nil {
		return fmt.Errorf("insert catalog entry %s: %w", entry.ID, err)
	}
	return nil
}

func (s *DuckStore) ReportError(ctx context.Context, report models.ErrorReport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO error_logs (id, message, file_context, error_kind, suggested_fix, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.ID, report.Message, report.FileContext, report.ErrorKind, report.SuggestedFix, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert error log: %w", err)
	}
	return nil
}

// Template reads a template back by id.
func (s *DuckStore) Template(ctx context.Context, id string) (*models.TemplateRecord, error) {
	var (
		tmpl   models.TemplateRecord
		fields string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, fields, category FROM templates WHERE id = ?`, id).
		Scan(&tmpl.ID, &tmpl.Name, &fields, &tmpl.Category)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *DuckStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	targets := []struct {
		table string
		dst   *int64
	}{
		{tableProcessedFiles, &st.ProcessedFiles},
		{tableTemplates, &st.Templates},
		{tableCatalogEntries, &st.CatalogEntries},
		{tableErrorLogs, &st.ErrorLogs},
	}
	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", t.table, err)
		}
	}
	return st, nil
}

// Close closes the database.
func (s *DuckStore) Close() error {
	return s.db.Close()
}
