package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting the same statement code run inside and outside transactions
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStorage implements Storage backed by SQLite. The driver is
// selected at build time (see build_cgo.go / build_purego.go).
type SQLiteStorage struct {
	db *sql.DB
	q  querier
}

// NewSQLiteStorage opens (creating if necessary) the database at dbPath
// and applies any pending migrations
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single connection so pragmas apply everywhere and SQLite keeps one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, q: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginTx starts a transaction. The returned Tx exposes the full Storage
// interface bound to the transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &sqliteTx{
		SQLiteStorage: &SQLiteStorage{db: s.db, q: tx},
		tx:            tx,
	}, nil
}

// sqliteTx wraps a transaction with the Storage interface
type sqliteTx struct {
	*SQLiteStorage
	tx *sql.Tx
}

// Commit commits the transaction
func (t *sqliteTx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction
func (t *sqliteTx) Rollback() error { return t.tx.Rollback() }

// UpsertStylesheet inserts or updates a stylesheet record keyed by path
func (s *SQLiteStorage) UpsertStylesheet(ctx context.Context, sheet *Stylesheet) error {
	now := time.Now().UTC()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO stylesheets (path, line_count, size_bytes, content_hash, mod_time, chunk_count, estimator, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			line_count = excluded.line_count,
			size_bytes = excluded.size_bytes,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			chunk_count = excluded.chunk_count,
			estimator = excluded.estimator,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at`,
		sheet.Path, sheet.LineCount, sheet.SizeBytes, sheet.ContentHash[:], sheet.ModTime,
		sheet.ChunkCount, sheet.Estimator, sheet.LastIndexedAt, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert stylesheet: %w", err)
	}

	return s.q.QueryRowContext(ctx, "SELECT id FROM stylesheets WHERE path = ?", sheet.Path).Scan(&sheet.ID)
}

// GetStylesheet retrieves a stylesheet record by path
func (s *SQLiteStorage) GetStylesheet(ctx context.Context, path string) (*Stylesheet, error) {
	return s.scanStylesheet(s.q.QueryRowContext(ctx, `
		SELECT id, path, line_count, size_bytes, content_hash, mod_time, chunk_count, estimator, last_indexed_at, created_at, updated_at
		FROM stylesheets WHERE path = ?`, path))
}

// GetStylesheetByID retrieves a stylesheet record by row ID
func (s *SQLiteStorage) GetStylesheetByID(ctx context.Context, id int64) (*Stylesheet, error) {
	return s.scanStylesheet(s.q.QueryRowContext(ctx, `
		SELECT id, path, line_count, size_bytes, content_hash, mod_time, chunk_count, estimator, last_indexed_at, created_at, updated_at
		FROM stylesheets WHERE id = ?`, id))
}

func (s *SQLiteStorage) scanStylesheet(row *sql.Row) (*Stylesheet, error) {
	var sheet Stylesheet
	var hash []byte
	var estimator sql.NullString
	err := row.Scan(&sheet.ID, &sheet.Path, &sheet.LineCount, &sheet.SizeBytes, &hash,
		&sheet.ModTime, &sheet.ChunkCount, &estimator, &sheet.LastIndexedAt, &sheet.CreatedAt, &sheet.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stylesheet: %w", err)
	}
	copy(sheet.ContentHash[:], hash)
	sheet.Estimator = estimator.String
	return &sheet, nil
}

// ListStylesheets returns all stylesheet records ordered by path
func (s *SQLiteStorage) ListStylesheets(ctx context.Context) ([]*Stylesheet, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, path, line_count, size_bytes, content_hash, mod_time, chunk_count, estimator, last_indexed_at, created_at, updated_at
		FROM stylesheets ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stylesheets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sheets []*Stylesheet
	for rows.Next() {
		var sheet Stylesheet
		var hash []byte
		var estimator sql.NullString
		if err := rows.Scan(&sheet.ID, &sheet.Path, &sheet.LineCount, &sheet.SizeBytes, &hash,
			&sheet.ModTime, &sheet.ChunkCount, &estimator, &sheet.LastIndexedAt, &sheet.CreatedAt, &sheet.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stylesheet: %w", err)
		}
		copy(sheet.ContentHash[:], hash)
		sheet.Estimator = estimator.String
		sheets = append(sheets, &sheet)
	}
	return sheets, rows.Err()
}

// DeleteStylesheet removes a stylesheet and (via cascade) its chunks
func (s *SQLiteStorage) DeleteStylesheet(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM stylesheets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete stylesheet: %w", err)
	}
	return nil
}

// InsertChunk stores a chunk record along with its dependency references
func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO chunks (stylesheet_id, chunk_key, kind, name, start_line, end_line, line_count, content, token_count, is_sub_chunk, parent_chunk, sub_chunk_index, complexity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.StylesheetID, chunk.ChunkKey, chunk.Kind, chunk.Name, chunk.StartLine, chunk.EndLine,
		chunk.LineCount, chunk.Content, chunk.TokenCount, chunk.IsSubChunk, chunk.ParentChunk,
		chunk.SubChunkIndex, chunk.Complexity)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	chunk.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get chunk ID: %w", err)
	}

	for _, ref := range chunk.Dependencies {
		if _, err := s.q.ExecContext(ctx,
			"INSERT OR IGNORE INTO chunk_deps (chunk_id, ref) VALUES (?, ?)", chunk.ID, ref); err != nil {
			return fmt.Errorf("failed to insert dependency %q: %w", ref, err)
		}
	}
	return nil
}

const chunkColumns = `id, stylesheet_id, chunk_key, kind, name, start_line, end_line, line_count, content, token_count, is_sub_chunk, parent_chunk, sub_chunk_index, complexity, created_at`

// GetChunk retrieves a single chunk by its engine-assigned key
func (s *SQLiteStorage) GetChunk(ctx context.Context, stylesheetID int64, chunkKey string) (*Chunk, error) {
	chunk, err := scanChunk(s.q.QueryRowContext(ctx,
		"SELECT "+chunkColumns+" FROM chunks WHERE stylesheet_id = ? AND chunk_key = ?", stylesheetID, chunkKey))
	if err != nil {
		return nil, err
	}
	if err := s.loadDependencies(ctx, chunk); err != nil {
		return nil, err
	}
	return chunk, nil
}

// ListChunks returns the chunks of a stylesheet in document order,
// optionally filtered by kind
func (s *SQLiteStorage) ListChunks(ctx context.Context, stylesheetID int64, kind string) ([]*Chunk, error) {
	query := "SELECT " + chunkColumns + " FROM chunks WHERE stylesheet_id = ?"
	args := []any{stylesheetID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}
	query += " ORDER BY start_line, sub_chunk_index"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		if err := s.loadDependencies(ctx, chunk); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

// DeleteChunksByStylesheet removes all chunks for a stylesheet
func (s *SQLiteStorage) DeleteChunksByStylesheet(ctx context.Context, stylesheetID int64) error {
	_, err := s.q.ExecContext(ctx, "DELETE FROM chunks WHERE stylesheet_id = ?", stylesheetID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// SearchChunks performs a full-text search over chunk names and content
func (s *SQLiteStorage) SearchChunks(ctx context.Context, query string, limit int) ([]*Chunk, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+chunkColumns+` FROM chunks
		WHERE id IN (SELECT rowid FROM chunks_fts WHERE chunks_fts MATCH ? ORDER BY rank LIMIT ?)`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunks, err := scanChunks(rows)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks {
		if err := s.loadDependencies(ctx, chunk); err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

func scanChunk(row *sql.Row) (*Chunk, error) {
	var chunk Chunk
	var name, parent sql.NullString
	err := row.Scan(&chunk.ID, &chunk.StylesheetID, &chunk.ChunkKey, &chunk.Kind, &name,
		&chunk.StartLine, &chunk.EndLine, &chunk.LineCount, &chunk.Content, &chunk.TokenCount,
		&chunk.IsSubChunk, &parent, &chunk.SubChunkIndex, &chunk.Complexity, &chunk.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunk: %w", err)
	}
	chunk.Name = name.String
	chunk.ParentChunk = parent.String
	return &chunk, nil
}

func scanChunks(rows *sql.Rows) ([]*Chunk, error) {
	var chunks []*Chunk
	for rows.Next() {
		var chunk Chunk
		var name, parent sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.StylesheetID, &chunk.ChunkKey, &chunk.Kind, &name,
			&chunk.StartLine, &chunk.EndLine, &chunk.LineCount, &chunk.Content, &chunk.TokenCount,
			&chunk.IsSubChunk, &parent, &chunk.SubChunkIndex, &chunk.Complexity, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Name = name.String
		chunk.ParentChunk = parent.String
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (s *SQLiteStorage) loadDependencies(ctx context.Context, chunk *Chunk) error {
	rows, err := s.q.QueryContext(ctx, "SELECT ref FROM chunk_deps WHERE chunk_id = ? ORDER BY ref", chunk.ID)
	if err != nil {
		return fmt.Errorf("failed to load dependencies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	chunk.Dependencies = nil
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return fmt.Errorf("failed to scan dependency: %w", err)
		}
		chunk.Dependencies = append(chunk.Dependencies, ref)
	}
	return rows.Err()
}

// RecordRun stores the statistics of a completed indexing run
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *Run) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, files_indexed, files_skipped, files_failed, chunks_created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.DurationMS, run.FilesIndexed, run.FilesSkipped, run.FilesFailed, run.ChunksCreated)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// GetStatus reports inventory statistics across the whole database
func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{}

	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM stylesheets").Scan(&status.StylesheetsCount); err != nil {
		return nil, fmt.Errorf("failed to count stylesheets: %w", err)
	}
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&status.ChunksCount); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE is_sub_chunk = 1").Scan(&status.SubChunksCount); err != nil {
		return nil, fmt.Errorf("failed to count sub-chunks: %w", err)
	}
	if err := s.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_deps").Scan(&status.DependenciesCount); err != nil {
		return nil, fmt.Errorf("failed to count dependencies: %w", err)
	}

	var pageCount, pageSize int64
	if err := s.q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	run, err := scanRun(s.q.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, files_indexed, files_skipped, files_failed, chunks_created
		FROM runs ORDER BY started_at DESC LIMIT 1`))
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	status.LastRun = run

	return status, nil
}

func scanRun(row *sql.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.StartedAt, &run.DurationMS, &run.FilesIndexed,
		&run.FilesSkipped, &run.FilesFailed, &run.ChunksCreated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	return &run, nil
}
