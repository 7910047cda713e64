// Package storage persists the chunk inventory produced by the chunking
// pipeline in SQLite.
//
// The schema has four tables: stylesheets (one row per indexed document,
// keyed by path with a content hash for incremental re-indexing), chunks
// (one row per emitted chunk, carrying the engine's chunk key, span, text,
// token count, and sub-chunk lineage), chunk_deps (the deduplicated typed
// cross-references of each chunk), and runs (per-run indexing statistics).
// An FTS5 virtual table mirrors chunk names and content for full-text
// search.
//
// # Drivers
//
// Two SQLite drivers are supported, selected at build time:
//
//   - modernc.org/sqlite (default): pure Go, CGO-free builds
//   - github.com/mattn/go-sqlite3 (-tags cgo_sqlite): C driver
//
// # Migrations
//
// Schema changes are applied through semver-ordered migrations; opening a
// database runs any pending migrations automatically:
//
//	store, err := storage.NewSQLiteStorage("/path/to/xsltcontext.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Transactions
//
// BeginTx returns a Tx exposing the full Storage interface bound to the
// transaction, so batch inserts commit atomically:
//
//	tx, _ := store.BeginTx(ctx)
//	defer tx.Rollback()
//	for _, chunk := range chunks {
//	    tx.InsertChunk(ctx, chunk)
//	}
//	tx.Commit()
package storage
