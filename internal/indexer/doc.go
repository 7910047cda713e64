// Package indexer orchestrates the chunking pipeline: read a stylesheet,
// run the chunking engine over its lines, and persist the resulting chunk
// inventory.
//
// A single file is processed synchronously; a directory tree is walked for
// .xsl/.xslt files and processed with bounded concurrency. Per-file
// failures inside a tree run are collected into the run statistics rather
// than aborting the run, while single-file errors propagate directly.
//
// Re-indexing is incremental: a file whose content hash matches the stored
// record is skipped unless Force is set. Each file's chunks are replaced
// atomically inside one transaction, and every run is recorded with a UUID
// for status reporting.
//
//	idx := indexer.New(store, engine, est)
//	stats, err := idx.IndexPath(ctx, "/path/to/stylesheets", &indexer.Config{Workers: 4})
package indexer
