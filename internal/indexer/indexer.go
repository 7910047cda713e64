package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/xsltcontext-mcp/internal/chunker"
	"github.com/dshills/xsltcontext-mcp/internal/estimator"
	"github.com/dshills/xsltcontext-mcp/internal/reader"
	"github.com/dshills/xsltcontext-mcp/internal/storage"
	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// Stylesheet file extensions recognized during directory discovery
var stylesheetExtensions = map[string]bool{
	".xsl":  true,
	".xslt": true,
}

// Indexer coordinates the pipeline: read -> chunk -> store. Documents are
// independent, so a directory tree is processed with bounded concurrency;
// the engine itself is stateless and shared across workers.
type Indexer struct {
	reader  *reader.Reader
	engine  *chunker.Engine
	est     estimator.Estimator
	storage storage.Storage
	workers int
}

// Config contains configuration for an indexing run
type Config struct {
	Workers int  // Number of concurrent workers (default: runtime.NumCPU())
	Force   bool // Re-chunk files even when the content hash is unchanged
}

// Statistics contains the outcome of one indexing run
type Statistics struct {
	RunID         string
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	ChunksCreated int
	Duration      time.Duration
	ErrorMessages []string
}

// New creates an Indexer around the given storage, engine, and estimator
func New(store storage.Storage, engine *chunker.Engine, est estimator.Estimator) *Indexer {
	return &Indexer{
		reader:  reader.New(),
		engine:  engine,
		est:     est,
		storage: store,
		workers: runtime.NumCPU(),
	}
}

// IndexPath chunks a single stylesheet file, or every stylesheet under a
// directory tree. For a single file any error (including a missing
// document) propagates directly; for a tree, per-file failures are
// collected in the statistics and the run continues.
func (idx *Indexer) IndexPath(ctx context.Context, path string, config *Config) (*Statistics, error) {
	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = idx.workers
	}

	startTime := time.Now()
	stats := &Statistics{
		RunID:         uuid.New().String(),
		ErrorMessages: make([]string, 0),
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	var indexed, skipped, failed, chunks int32
	if info.IsDir() {
		files, err := discoverStylesheets(path)
		if err != nil {
			return nil, fmt.Errorf("failed to discover stylesheets: %w", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		var mu sync.Mutex

		for _, file := range files {
			g.Go(func() error {
				if err := idx.indexFile(gctx, file, config.Force, &indexed, &skipped, &chunks); err != nil {
					atomic.AddInt32(&failed, 1)
					mu.Lock()
					stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", file, err))
					mu.Unlock()
				}
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		if err := idx.indexFile(ctx, path, config.Force, &indexed, &skipped, &chunks); err != nil {
			return nil, err
		}
	}

	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.ChunksCreated = int(chunks)
	stats.Duration = time.Since(startTime)

	run := &storage.Run{
		ID:            stats.RunID,
		StartedAt:     startTime,
		DurationMS:    stats.Duration.Milliseconds(),
		FilesIndexed:  stats.FilesIndexed,
		FilesSkipped:  stats.FilesSkipped,
		FilesFailed:   stats.FilesFailed,
		ChunksCreated: stats.ChunksCreated,
	}
	if err := idx.storage.RecordRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	return stats, nil
}

// indexFile reads, chunks, and stores a single stylesheet
func (idx *Indexer) indexFile(ctx context.Context, path string, force bool,
	indexed, skipped, chunks *int32) error {

	doc, err := idx.reader.Read(path)
	if err != nil {
		return err
	}

	// Incremental skip: unchanged content needs no re-chunking
	if !force {
		existing, err := idx.storage.GetStylesheet(ctx, path)
		if err == nil && existing.ContentHash == doc.ContentHash {
			atomic.AddInt32(skipped, 1)
			return nil
		}
		if err != nil && err != storage.ErrNotFound {
			return err
		}
	}

	result, err := idx.engine.ChunkDocument(doc.Lines)
	if err != nil {
		return fmt.Errorf("failed to chunk document: %w", err)
	}

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sheet := &storage.Stylesheet{
		Path:          path,
		LineCount:     doc.LineCount,
		SizeBytes:     doc.SizeBytes,
		ContentHash:   doc.ContentHash,
		ModTime:       doc.ModTime,
		ChunkCount:    len(result),
		Estimator:     idx.est.Name(),
		LastIndexedAt: time.Now().UTC(),
	}
	if err := tx.UpsertStylesheet(ctx, sheet); err != nil {
		return err
	}
	if err := tx.DeleteChunksByStylesheet(ctx, sheet.ID); err != nil {
		return err
	}

	for _, chunk := range result {
		if err := tx.InsertChunk(ctx, storage.FromTypesChunk(sheet.ID, chunk)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	atomic.AddInt32(indexed, 1)
	atomic.AddInt32(chunks, int32(len(result)))
	return nil
}

// discoverStylesheets finds all stylesheet files under a directory tree,
// skipping hidden directories
func discoverStylesheets(root string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if stylesheetExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}
