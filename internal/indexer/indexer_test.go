package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/xsltcontext-mcp/internal/chunker"
	"github.com/dshills/xsltcontext-mcp/internal/estimator"
	"github.com/dshills/xsltcontext-mcp/internal/storage"
	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

const sampleStylesheet = `<?xml version="1.0"?>
<xsl:stylesheet xmlns:xsl="http://www.w3.org/1999/XSL/Transform" version="2.0">
  <xsl:template name="vmf:vmf1_inputtoresult">
    <xsl:param name="input"/>
  </xsl:template>
  <xsl:template match="/">
    <Invoice><xsl:value-of select="$var1_root"/></Invoice>
  </xsl:template>
</xsl:stylesheet>
`

func newTestIndexer(t *testing.T) (*Indexer, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine, err := chunker.New(chunker.DefaultConfig(), estimator.NewHeuristic())
	require.NoError(t, err)

	return New(store, engine, estimator.NewHeuristic()), store
}

func writeStylesheet(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIndexSingleFile(t *testing.T) {
	idx, store := newTestIndexer(t)
	path := writeStylesheet(t, t.TempDir(), "transform.xsl", sampleStylesheet)

	stats, err := idx.IndexPath(context.Background(), path, nil)
	require.NoError(t, err)

	assert.NotEmpty(t, stats.RunID)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Zero(t, stats.FilesSkipped)
	assert.Zero(t, stats.FilesFailed)
	assert.Positive(t, stats.ChunksCreated)

	sheet, err := store.GetStylesheet(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, stats.ChunksCreated, sheet.ChunkCount)
	assert.Equal(t, "heuristic", sheet.Estimator)

	chunks, err := store.ListChunks(context.Background(), sheet.ID, "")
	require.NoError(t, err)
	assert.Len(t, chunks, stats.ChunksCreated)

	helpers, err := store.ListChunks(context.Background(), sheet.ID, string(types.ChunkHelperTemplate))
	require.NoError(t, err)
	require.Len(t, helpers, 1)
	assert.Equal(t, "vmf:vmf1_inputtoresult", helpers[0].Name)
}

func TestIndexSkipsUnchangedFile(t *testing.T) {
	idx, _ := newTestIndexer(t)
	path := writeStylesheet(t, t.TempDir(), "transform.xsl", sampleStylesheet)
	ctx := context.Background()

	_, err := idx.IndexPath(ctx, path, nil)
	require.NoError(t, err)

	stats, err := idx.IndexPath(ctx, path, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)

	// Force overrides the hash check
	stats, err = idx.IndexPath(ctx, path, &Config{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Zero(t, stats.FilesSkipped)
}

func TestIndexReindexesChangedFile(t *testing.T) {
	idx, store := newTestIndexer(t)
	dir := t.TempDir()
	path := writeStylesheet(t, dir, "transform.xsl", sampleStylesheet)
	ctx := context.Background()

	_, err := idx.IndexPath(ctx, path, nil)
	require.NoError(t, err)

	writeStylesheet(t, dir, "transform.xsl", sampleStylesheet+"<!-- changed -->\n")
	stats, err := idx.IndexPath(ctx, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	// Old chunks were replaced, not accumulated
	sheet, err := store.GetStylesheet(ctx, path)
	require.NoError(t, err)
	chunks, err := store.ListChunks(ctx, sheet.ID, "")
	require.NoError(t, err)
	assert.Len(t, chunks, sheet.ChunkCount)
}

func TestIndexDirectoryTree(t *testing.T) {
	idx, store := newTestIndexer(t)
	root := t.TempDir()
	sub := filepath.Join(root, "common")
	require.NoError(t, os.MkdirAll(sub, 0755))
	hidden := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(hidden, 0755))

	writeStylesheet(t, root, "a.xsl", sampleStylesheet)
	writeStylesheet(t, sub, "b.xslt", sampleStylesheet)
	writeStylesheet(t, root, "notes.txt", "not a stylesheet")
	writeStylesheet(t, hidden, "c.xsl", sampleStylesheet) // hidden dir, skipped

	stats, err := idx.IndexPath(context.Background(), root, &Config{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Zero(t, stats.FilesFailed)

	sheets, err := store.ListStylesheets(context.Background())
	require.NoError(t, err)
	assert.Len(t, sheets, 2)
}

func TestIndexDirectoryCollectsPerFileErrors(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	idx, _ := newTestIndexer(t)
	root := t.TempDir()
	writeStylesheet(t, root, "good.xsl", sampleStylesheet)
	bad := writeStylesheet(t, root, "bad.xsl", sampleStylesheet)
	require.NoError(t, os.Chmod(bad, 0000))
	t.Cleanup(func() { _ = os.Chmod(bad, 0644) })

	stats, err := idx.IndexPath(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesFailed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "bad.xsl")
}

func TestIndexMissingPath(t *testing.T) {
	idx, _ := newTestIndexer(t)

	_, err := idx.IndexPath(context.Background(), filepath.Join(t.TempDir(), "nope.xsl"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestIndexRecordsRun(t *testing.T) {
	idx, store := newTestIndexer(t)
	path := writeStylesheet(t, t.TempDir(), "transform.xsl", sampleStylesheet)

	stats, err := idx.IndexPath(context.Background(), path, nil)
	require.NoError(t, err)

	status, err := store.GetStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, stats.RunID, status.LastRun.ID)
	assert.Equal(t, stats.ChunksCreated, status.LastRun.ChunksCreated)
}
