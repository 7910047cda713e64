package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testStylesheet(path string) *Stylesheet {
	return &Stylesheet{
		Path:          path,
		LineCount:     120,
		SizeBytes:     4096,
		ContentHash:   sha256.Sum256([]byte(path)),
		ModTime:       time.Now().UTC().Truncate(time.Second),
		ChunkCount:    3,
		Estimator:     "heuristic",
		LastIndexedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestUpsertAndGetStylesheet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))
	assert.Positive(t, sheet.ID)

	got, err := store.GetStylesheet(ctx, "/data/transform.xsl")
	require.NoError(t, err)
	assert.Equal(t, sheet.ID, got.ID)
	assert.Equal(t, sheet.Path, got.Path)
	assert.Equal(t, sheet.LineCount, got.LineCount)
	assert.Equal(t, sheet.ContentHash, got.ContentHash)
	assert.Equal(t, "heuristic", got.Estimator)

	byID, err := store.GetStylesheetByID(ctx, sheet.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Path, byID.Path)
}

func TestUpsertStylesheetUpdatesInPlace(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))
	firstID := sheet.ID

	sheet.LineCount = 240
	sheet.ContentHash = sha256.Sum256([]byte("changed"))
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))
	assert.Equal(t, firstID, sheet.ID)

	got, err := store.GetStylesheet(ctx, sheet.Path)
	require.NoError(t, err)
	assert.Equal(t, 240, got.LineCount)
	assert.Equal(t, sheet.ContentHash, got.ContentHash)
}

func TestGetStylesheetNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetStylesheet(context.Background(), "/missing.xsl")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetStylesheetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertAndGetChunk(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))

	chunk := &Chunk{
		StylesheetID: sheet.ID,
		ChunkKey:     "chunk_001",
		Kind:         string(types.ChunkHelperTemplate),
		Name:         "vmf:vmf1_inputtoresult",
		StartLine:    4,
		EndLine:      12,
		LineCount:    9,
		Content:      "<xsl:template name=\"vmf:vmf1_inputtoresult\">\n</xsl:template>",
		TokenCount:   42,
		Complexity:   1.5,
		Dependencies: []string{"var:input", "template:other"},
	}
	require.NoError(t, store.InsertChunk(ctx, chunk))
	assert.Positive(t, chunk.ID)

	got, err := store.GetChunk(ctx, sheet.ID, "chunk_001")
	require.NoError(t, err)
	assert.Equal(t, chunk.ChunkKey, got.ChunkKey)
	assert.Equal(t, chunk.Kind, got.Kind)
	assert.Equal(t, chunk.Name, got.Name)
	assert.Equal(t, chunk.StartLine, got.StartLine)
	assert.Equal(t, chunk.EndLine, got.EndLine)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.TokenCount, got.TokenCount)
	assert.InDelta(t, chunk.Complexity, got.Complexity, 1e-9)
	assert.Equal(t, []string{"template:other", "var:input"}, got.Dependencies)
}

func TestGetChunkNotFound(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))

	_, err := store.GetChunk(ctx, sheet.ID, "chunk_404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListChunksOrderAndKindFilter(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))

	inserts := []*Chunk{
		{StylesheetID: sheet.ID, ChunkKey: "chunk_002", Kind: "main_template", StartLine: 50, EndLine: 90, LineCount: 41, Content: "main"},
		{StylesheetID: sheet.ID, ChunkKey: "chunk_000", Kind: "unknown", StartLine: 1, EndLine: 3, LineCount: 3, Content: "prologue"},
		{StylesheetID: sheet.ID, ChunkKey: "chunk_001", Kind: "helper_template", StartLine: 4, EndLine: 49, LineCount: 46, Content: "helper"},
	}
	for _, c := range inserts {
		require.NoError(t, store.InsertChunk(ctx, c))
	}

	all, err := store.ListChunks(ctx, sheet.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "chunk_000", all[0].ChunkKey)
	assert.Equal(t, "chunk_001", all[1].ChunkKey)
	assert.Equal(t, "chunk_002", all[2].ChunkKey)

	helpers, err := store.ListChunks(ctx, sheet.ID, "helper_template")
	require.NoError(t, err)
	require.Len(t, helpers, 1)
	assert.Equal(t, "chunk_001", helpers[0].ChunkKey)
}

func TestListChunksSubChunkOrdering(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))

	// Sub-chunks share a parent; ties on start_line break by sub index
	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertChunk(ctx, &Chunk{
			StylesheetID:  sheet.ID,
			ChunkKey:      "chunk_000_sub_" + string(rune('0'+2-i)),
			Kind:          "main_template",
			StartLine:     10,
			EndLine:       20,
			LineCount:     11,
			Content:       "part",
			IsSubChunk:    true,
			ParentChunk:   "chunk_000",
			SubChunkIndex: 2 - i,
		}))
	}

	chunks, err := store.ListChunks(ctx, sheet.ID, "")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.SubChunkIndex)
		assert.True(t, chunk.IsSubChunk)
		assert.Equal(t, "chunk_000", chunk.ParentChunk)
	}
}

func TestDeleteChunksByStylesheet(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))
	require.NoError(t, store.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_000", Kind: "unknown",
		StartLine: 1, EndLine: 2, LineCount: 2, Content: "x",
		Dependencies: []string{"var:a"},
	}))

	require.NoError(t, store.DeleteChunksByStylesheet(ctx, sheet.ID))

	chunks, err := store.ListChunks(ctx, sheet.ID, "")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	// Dependency rows cascade with their chunk
	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.DependenciesCount)
}

func TestDeleteStylesheetCascades(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))
	require.NoError(t, store.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_000", Kind: "unknown",
		StartLine: 1, EndLine: 2, LineCount: 2, Content: "x",
	}))

	require.NoError(t, store.DeleteStylesheet(ctx, sheet.ID))

	_, err := store.GetStylesheet(ctx, sheet.Path)
	assert.ErrorIs(t, err, ErrNotFound)

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.ChunksCount)
}

func TestSearchChunks(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))

	require.NoError(t, store.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_000", Kind: "main_template",
		Name: "match:/", StartLine: 1, EndLine: 10, LineCount: 10,
		Content: "<Invoice><BuyerParty>acme</BuyerParty></Invoice>",
	}))
	require.NoError(t, store.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_001", Kind: "helper_template",
		Name: "vmf:vmf1_inputtoresult", StartLine: 11, EndLine: 20, LineCount: 10,
		Content: "<xsl:param name=\"input\"/>",
	}))

	results, err := store.SearchChunks(ctx, "BuyerParty", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "chunk_000", results[0].ChunkKey)

	// Deleted chunks drop out of the search index
	require.NoError(t, store.DeleteChunksByStylesheet(ctx, sheet.ID))
	results, err = store.SearchChunks(ctx, "BuyerParty", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecordRunAndStatus(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	run := &Run{
		ID:            "11111111-2222-3333-4444-555555555555",
		StartedAt:     time.Now().UTC().Truncate(time.Second),
		DurationMS:    125,
		FilesIndexed:  2,
		FilesSkipped:  1,
		ChunksCreated: 14,
	}
	require.NoError(t, store.RecordRun(ctx, run))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, run.ID, status.LastRun.ID)
	assert.Equal(t, 2, status.LastRun.FilesIndexed)
	assert.Equal(t, int64(125), status.LastRun.DurationMS)
}

func TestStatusCounts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.StylesheetsCount)
	assert.Nil(t, status.LastRun)

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, store.UpsertStylesheet(ctx, sheet))
	require.NoError(t, store.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_000", Kind: "unknown",
		StartLine: 1, EndLine: 2, LineCount: 2, Content: "x",
		Dependencies: []string{"var:a", "var:b"},
	}))
	require.NoError(t, store.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_000_sub_0", Kind: "main_template",
		StartLine: 3, EndLine: 4, LineCount: 2, Content: "y",
		IsSubChunk: true, ParentChunk: "chunk_000",
	}))

	status, err = store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.StylesheetsCount)
	assert.Equal(t, 2, status.ChunksCount)
	assert.Equal(t, 1, status.SubChunksCount)
	assert.Equal(t, 2, status.DependenciesCount)
}

func TestTransactionCommit(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, tx.UpsertStylesheet(ctx, sheet))
	require.NoError(t, tx.InsertChunk(ctx, &Chunk{
		StylesheetID: sheet.ID, ChunkKey: "chunk_000", Kind: "unknown",
		StartLine: 1, EndLine: 2, LineCount: 2, Content: "x",
	}))
	require.NoError(t, tx.Commit())

	got, err := store.GetStylesheet(ctx, sheet.Path)
	require.NoError(t, err)
	assert.Equal(t, sheet.ID, got.ID)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)

	sheet := testStylesheet("/data/transform.xsl")
	require.NoError(t, tx.UpsertStylesheet(ctx, sheet))
	require.NoError(t, tx.Rollback())

	_, err = store.GetStylesheet(ctx, sheet.Path)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFromTypesChunk(t *testing.T) {
	deps := types.NewDependencySet()
	deps.Add("var:x")
	deps.Add("template:t")

	chunk := &types.Chunk{
		ID:              "chunk_003_sub_1",
		Kind:            types.ChunkMainTemplate,
		Name:            "match:/_part_1",
		StartLine:       40,
		EndLine:         80,
		Lines:           []string{"a", "b", "c"},
		EstimatedTokens: 99,
		Dependencies:    deps,
	}
	chunk.SetMeta(types.MetaIsSubChunk, true)
	chunk.SetMeta(types.MetaParentChunkID, "chunk_003")
	chunk.SetMeta(types.MetaSubChunkIndex, 1)
	chunk.SetMeta(types.MetaComplexityScore, 2.75)

	rec := FromTypesChunk(7, chunk)
	assert.Equal(t, int64(7), rec.StylesheetID)
	assert.Equal(t, "chunk_003_sub_1", rec.ChunkKey)
	assert.Equal(t, "main_template", rec.Kind)
	assert.Equal(t, 40, rec.StartLine)
	assert.Equal(t, 80, rec.EndLine)
	assert.Equal(t, 3, rec.LineCount)
	assert.Equal(t, "a\nb\nc", rec.Content)
	assert.Equal(t, 99, rec.TokenCount)
	assert.True(t, rec.IsSubChunk)
	assert.Equal(t, "chunk_003", rec.ParentChunk)
	assert.Equal(t, 1, rec.SubChunkIndex)
	assert.InDelta(t, 2.75, rec.Complexity, 1e-9)
	assert.Equal(t, []string{"template:t", "var:x"}, rec.Dependencies)

	summary := rec.Summary()
	assert.Equal(t, "chunk_003_sub_1", summary.ID)
	assert.Equal(t, types.ChunkMainTemplate, summary.Kind)
	assert.Equal(t, 3, summary.LineCount)
}
