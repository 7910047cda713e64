package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// Storage defines the interface for persisting and querying the chunk
// inventory produced by the chunking engine
type Storage interface {
	// Stylesheet operations
	UpsertStylesheet(ctx context.Context, sheet *Stylesheet) error
	GetStylesheet(ctx context.Context, path string) (*Stylesheet, error)
	GetStylesheetByID(ctx context.Context, id int64) (*Stylesheet, error)
	ListStylesheets(ctx context.Context) ([]*Stylesheet, error)
	DeleteStylesheet(ctx context.Context, id int64) error

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, stylesheetID int64, chunkKey string) (*Chunk, error)
	ListChunks(ctx context.Context, stylesheetID int64, kind string) ([]*Chunk, error)
	DeleteChunksByStylesheet(ctx context.Context, stylesheetID int64) error
	SearchChunks(ctx context.Context, query string, limit int) ([]*Chunk, error)

	// Run statistics
	RecordRun(ctx context.Context, run *Run) error
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Stylesheet represents an indexed XSLT document
type Stylesheet struct {
	ID            int64
	Path          string
	LineCount     int
	SizeBytes     int64
	ContentHash   [32]byte
	ModTime       time.Time
	ChunkCount    int
	Estimator     string
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Chunk is the persisted form of a types.Chunk
type Chunk struct {
	ID            int64
	StylesheetID  int64
	ChunkKey      string // Engine-assigned ID, e.g. chunk_003 or chunk_003_sub_1
	Kind          string
	Name          string
	StartLine     int
	EndLine       int
	LineCount     int
	Content       string
	TokenCount    int
	IsSubChunk    bool
	ParentChunk   string // Empty for top-level chunks
	SubChunkIndex int
	Complexity    float64
	Dependencies  []string
	CreatedAt     time.Time
}

// Run records statistics for one indexing run
type Run struct {
	ID            string // UUID
	StartedAt     time.Time
	DurationMS    int64
	FilesIndexed  int
	FilesSkipped  int
	FilesFailed   int
	ChunksCreated int
}

// Status contains inventory statistics
type Status struct {
	StylesheetsCount  int
	ChunksCount       int
	SubChunksCount    int
	DependenciesCount int
	IndexSizeMB       float64
	LastRun           *Run
}

// FromTypesChunk converts an engine chunk to its persisted form
func FromTypesChunk(stylesheetID int64, c *types.Chunk) *Chunk {
	rec := &Chunk{
		StylesheetID: stylesheetID,
		ChunkKey:     c.ID,
		Kind:         string(c.Kind),
		Name:         c.Name,
		StartLine:    c.StartLine,
		EndLine:      c.EndLine,
		LineCount:    c.LineCount(),
		Content:      c.Text(),
		TokenCount:   c.EstimatedTokens,
		Dependencies: c.Dependencies.Sorted(),
	}

	if c.IsSubChunk() {
		rec.IsSubChunk = true
		rec.ParentChunk = c.ParentID()
		if idx, ok := c.Metadata[types.MetaSubChunkIndex].(int); ok {
			rec.SubChunkIndex = idx
		}
	}
	if score, ok := c.Metadata[types.MetaComplexityScore].(float64); ok {
		rec.Complexity = score
	}
	return rec
}

// Summary projects the persisted chunk to the flattened record shape
func (c *Chunk) Summary() types.ChunkSummary {
	return types.ChunkSummary{
		ID:              c.ChunkKey,
		Kind:            types.ChunkKind(c.Kind),
		Name:            c.Name,
		StartLine:       c.StartLine,
		EndLine:         c.EndLine,
		LineCount:       c.LineCount,
		EstimatedTokens: c.TokenCount,
		Dependencies:    c.Dependencies,
	}
}
