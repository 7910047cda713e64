package types

import (
	"errors"
	"sort"
	"strings"
)

// ChunkKind classifies a chunk by the stylesheet construct it covers
type ChunkKind string

const (
	ChunkHelperTemplate   ChunkKind = "helper_template"
	ChunkMainTemplate     ChunkKind = "main_template"
	ChunkVariableSection  ChunkKind = "variable_section"
	ChunkImportSection    ChunkKind = "import_section"
	ChunkNamespaceSection ChunkKind = "namespace_section"
	ChunkChooseBlock      ChunkKind = "choose_block"
	ChunkUnknown          ChunkKind = "unknown"
)

// Metadata keys attached to sub-chunks produced by decomposition
const (
	MetaIsSubChunk    = "is_sub_chunk"
	MetaParentChunkID = "parent_chunk_id"
	MetaSubChunkIndex = "sub_chunk_index"
	MetaSplitStrategy = "split_strategy"
	MetaOverlapLines  = "overlap_lines"
	MetaBoundaries    = "boundaries"
)

// Metadata keys attached by enrichment
const (
	MetaComplexityScore = "complexity_score"
	MetaHasChooseBlocks = "has_choose_blocks"
	MetaHasVariables    = "has_variables"
	MetaHasXPath        = "has_xpath"
)

// Chunk is a contiguous (or overlap-extended) span of stylesheet lines
// treated as one unit for downstream processing.
//
// StartLine and EndLine are 1-based, inclusive, and always refer to the
// chunk's core span in the original document. Lines holds the raw text of
// that span; for sub-chunks it may additionally carry overlap lines
// prepended ahead of the core span.
type Chunk struct {
	ID              string
	Kind            ChunkKind
	Name            string
	StartLine       int
	EndLine         int
	Lines           []string
	EstimatedTokens int
	Dependencies    DependencySet
	Metadata        map[string]any
}

// Domain errors for chunk validation
var (
	ErrEmptyChunkID     = errors.New("chunk ID cannot be empty")
	ErrInvalidLineRange = errors.New("line range must be 1-based and non-empty")
	ErrNoLines          = errors.New("chunk must contain at least one line")
)

// Text returns the chunk's lines joined as a single string
func (c *Chunk) Text() string {
	return strings.Join(c.Lines, "\n")
}

// LineCount returns the number of lines carried by the chunk, overlap included
func (c *Chunk) LineCount() int {
	return len(c.Lines)
}

// IsSubChunk reports whether the chunk was produced by decomposing a parent
func (c *Chunk) IsSubChunk() bool {
	v, ok := c.Metadata[MetaIsSubChunk].(bool)
	return ok && v
}

// ParentID returns the parent chunk ID for sub-chunks, or "" for top-level chunks
func (c *Chunk) ParentID() string {
	v, _ := c.Metadata[MetaParentChunkID].(string)
	return v
}

// SetMeta stores a metadata entry, allocating the map on first use
func (c *Chunk) SetMeta(key string, value any) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	c.Metadata[key] = value
}

// Validate checks the chunk's structural invariants
func (c *Chunk) Validate() error {
	if c.ID == "" {
		return ErrEmptyChunkID
	}
	if c.StartLine <= 0 || c.EndLine < c.StartLine {
		return ErrInvalidLineRange
	}
	if len(c.Lines) == 0 {
		return ErrNoLines
	}
	return nil
}

// Summary projects the chunk to a flat, serializable record without the
// full line payload. Dependencies are returned sorted for stable output.
func (c *Chunk) Summary() ChunkSummary {
	return ChunkSummary{
		ID:              c.ID,
		Kind:            c.Kind,
		Name:            c.Name,
		StartLine:       c.StartLine,
		EndLine:         c.EndLine,
		LineCount:       len(c.Lines),
		EstimatedTokens: c.EstimatedTokens,
		Dependencies:    c.Dependencies.Sorted(),
	}
}

// ChunkSummary is the flattened projection of a Chunk for collaborators
// that need metadata without line payloads
type ChunkSummary struct {
	ID              string    `json:"id"`
	Kind            ChunkKind `json:"kind"`
	Name            string    `json:"name,omitempty"`
	StartLine       int       `json:"start_line"`
	EndLine         int       `json:"end_line"`
	LineCount       int       `json:"line_count"`
	EstimatedTokens int       `json:"estimated_tokens"`
	Dependencies    []string  `json:"dependencies,omitempty"`
}

// DependencySet is a deduplicated set of typed cross-references extracted
// from a chunk's text. Entries are tagged "var:<name>", "template:<name>",
// or "function:<ns>:<name>". The set only ever grows via union.
type DependencySet map[string]struct{}

// NewDependencySet creates an empty dependency set
func NewDependencySet() DependencySet {
	return make(DependencySet)
}

// Add inserts a reference into the set
func (d DependencySet) Add(ref string) {
	d[ref] = struct{}{}
}

// Has reports whether the set contains the given reference
func (d DependencySet) Has(ref string) bool {
	_, ok := d[ref]
	return ok
}

// Union merges another set into this one
func (d DependencySet) Union(other DependencySet) {
	for ref := range other {
		d[ref] = struct{}{}
	}
}

// Sorted returns the references in lexical order
func (d DependencySet) Sorted() []string {
	if len(d) == 0 {
		return nil
	}
	refs := make([]string, 0, len(d))
	for ref := range d {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
