package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/xsltcontext-mcp/internal/estimator"
	"github.com/dshills/xsltcontext-mcp/internal/scanner"
	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// Engine turns a stylesheet's lines into an ordered sequence of
// bounded-size chunks. It holds no per-document state: every call to
// ChunkDocument is a pure function of the lines, the configuration, and
// the injected token estimator, so independent documents may be chunked
// in parallel on the same Engine.
type Engine struct {
	cfg  Config
	est  estimator.Estimator
	scan *scanner.Scanner
}

// New creates an Engine. Helper patterns are compiled here so that an
// invalid pattern fails before any scanning begins. A nil estimator falls
// back to the chars/4 heuristic.
func New(cfg Config, est estimator.Estimator) (*Engine, error) {
	cls, err := scanner.NewClassifier(cfg.HelperPatterns)
	if err != nil {
		return nil, err
	}
	if est == nil {
		est = estimator.NewHeuristic()
	}
	return &Engine{
		cfg:  cfg.withDefaults(),
		est:  est,
		scan: scanner.New(cls),
	}, nil
}

// ChunkDocument runs the full pipeline: boundary scan, structural chunk
// construction, oversized-chunk decomposition, and metadata enrichment.
// A zero-line or whitespace-only document yields zero chunks and no error.
func (e *Engine) ChunkDocument(lines []string) ([]*types.Chunk, error) {
	if len(lines) == 0 || allBlank(lines) {
		return []*types.Chunk{}, nil
	}

	boundaries := e.scan.Scan(lines)
	top := e.buildStructural(lines, boundaries)

	final := make([]*types.Chunk, 0, len(top))
	for _, chunk := range top {
		chunk.EstimatedTokens = e.est.Estimate(chunk.Text())

		switch {
		case chunk.Kind == types.ChunkMainTemplate && chunk.EstimatedTokens > e.cfg.MainTemplateSplitThreshold:
			final = append(final, e.decomposeMain(chunk)...)
		case chunk.EstimatedTokens > e.cfg.MaxTokensPerChunk:
			final = append(final, e.splitGeneric(chunk)...)
		default:
			final = append(final, chunk)
		}
	}

	for _, chunk := range final {
		e.enrich(chunk)
	}
	return final, nil
}

// openTemplate tracks a template-start boundary awaiting its end marker
type openTemplate struct {
	boundary types.Boundary
	start    int // 1-based
}

// buildStructural consumes the boundary stream and produces the initial
// contiguous partition of the document aligned to template boundaries.
//
// XSLT templates do not nest in practice, so the open-template stack is
// expected to stay at depth <= 1, but deeper stacks are tolerated: every
// end marker closes the most-recently opened template. A template still
// open at end of input is closed at the last line rather than failing.
func (e *Engine) buildStructural(lines []string, boundaries []types.Boundary) []*types.Chunk {
	chunks := make([]*types.Chunk, 0)
	var stack []openTemplate
	cursor := 1 // first line not yet assigned to a chunk

	emit := func(kind types.ChunkKind, name string, start, end int) {
		if start > end {
			return
		}
		chunk := &types.Chunk{
			ID:           fmt.Sprintf("chunk_%03d", len(chunks)),
			Kind:         kind,
			Name:         name,
			StartLine:    start,
			EndLine:      end,
			Lines:        append([]string(nil), lines[start-1:end]...),
			Dependencies: types.NewDependencySet(),
		}
		chunks = append(chunks, chunk)
	}

	// Filler chunks keep the top-level partition gap-free: every line
	// between templates belongs to some chunk, blank spans included.
	emitFiller := func(start, end int) {
		emit(types.ChunkUnknown, "", start, end)
	}

	for _, b := range boundaries {
		switch b.Kind {
		case types.BoundaryTemplateStart:
			if len(stack) == 0 {
				emitFiller(cursor, b.Line-1)
				cursor = b.Line
			}
			stack = append(stack, openTemplate{boundary: b, start: b.Line})

		case types.BoundaryTemplateEnd:
			if len(stack) == 0 {
				// Stray end marker with nothing open; tolerated
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			emit(templateChunkKind(top.boundary), top.boundary.Name, top.start, b.Line)
			if b.Line+1 > cursor {
				cursor = b.Line + 1
			}
		}
	}

	// Tolerant recovery: close anything still open at end of file
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		emit(templateChunkKind(top.boundary), top.boundary.Name, top.start, len(lines))
		cursor = len(lines) + 1
	}

	emitFiller(cursor, len(lines))
	return chunks
}

// templateChunkKind maps a template-start boundary to its chunk kind
func templateChunkKind(b types.Boundary) types.ChunkKind {
	if b.Template == types.TemplateHelper {
		return types.ChunkHelperTemplate
	}
	return types.ChunkMainTemplate
}

// allBlank reports whether every line is empty or whitespace-only
func allBlank(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}
