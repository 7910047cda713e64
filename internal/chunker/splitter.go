package chunker

import (
	"fmt"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// splitGeneric decomposes an oversized chunk with a token-budget sliding
// window. Lines accumulate greedily; when adding a line would overflow
// MaxTokensPerChunk the buffer is sealed and the next buffer is seeded with
// a trailing overlap window from the sealed lines, so every sub-chunk after
// the first carries bounded context from its predecessor.
//
// The parent is replaced by its sub-chunks; StartLine/EndLine on each
// sub-chunk describe the core (non-overlap) span in original document
// coordinates, and the cores concatenate to exactly the parent's span.
func (e *Engine) splitGeneric(parent *types.Chunk) []*types.Chunk {
	subs := make([]*types.Chunk, 0)

	var buf []string // overlap seed plus core lines
	bufTokens := 0
	coreStart := 0 // index into parent.Lines of the first core line in buf
	overlapLen := 0

	seal := func(coreEnd int) {
		idx := len(subs)
		sub := &types.Chunk{
			ID:           fmt.Sprintf("%s_sub_%d", parent.ID, idx),
			Kind:         parent.Kind,
			StartLine:    parent.StartLine + coreStart,
			EndLine:      parent.StartLine + coreEnd - 1,
			Lines:        append([]string(nil), buf...),
			Dependencies: types.NewDependencySet(),
		}
		if parent.Name != "" {
			sub.Name = fmt.Sprintf("%s_part_%d", parent.Name, idx)
		}
		sub.EstimatedTokens = e.est.Estimate(sub.Text())
		sub.SetMeta(types.MetaIsSubChunk, true)
		sub.SetMeta(types.MetaParentChunkID, parent.ID)
		sub.SetMeta(types.MetaSubChunkIndex, idx)
		sub.SetMeta(types.MetaSplitStrategy, "generic")
		sub.SetMeta(types.MetaOverlapLines, overlapLen)
		subs = append(subs, sub)
	}

	for i, line := range parent.Lines {
		lineTokens := e.est.Estimate(line)

		// Seal before overflow, but never seal an empty core: a single
		// line above the budget is an irreducible unit.
		if bufTokens+lineTokens > e.cfg.MaxTokensPerChunk && i > coreStart {
			seal(i)

			overlap := e.overlapWindow(buf)
			overlapLen = len(overlap)
			buf = append([]string(nil), overlap...)
			bufTokens = 0
			for _, ol := range overlap {
				bufTokens += e.est.Estimate(ol)
			}
			coreStart = i
		}

		buf = append(buf, line)
		bufTokens += lineTokens
	}

	if len(parent.Lines) > coreStart {
		seal(len(parent.Lines))
	}
	return subs
}

// overlapWindow selects trailing lines from a sealed buffer whose
// cumulative token cost stays within OverlapTokens. The scan runs
// tail-backward and the result is reversed to preserve original order.
func (e *Engine) overlapWindow(sealed []string) []string {
	if e.cfg.OverlapTokens <= 0 {
		return nil
	}

	var window []string
	tokens := 0
	for i := len(sealed) - 1; i >= 0; i-- {
		lineTokens := e.est.Estimate(sealed[i])
		if tokens+lineTokens > e.cfg.OverlapTokens {
			break
		}
		window = append(window, sealed[i])
		tokens += lineTokens
	}

	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window
}
