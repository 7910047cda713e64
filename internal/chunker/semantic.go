package chunker

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// Patterns for semantic boundary detection within a main template. The
// closing-tag form </Tag> never matches reOutputElement because '/'
// follows the '<' directly.
var (
	reOutputElement = regexp.MustCompile(`<([A-Z][A-Za-z0-9]{3,})`)
	reForEachOpen   = regexp.MustCompile(`<xsl:for-each\b`)
	reVariableDecl  = regexp.MustCompile(`<xsl:variable\b`)
	reChooseOpen    = regexp.MustCompile(`<xsl:choose[\s>]`)
	reChooseClose   = regexp.MustCompile(`</xsl:choose>`)
)

// deniedOutputTags excludes acronym-style tags that look like output
// elements but carry no sectioning meaning
var deniedOutputTags = map[string]struct{}{
	"XML":  {},
	"HTTP": {},
	"URI":  {},
	"URL":  {},
	"ID":   {},
}

// semanticBoundary is a detected logical break point inside a main
// template. Lines are 0-based indices into the chunk's line slice.
type semanticBoundary struct {
	line       int
	kind       string
	descriptor string
}

// decomposeMain partitions an oversized main-template chunk around its
// internal logical boundaries. With no detectable boundaries it falls back
// to the generic sliding-window split.
//
// Cuts are committed only at boundaries, as soon as the accumulated token
// total reaches semanticTargetTokens (or semanticMaxTokens at the latest)
// and exceeds semanticMinTokens; smaller accumulations carry forward so no
// tiny fragments are produced. The final cut is always the last line.
func (e *Engine) decomposeMain(parent *types.Chunk) []*types.Chunk {
	bounds := detectSemanticBoundaries(parent.Lines)
	if len(bounds) == 0 {
		return e.splitGeneric(parent)
	}

	cuts := make([]int, 0)
	prevCut := 0
	acc := 0
	counted := 0 // lines already folded into acc
	for _, b := range bounds {
		for ; counted < b.line; counted++ {
			acc += e.est.Estimate(parent.Lines[counted])
		}
		if b.line <= prevCut {
			continue
		}
		if (acc >= semanticTargetTokens || acc >= semanticMaxTokens) && acc > semanticMinTokens {
			cuts = append(cuts, b.line)
			prevCut = b.line
			acc = 0
		}
	}
	cuts = append(cuts, len(parent.Lines))

	subs := make([]*types.Chunk, 0, len(cuts))
	from := 0
	for idx, to := range cuts {
		if to <= from {
			continue
		}

		var overlap []string
		if idx > 0 {
			overlap = e.essentialOverlap(parent.Lines[:from])
		}

		core := parent.Lines[from:to]
		sub := &types.Chunk{
			ID:           fmt.Sprintf("%s_sub_%d", parent.ID, len(subs)),
			Kind:         parent.Kind,
			StartLine:    parent.StartLine + from,
			EndLine:      parent.StartLine + to - 1,
			Lines:        append(append([]string(nil), overlap...), core...),
			Dependencies: types.NewDependencySet(),
		}
		if parent.Name != "" {
			sub.Name = fmt.Sprintf("%s_part_%d", parent.Name, len(subs))
		}
		sub.EstimatedTokens = e.est.Estimate(sub.Text())
		sub.SetMeta(types.MetaIsSubChunk, true)
		sub.SetMeta(types.MetaParentChunkID, parent.ID)
		sub.SetMeta(types.MetaSubChunkIndex, len(subs))
		sub.SetMeta(types.MetaSplitStrategy, "semantic")
		sub.SetMeta(types.MetaOverlapLines, len(overlap))
		sub.SetMeta(types.MetaBoundaries, boundaryDescriptors(bounds, from, to))
		subs = append(subs, sub)

		from = to
	}
	return subs
}

// detectSemanticBoundaries runs the four boundary heuristics and merges
// their results by ascending line number. Duplicate line numbers keep the
// first-found boundary, in heuristic order.
func detectSemanticBoundaries(lines []string) []semanticBoundary {
	found := make(map[int]semanticBoundary)
	add := func(b semanticBoundary) {
		if _, ok := found[b.line]; !ok {
			found[b.line] = b
		}
	}

	// 1. Major output elements: capitalized tags of length >= 4 that are
	// not xsl: elements and not on the acronym deny-list.
	for i, line := range lines {
		m := reOutputElement.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, denied := deniedOutputTags[strings.ToUpper(m[1])]; denied {
			continue
		}
		add(semanticBoundary{line: i, kind: "output_element", descriptor: "output:" + m[1]})
	}

	// 2. Top-level for-each loops: the first loop's indentation sets the
	// base column; nested loops sit deeper and are excluded.
	baseIndent := -1
	for i, line := range lines {
		loc := reForEachOpen.FindStringIndex(line)
		if loc == nil {
			continue
		}
		indent := loc[0]
		if baseIndent < 0 {
			baseIndent = indent
		}
		if abs(indent-baseIndent) <= forEachIndentTolerance {
			add(semanticBoundary{line: i, kind: "for_each", descriptor: "for-each"})
		}
	}

	// 3. Variable clusters: runs of >= 2 consecutive declaration lines,
	// anchored at the run's first line.
	runStart, runLen := -1, 0
	flush := func() {
		if runLen >= 2 {
			add(semanticBoundary{
				line:       runStart,
				kind:       "variable_cluster",
				descriptor: fmt.Sprintf("variables:%d", runLen),
			})
		}
		runStart, runLen = -1, 0
	}
	for i, line := range lines {
		if reVariableDecl.MatchString(line) {
			if runLen == 0 {
				runStart = i
			}
			runLen++
		} else {
			flush()
		}
	}
	flush()

	// 4. Top-level choose blocks: depth-tracked; a block counts only when
	// it closes back at depth zero.
	var stack []int
	for i, line := range lines {
		if reChooseOpen.MatchString(line) {
			stack = append(stack, i)
		}
		if reChooseClose.MatchString(line) && len(stack) > 0 {
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				add(semanticBoundary{line: open, kind: "choose_block", descriptor: "choose"})
			}
		}
	}

	merged := make([]semanticBoundary, 0, len(found))
	for _, b := range found {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].line < merged[j].line })
	return merged
}

// essentialOverlap selects minimal re-orientation context for a semantic
// sub-chunk: scanning backward from the cut point, a line is included if it
// is essential (variable declaration, for-each opener, closing tag, or
// blank) or among the first three scanned, while the running token cost
// stays within min(OverlapTokens/4, 100) and at most ten lines total.
func (e *Engine) essentialOverlap(prior []string) []string {
	budget := e.cfg.OverlapTokens / 4
	if budget > semanticOverlapCapTokens {
		budget = semanticOverlapCapTokens
	}
	if budget <= 0 {
		return nil
	}

	var window []string
	tokens := 0
	scanned := 0
	for i := len(prior) - 1; i >= 0 && len(window) < semanticOverlapMaxLines; i-- {
		scanned++
		line := prior[i]
		if scanned > semanticOverlapFreeLines && !isEssentialLine(line) {
			continue
		}
		lineTokens := e.est.Estimate(line)
		if tokens+lineTokens > budget {
			break
		}
		window = append(window, line)
		tokens += lineTokens
	}

	for i, j := 0, len(window)-1; i < j; i, j = i+1, j-1 {
		window[i], window[j] = window[j], window[i]
	}
	return window
}

// isEssentialLine reports whether a line carries context worth repeating
// across a semantic cut
func isEssentialLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "</") {
		return true
	}
	return reVariableDecl.MatchString(line) || reForEachOpen.MatchString(line)
}

// boundaryDescriptors collects the descriptors of boundaries falling
// within [from, to) of the parent's line slice
func boundaryDescriptors(bounds []semanticBoundary, from, to int) []string {
	var descriptors []string
	for _, b := range bounds {
		if b.line >= from && b.line < to {
			descriptors = append(descriptors, b.descriptor)
		}
	}
	return descriptors
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
