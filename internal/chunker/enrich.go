package chunker

import (
	"regexp"
	"strings"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// Dependency extraction patterns. The XPath pattern is known to be
// permissive (any select/test/match attribute counts); that looseness is
// part of the observable contract and must not be tightened silently.
var (
	reVarRef       = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_.-]*)`)
	reCallTemplate = regexp.MustCompile(`call-template\s+name\s*=\s*"([^"]+)"`)
	reFunctionCall = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_-]*):([A-Za-z_][A-Za-z0-9_-]*)\s*\(`)
	reXPathExpr    = regexp.MustCompile(`(?:select|test|match)\s*=\s*"([^"]+)"`)
)

// Complexity score weights per construct, scaled by text length and
// clamped to maxComplexityScore
const (
	chooseWeight       = 0.5
	variableWeight     = 0.2
	xpathWeight        = 0.1
	maxComplexityScore = 10.0
)

// enrich attaches cross-reference and complexity metadata to a chunk in
// place. Extraction is a set union, so re-running it is idempotent.
func (e *Engine) enrich(chunk *types.Chunk) {
	text := chunk.Text()

	if chunk.Dependencies == nil {
		chunk.Dependencies = types.NewDependencySet()
	}
	for _, m := range reVarRef.FindAllStringSubmatch(text, -1) {
		chunk.Dependencies.Add("var:" + m[1])
	}
	for _, m := range reCallTemplate.FindAllStringSubmatch(text, -1) {
		chunk.Dependencies.Add("template:" + m[1])
	}
	for _, m := range reFunctionCall.FindAllStringSubmatch(text, -1) {
		chunk.Dependencies.Add("function:" + m[1] + ":" + m[2])
	}

	chooseCount := strings.Count(text, "<xsl:choose")
	variableCount := strings.Count(text, "<xsl:variable")
	xpathCount := len(reXPathExpr.FindAllStringIndex(text, -1))

	score := 1.0 + chooseWeight*float64(chooseCount) +
		variableWeight*float64(variableCount) +
		xpathWeight*float64(xpathCount)
	score *= float64(len(text)) / 1000.0
	if score > maxComplexityScore {
		score = maxComplexityScore
	}

	chunk.SetMeta(types.MetaComplexityScore, score)
	chunk.SetMeta(types.MetaHasChooseBlocks, chooseCount > 0)
	chunk.SetMeta(types.MetaHasVariables, variableCount > 0)
	chunk.SetMeta(types.MetaHasXPath, xpathCount > 0)
}
