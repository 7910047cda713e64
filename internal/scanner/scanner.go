package scanner

import (
	"regexp"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// Line patterns for boundary detection. The engine never builds a DOM:
// malformed markup that would fail strict well-formedness is simply
// scanned line by line, so unbalanced tags never raise errors here.
var (
	reTemplateStart = regexp.MustCompile(`<xsl:template\b[^>]*\b(?:name|match)\s*=`)
	reTemplateEnd   = regexp.MustCompile(`</xsl:template>`)
	reVariable      = regexp.MustCompile(`<xsl:variable\b[^>]*\bname\s*=\s*"([^"]*)"`)
	reImport        = regexp.MustCompile(`<xsl:(?:import|include)\b[^>]*\bhref\s*=\s*"([^"]*)"`)
	reChooseStart   = regexp.MustCompile(`<xsl:choose[\s>]`)
	reChooseEnd     = regexp.MustCompile(`</xsl:choose>`)

	reNameAttr  = regexp.MustCompile(`\bname\s*=\s*"([^"]*)"`)
	reMatchAttr = regexp.MustCompile(`\bmatch\s*=\s*"([^"]*)"`)
)

// Scanner performs a single forward pass over document lines and emits
// structural boundary events in line order.
type Scanner struct {
	classifier *Classifier
}

// New creates a Scanner using the given template classifier
func New(classifier *Classifier) *Scanner {
	return &Scanner{classifier: classifier}
}

// Scan walks the lines once and returns the ordered boundary list.
// At most one boundary is recorded per line; detection runs in priority
// order (template start, template end, variable, import/include, choose
// open, choose close) and the first match wins.
func (s *Scanner) Scan(lines []string) []types.Boundary {
	boundaries := make([]types.Boundary, 0)

	for i, line := range lines {
		lineNo := i + 1 // 1-based

		switch {
		case reTemplateStart.MatchString(line):
			b := types.Boundary{
				Kind: types.BoundaryTemplateStart,
				Line: lineNo,
				Name: templateName(line),
			}
			b.Template = s.classifier.Classify(b.Name)
			boundaries = append(boundaries, b)

		case reTemplateEnd.MatchString(line):
			boundaries = append(boundaries, types.Boundary{
				Kind: types.BoundaryTemplateEnd,
				Line: lineNo,
			})

		case reVariable.MatchString(line):
			m := reVariable.FindStringSubmatch(line)
			boundaries = append(boundaries, types.Boundary{
				Kind: types.BoundaryVariable,
				Line: lineNo,
				Name: m[1],
			})

		case reImport.MatchString(line):
			m := reImport.FindStringSubmatch(line)
			boundaries = append(boundaries, types.Boundary{
				Kind: types.BoundaryImport,
				Line: lineNo,
				Href: m[1],
			})

		case reChooseStart.MatchString(line):
			boundaries = append(boundaries, types.Boundary{
				Kind: types.BoundaryChooseStart,
				Line: lineNo,
			})

		case reChooseEnd.MatchString(line):
			boundaries = append(boundaries, types.Boundary{
				Kind: types.BoundaryChooseEnd,
				Line: lineNo,
			})
		}
	}

	return boundaries
}

// templateName extracts the declared name attribute, falling back to the
// match attribute recorded with a "match:" prefix so names and match
// patterns never collide.
func templateName(line string) string {
	if m := reNameAttr.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := reMatchAttr.FindStringSubmatch(line); m != nil {
		return "match:" + m[1]
	}
	return ""
}
