package scanner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// DefaultHelperPatterns matches the generated helper naming convention used
// by Saxon-style mapping compilers (vmf:vmf1_inputtoresult, vmf:vmf2_..., ...).
// A bare prefix with no digit segment (vmf:function_name) is not a helper.
var DefaultHelperPatterns = []string{
	`^vmf:vmf\d+`,
}

// Classifier decides whether a template is a helper or a main template
// based on a configurable set of OR-ed regex patterns. Classification is
// purely regex-driven: no pattern match means main, with no fallback
// heuristics.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier compiles the given helper patterns. A nil pattern list
// falls back to DefaultHelperPatterns; an explicitly empty list classifies
// every template as main. Compilation failures surface as
// types.ErrInvalidConfiguration before any scanning begins.
func NewClassifier(patterns []string) (*Classifier, error) {
	if patterns == nil {
		patterns = DefaultHelperPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: helper pattern %q: %v", types.ErrInvalidConfiguration, p, err)
		}
		compiled = append(compiled, re)
	}

	return &Classifier{patterns: compiled}, nil
}

// Classify returns the template kind for a declared name or match pattern.
// A leading "match:" prefix (recorded by the scanner for match-templates)
// is ignored so the same patterns apply to both forms.
func (c *Classifier) Classify(nameOrMatch string) types.TemplateKind {
	name := strings.TrimPrefix(nameOrMatch, "match:")

	for _, re := range c.patterns {
		if re.MatchString(name) {
			return types.TemplateHelper
		}
	}
	return types.TemplateMain
}
