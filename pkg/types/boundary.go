package types

// BoundaryKind identifies the structural marker detected on a line
type BoundaryKind string

const (
	BoundaryTemplateStart BoundaryKind = "template_start"
	BoundaryTemplateEnd   BoundaryKind = "template_end"
	BoundaryVariable      BoundaryKind = "variable"
	BoundaryImport        BoundaryKind = "import"
	BoundaryChooseStart   BoundaryKind = "choose_start"
	BoundaryChooseEnd     BoundaryKind = "choose_end"
)

// TemplateKind is the classification of a template boundary
type TemplateKind string

const (
	TemplateHelper TemplateKind = "helper"
	TemplateMain   TemplateKind = "main"
)

// Boundary is a structural marker detected at a specific line during the
// scan pass. Line is 1-based. Name carries the template name (with a
// "match:" prefix for match-templates) or variable name; Href carries the
// target of import/include boundaries. Template is set only for
// template-start boundaries.
type Boundary struct {
	Kind     BoundaryKind
	Line     int
	Name     string
	Href     string
	Template TemplateKind
}
