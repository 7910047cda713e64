// Package scanner detects structural boundaries in XSLT stylesheets using
// line-oriented pattern matching.
//
// The scanner deliberately avoids a real XML parser: generated stylesheets
// are frequently malformed in ways a DOM parser would reject, and boundary
// detection only needs to tolerate them, not validate them. Each line is
// tested against a fixed priority order of patterns and contributes at most
// one boundary.
//
// # Basic Usage
//
//	cls, err := scanner.NewClassifier(nil) // default helper patterns
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s := scanner.New(cls)
//	boundaries := s.Scan(lines)
//
// # Template Classification
//
// Template-start boundaries are classified as helper or main templates by
// matching the resolved template name against the configured pattern set.
// The default set targets the vmfN_ naming convention of Saxon-generated
// mapping helpers; passing an empty (non-nil) slice disables helper
// classification entirely.
package scanner
