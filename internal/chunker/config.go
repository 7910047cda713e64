package chunker

// Default configuration values
const (
	// DefaultMaxTokensPerChunk is the global token ceiling per chunk
	DefaultMaxTokensPerChunk = 15000

	// DefaultOverlapTokens bounds the trailing-overlap window between
	// adjacent generic sub-chunks
	DefaultOverlapTokens = 500

	// DefaultMainTemplateSplitThreshold is the token count above which a
	// main-template chunk is decomposed semantically
	DefaultMainTemplateSplitThreshold = 10000
)

// Semantic sub-chunking constants. Cuts commit once the accumulated span
// reaches the target (hard max at the latest), but never below the minimum:
// sub-threshold accumulation carries forward to avoid tiny fragments.
const (
	semanticTargetTokens = 4000
	semanticMaxTokens    = 6000
	semanticMinTokens    = 1000

	// Semantic overlap is deliberately much smaller than the generic
	// splitter's: essential re-orientation context only.
	semanticOverlapCapTokens = 100
	semanticOverlapMaxLines  = 10
	semanticOverlapFreeLines = 3

	// forEachIndentTolerance is how far (in columns) a for-each may sit
	// from the first one's indentation and still count as top-level
	forEachIndentTolerance = 4
)

// Config is the immutable configuration for a chunking run. A zero value
// for any numeric field falls back to the documented default; a nil
// HelperPatterns slice falls back to scanner.DefaultHelperPatterns while an
// explicitly empty slice disables helper classification.
type Config struct {
	MaxTokensPerChunk          int
	OverlapTokens              int
	MainTemplateSplitThreshold int
	HelperPatterns             []string
}

// DefaultConfig returns the default chunking configuration
func DefaultConfig() Config {
	return Config{
		MaxTokensPerChunk:          DefaultMaxTokensPerChunk,
		OverlapTokens:              DefaultOverlapTokens,
		MainTemplateSplitThreshold: DefaultMainTemplateSplitThreshold,
	}
}

// withDefaults fills unset numeric fields with their defaults
func (c Config) withDefaults() Config {
	if c.MaxTokensPerChunk <= 0 {
		c.MaxTokensPerChunk = DefaultMaxTokensPerChunk
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = DefaultOverlapTokens
	}
	if c.MainTemplateSplitThreshold <= 0 {
		c.MainTemplateSplitThreshold = DefaultMainTemplateSplitThreshold
	}
	return c
}
