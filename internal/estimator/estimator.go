package estimator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Estimator maps a text span to an estimated token count. Implementations
// must be deterministic, side-effect-free, and never return a negative
// count; the chunking engine treats the estimate as an opaque budget unit.
type Estimator interface {
	// Estimate returns the estimated token count for the given text
	Estimate(text string) int

	// Name returns the estimator name for status reporting
	Name() string
}

// TokensPerChar is the heuristic divisor for estimating tokens (chars/4)
const TokensPerChar = 4

// Heuristic estimates tokens with the chars/4 rule. It is the default
// estimator and matches what most embedding pipelines assume for markup.
type Heuristic struct{}

// NewHeuristic creates the chars/4 estimator
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Estimate returns len(text)/4
func (h *Heuristic) Estimate(text string) int {
	return len(text) / TokensPerChar
}

// Name returns the estimator name
func (h *Heuristic) Name() string {
	return "heuristic"
}

// Markup refines the chars/4 rule for XML-heavy text: angle-bracketed tags
// and attribute syntax tokenize denser than prose, so each tag opener adds
// one token on top of the base estimate.
type Markup struct{}

// NewMarkup creates the markup-aware estimator
func NewMarkup() *Markup {
	return &Markup{}
}

// Estimate returns len(text)/4 plus one token per tag opener
func (m *Markup) Estimate(text string) int {
	return len(text)/TokensPerChar + strings.Count(text, "<")
}

// Name returns the estimator name
func (m *Markup) Name() string {
	return "markup"
}

// Cached wraps an Estimator with an LRU cache keyed by content hash.
// Chunk decomposition re-estimates the same spans repeatedly (overlap
// windows, running sums), so caching pays for itself on large templates.
type Cached struct {
	inner Estimator
	cache *lru.Cache[string, int]
}

// DefaultCacheSize is the default number of cached estimates
const DefaultCacheSize = 4096

// NewCached wraps an estimator with an LRU cache of the given size
func NewCached(inner Estimator, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, int](size)
	if err != nil {
		// Only reachable with a non-positive size, which we already corrected
		cache, _ = lru.New[string, int](DefaultCacheSize)
	}
	return &Cached{inner: inner, cache: cache}
}

// Estimate returns the cached estimate, computing and storing it on miss
func (c *Cached) Estimate(text string) int {
	key := hashText(text)
	if n, ok := c.cache.Get(key); ok {
		return n
	}
	n := c.inner.Estimate(text)
	c.cache.Add(key, n)
	return n
}

// Name returns the wrapped estimator's name
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Size returns the current number of cached estimates
func (c *Cached) Size() int {
	return c.cache.Len()
}

// hashText computes the SHA-256 cache key for a text span
func hashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
