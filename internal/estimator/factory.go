package estimator

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables for estimator selection
const (
	// EnvEstimator selects the estimator: "heuristic" (default) or "markup"
	EnvEstimator = "XSLTCONTEXT_ESTIMATOR"

	// EnvCacheSize overrides the estimate cache size; 0 disables caching
	EnvCacheSize = "XSLTCONTEXT_ESTIMATOR_CACHE"
)

// NewFromEnv creates an estimator based on environment configuration.
// With no configuration it returns the cached chars/4 heuristic.
func NewFromEnv() (Estimator, error) {
	var inner Estimator

	switch name := os.Getenv(EnvEstimator); name {
	case "", "heuristic":
		inner = NewHeuristic()
	case "markup":
		inner = NewMarkup()
	default:
		return nil, fmt.Errorf("unknown estimator %q (supported: heuristic, markup)", name)
	}

	size := DefaultCacheSize
	if raw := os.Getenv(EnvCacheSize); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", EnvCacheSize, raw, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("invalid %s value %q: size cannot be negative", EnvCacheSize, raw)
		}
		size = n
	}

	if size == 0 {
		return inner, nil
	}
	return NewCached(inner, size), nil
}
