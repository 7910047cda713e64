// Package estimator provides token-count estimation for stylesheet text.
//
// Token estimation is an injected capability of the chunking engine, not a
// built-in: the engine only relies on the contract that Estimate(text)
// returns a deterministic non-negative integer. Two implementations are
// provided (the chars/4 heuristic and a markup-aware refinement) plus an
// LRU-cached wrapper and an environment-driven factory.
package estimator
