// Package reader loads stylesheet files into line-oriented documents for
// the chunking engine, computing the content hash used for incremental
// re-indexing.
package reader
