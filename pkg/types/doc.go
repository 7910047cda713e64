// Package types provides shared type definitions for the XSLTContext MCP server.
//
// This package defines the domain types used across the chunking pipeline:
// boundaries, chunks, dependency sets, and the flattened chunk summary
// consumed by downstream collaborators.
//
// # Core Types
//
// Boundary is an ephemeral structural marker detected during the line scan:
//
//	b := types.Boundary{
//	    Kind: types.BoundaryTemplateStart,
//	    Line: 42,
//	    Name: "vmf:vmf1_inputtoresult",
//	}
//
// Chunk is the unit of output, a contiguous span of stylesheet lines:
//
//	chunk := &types.Chunk{
//	    ID:        "chunk_003",
//	    Kind:      types.ChunkMainTemplate,
//	    Name:      "match:/",
//	    StartLine: 120,
//	    EndLine:   480,
//	}
//
// Sub-chunks produced by decomposition carry lineage metadata under the
// Meta* keys (MetaIsSubChunk, MetaParentChunkID, MetaSubChunkIndex).
//
// # Dependency Sets
//
// DependencySet holds typed cross-references ("var:x", "template:y",
// "function:ns:f") extracted from chunk text. Extraction is idempotent:
// the set only grows via union and deduplicates automatically.
package types
