// Package chunker splits XSLT stylesheets into an ordered sequence of
// bounded-size, semantically coherent chunks.
//
// The pipeline runs in four stages: a boundary scan over raw lines, an
// initial structural partition aligned to template boundaries, a two-tier
// decomposition of oversized chunks, and a metadata enrichment pass.
//
// # Basic Usage
//
//	engine, err := chunker.New(chunker.DefaultConfig(), estimator.NewHeuristic())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	chunks, err := engine.ChunkDocument(doc.Lines)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s %s: lines %d-%d, ~%d tokens\n",
//	        chunk.ID, chunk.Kind, chunk.StartLine, chunk.EndLine, chunk.EstimatedTokens)
//	}
//
// # Decomposition
//
// Chunks over the global token ceiling are split with a greedy sliding
// window that seeds each continuation with trailing overlap. Main-template
// chunks above the (lower) semantic threshold get a structure-aware split
// instead: internal boundaries are detected with four heuristics (major
// output elements, top-level for-each loops, variable clusters, top-level
// choose blocks) and cuts are committed at boundaries under a
// target/max/min token discipline, with a small essential-context overlap.
// Main templates with no detectable boundaries fall back to the generic
// splitter.
//
// # Determinism
//
// The engine is purely computational and single-threaded per call: output
// depends only on the input lines, the Config, and the injected token
// estimator. Independent documents may be chunked concurrently on the same
// Engine.
//
// # Malformed Input
//
// The engine never parses a DOM, so malformed markup cannot raise parse
// errors. Unbalanced template tags are tolerated; a template left open at
// end of file is closed at the last line.
package chunker
