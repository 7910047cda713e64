// Package mcp implements the Model Context Protocol (MCP) server for
// XSLTContext.
//
// The server exposes five tools to AI coding assistants:
//   - chunk_stylesheet: Chunk a stylesheet (or directory tree) and store the result
//   - list_chunks: List chunk summaries for an indexed stylesheet
//   - get_chunk: Retrieve one chunk with full content and dependencies
//   - search_chunks: Full-text search over chunk names and content
//   - get_status: Inventory statistics and the last indexing run
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Tool: chunk_stylesheet
//
//	Request:
//	{
//	  "name": "chunk_stylesheet",
//	  "arguments": {
//	    "path": "/path/to/transform.xsl",
//	    "force": false,
//	    "max_tokens": 15000,
//	    "overlap_tokens": 500,
//	    "split_threshold": 10000
//	  }
//	}
//
//	Response:
//	{
//	  "run_id": "6f1c...",
//	  "files_indexed": 1,
//	  "files_skipped": 0,
//	  "chunks_created": 42,
//	  "duration_ms": 18
//	}
//
// # Tool: list_chunks
//
//	Request:
//	{
//	  "name": "list_chunks",
//	  "arguments": {
//	    "path": "/path/to/transform.xsl",
//	    "kind": "helper_template"
//	  }
//	}
//
// Summaries come back in document order with spans, token counts, and
// dependency lists; get_chunk retrieves any one of them with its full text.
//
// # Error Handling
//
// Handlers return standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {"param": "path", "reason": "path must be absolute"}
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments, bad helper regex)
//   - -32603: Internal error (database, filesystem, chunking failure)
//   - -32001: Stylesheet not indexed
//   - -32002: Chunk not found
//   - -32003: Empty query
//
// # Logging
//
// The server logs to stderr; stdout is reserved for MCP protocol traffic.
package mcp
