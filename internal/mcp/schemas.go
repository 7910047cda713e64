package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// chunkStylesheetTool returns the tool definition for chunk_stylesheet
func chunkStylesheetTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_stylesheet",
		Description: "Chunk an XSLT stylesheet (or a directory tree of stylesheets) into bounded-size semantic chunks and store the result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a .xsl/.xslt file or a directory containing stylesheets",
				},
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-chunk files even when their content hash is unchanged",
					"default":     false,
				},
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Global token ceiling per chunk",
					"default":     15000,
				},
				"overlap_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget for trailing overlap between generic sub-chunks",
					"default":     500,
				},
				"split_threshold": map[string]interface{}{
					"type":        "integer",
					"description": "Token count above which a main template is decomposed semantically",
					"default":     10000,
				},
				"helper_patterns": map[string]interface{}{
					"type":        "array",
					"description": "Regex patterns classifying templates as helpers (omit for the default vmfN pattern set; empty array disables helper classification)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"path"},
		},
	}
}

// listChunksTool returns the tool definition for list_chunks
func listChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_chunks",
		Description: "List the chunk summaries of an indexed stylesheet in document order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of an indexed stylesheet",
				},
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Optional chunk kind filter",
					"enum": []string{
						"helper_template", "main_template", "variable_section",
						"import_section", "namespace_section", "choose_block", "unknown",
					},
				},
			},
			Required: []string{"path"},
		},
	}
}

// getChunkTool returns the tool definition for get_chunk
func getChunkTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_chunk",
		Description: "Retrieve a single chunk with its full line content and dependencies",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path of an indexed stylesheet",
				},
				"chunk_id": map[string]interface{}{
					"type":        "string",
					"description": "Chunk ID, e.g. chunk_003 or chunk_003_sub_1",
				},
			},
			Required: []string{"path", "chunk_id"},
		},
	}
}

// searchChunksTool returns the tool definition for search_chunks
func searchChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_chunks",
		Description: "Full-text search over indexed chunk names and content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "FTS query (keywords or phrases)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report chunk inventory statistics and the last indexing run",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
