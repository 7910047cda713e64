package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/xsltcontext-mcp/internal/chunker"
	"github.com/dshills/xsltcontext-mcp/internal/indexer"
	"github.com/dshills/xsltcontext-mcp/internal/storage"
	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeNotIndexed    = -32001 // Stylesheet not indexed
	ErrorCodeChunkNotFound = -32002 // Chunk key not present in the stylesheet
	ErrorCodeEmptyQuery    = -32003 // Query parameter is empty
)

// handleChunkStylesheet handles the chunk_stylesheet tool invocation
func (s *Server) handleChunkStylesheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	force := getBoolDefault(args, "force", false)

	cfg := chunker.Config{
		MaxTokensPerChunk:          getIntDefault(args, "max_tokens", 0),
		OverlapTokens:              getIntDefault(args, "overlap_tokens", -1),
		MainTemplateSplitThreshold: getIntDefault(args, "split_threshold", 0),
		HelperPatterns:             getStringSlice(args, "helper_patterns"),
	}

	engine, err := chunker.New(cfg, s.estimator)
	if err != nil {
		if errors.Is(err, types.ErrInvalidConfiguration) {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid chunking configuration", map[string]interface{}{
				"reason": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to create chunking engine", map[string]interface{}{
			"error": err.Error(),
		})
	}

	idx := indexer.New(s.storage, engine, s.estimator)
	stats, err := idx.IndexPath(ctx, path, &indexer.Config{Force: force})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"run_id":         stats.RunID,
		"files_indexed":  stats.FilesIndexed,
		"files_skipped":  stats.FilesSkipped,
		"files_failed":   stats.FilesFailed,
		"chunks_created": stats.ChunksCreated,
		"duration_ms":    stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListChunks handles the list_chunks tool invocation
func (s *Server) handleListChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	kind := getStringDefault(args, "kind", "")

	sheet, err := s.storage.GetStylesheet(ctx, path)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeNotIndexed, "stylesheet not indexed", map[string]interface{}{
			"path":    path,
			"message": "Use chunk_stylesheet to index this file first.",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to look up stylesheet", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunks, err := s.storage.ListChunks(ctx, sheet.ID, kind)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list chunks", map[string]interface{}{
			"error": err.Error(),
		})
	}

	summaries := make([]types.ChunkSummary, 0, len(chunks))
	for _, chunk := range chunks {
		summaries = append(summaries, chunk.Summary())
	}

	response := map[string]interface{}{
		"path":        sheet.Path,
		"line_count":  sheet.LineCount,
		"chunk_count": len(summaries),
		"chunks":      summaries,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetChunk handles the get_chunk tool invocation
func (s *Server) handleGetChunk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}
	chunkID, ok := args["chunk_id"].(string)
	if !ok || chunkID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk_id parameter is required", map[string]interface{}{
			"param":  "chunk_id",
			"reason": "missing or empty",
		})
	}

	sheet, err := s.storage.GetStylesheet(ctx, path)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeNotIndexed, "stylesheet not indexed", map[string]interface{}{
			"path": path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to look up stylesheet", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunk, err := s.storage.GetChunk(ctx, sheet.ID, chunkID)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeChunkNotFound, "chunk not found", map[string]interface{}{
			"path":     path,
			"chunk_id": chunkID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get chunk", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"id":               chunk.ChunkKey,
		"kind":             chunk.Kind,
		"name":             chunk.Name,
		"start_line":       chunk.StartLine,
		"end_line":         chunk.EndLine,
		"line_count":       chunk.LineCount,
		"estimated_tokens": chunk.TokenCount,
		"complexity":       chunk.Complexity,
		"dependencies":     chunk.Dependencies,
		"content":          chunk.Content,
	}
	if chunk.IsSubChunk {
		response["is_sub_chunk"] = true
		response["parent_chunk"] = chunk.ParentChunk
		response["sub_chunk_index"] = chunk.SubChunkIndex
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchChunks handles the search_chunks tool invocation
func (s *Server) handleSearchChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	chunks, err := s.storage.SearchChunks(ctx, query, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Resolve stylesheet paths once per distinct stylesheet
	paths := make(map[int64]string)
	results := make([]map[string]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		path, seen := paths[chunk.StylesheetID]
		if !seen {
			sheet, err := s.storage.GetStylesheetByID(ctx, chunk.StylesheetID)
			if err == nil {
				path = sheet.Path
			}
			paths[chunk.StylesheetID] = path
		}
		results = append(results, map[string]interface{}{
			"stylesheet":       path,
			"id":               chunk.ChunkKey,
			"kind":             chunk.Kind,
			"name":             chunk.Name,
			"start_line":       chunk.StartLine,
			"end_line":         chunk.EndLine,
			"estimated_tokens": chunk.TokenCount,
		})
	}

	response := map[string]interface{}{
		"query":        query,
		"result_count": len(results),
		"results":      results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"stylesheets_count":  status.StylesheetsCount,
			"chunks_count":       status.ChunksCount,
			"sub_chunks_count":   status.SubChunksCount,
			"dependencies_count": status.DependenciesCount,
			"index_size_mb":      fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
	}
	if status.LastRun != nil {
		response["last_run"] = map[string]interface{}{
			"run_id":         status.LastRun.ID,
			"started_at":     status.LastRun.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
			"duration_ms":    status.LastRun.DurationMS,
			"files_indexed":  status.LastRun.FilesIndexed,
			"files_skipped":  status.LastRun.FilesSkipped,
			"files_failed":   status.LastRun.FilesFailed,
			"chunks_created": status.LastRun.ChunksCreated,
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that a path exists and is absolute. Both files and
// directories are accepted; extension filtering happens during discovery.
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ErrPathNotFound
	} else if err != nil {
		return ErrPathNotReadable
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice extracts a string array parameter. Returns nil when the
// parameter is absent, which the chunker treats differently from an
// explicitly empty array.
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
)
