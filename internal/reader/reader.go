package reader

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dshills/xsltcontext-mcp/pkg/types"
)

// Document is a stylesheet materialized into lines plus basic metadata.
// The chunking engine consumes Lines and never touches the filesystem.
type Document struct {
	Path        string
	Lines       []string
	LineCount   int
	SizeBytes   int64
	ContentHash [32]byte
	ModTime     time.Time
}

// Reader loads stylesheet documents for the chunking pipeline
type Reader struct{}

// New creates a Reader
func New() *Reader {
	return &Reader{}
}

// Read loads the file at path into a Document. A missing file surfaces
// types.ErrNotFound so callers can fail before attempting partial
// chunking; no other validation is performed (the engine tolerates
// malformed markup).
func (r *Reader) Read(path string) (*Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lines := SplitLines(string(content))
	return &Document{
		Path:        path,
		Lines:       lines,
		LineCount:   len(lines),
		SizeBytes:   info.Size(),
		ContentHash: sha256.Sum256(content),
		ModTime:     info.ModTime(),
	}, nil
}

// SplitLines splits text into lines without a phantom trailing entry for
// a final newline. An empty document yields zero lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
