package graph

import (
	"context"
	"fmt"
)

// ParseResult holds the import statements extracted from a single file.
type ParseResult struct {
	Path    string      `json:"path"`
	LOC     int         `json:"loc"`
	Imports []ImportRef `json:"imports"`
}

// Parser extracts import statements from Python source files.
// Implementations: TreeSitterParser (production), stub parsers in tests.
type Parser interface {
	// Parse extracts every import statement from source. A source that does
	// not parse cleanly returns a *SyntaxError.
	Parse(ctx context.Context, path string, source []byte) (*ParseResult, error)

	// Validate reports whether source is syntactically valid Python.
	Validate(ctx context.Context, source []byte) error

	// ImportLines returns the 1-based lines on which an import statement starts.
	ImportLines(ctx context.Context, source []byte) (map[int]bool, error)

	// Close releases parser resources (Tree-sitter C memory).
	Close() error
}

// SyntaxError locates the first error node of an unparseable source.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	loc := fmt.Sprintf("line %d, column %d", e.Line, e.Column)
	if e.Path != "" {
		loc = e.Path + ": " + loc
	}
	return fmt.Sprintf("%s: %s", loc, e.Msg)
}
