package graph

import (
	"bytes"
	"context"
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// TreeSitterParser implements Parser with the tree-sitter Python grammar.
// A new tree-sitter parser is created per call, so a single TreeSitterParser
// may be shared by concurrent goroutines.
type TreeSitterParser struct {
	language  *tree_sitter.Language
	extractor *pyExtractor
}

// Compile-time assertion: *TreeSitterParser satisfies Parser.
var _ Parser = (*TreeSitterParser)(nil)

// NewTreeSitterParser creates a TreeSitterParser with the Python grammar loaded.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{
		language:  tree_sitter.NewLanguage(tree_sitter_python.Language()),
		extractor: &pyExtractor{},
	}
}

// Parse extracts import statements from a single source file.
func (p *TreeSitterParser) Parse(ctx context.Context, path string, source []byte) (*ParseResult, error) {
	var imports []ImportRef
	err := p.withTree(ctx, source, func(root *tree_sitter.Node) error {
		if err := syntaxError(root); err != nil {
			err.Path = path
			return err
		}
		imports = p.extractor.Extract(root, source)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ParseResult{
		Path:    path,
		LOC:     countLOC(source),
		Imports: imports,
	}, nil
}

// Validate returns a *SyntaxError if source contains error or missing nodes.
func (p *TreeSitterParser) Validate(ctx context.Context, source []byte) error {
	return p.withTree(ctx, source, func(root *tree_sitter.Node) error {
		if err := syntaxError(root); err != nil {
			return err
		}
		return nil
	})
}

// ImportLines returns the set of 1-based lines where an import statement
// begins. It tolerates syntax errors and reports what the parser recovered.
func (p *TreeSitterParser) ImportLines(ctx context.Context, source []byte) (map[int]bool, error) {
	lines := make(map[int]bool)
	err := p.withTree(ctx, source, func(root *tree_sitter.Node) error {
		for _, ref := range p.extractor.Extract(root, source) {
			lines[ref.Line] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Close is a no-op because parsers are created per call.
func (p *TreeSitterParser) Close() error {
	return nil
}

func (p *TreeSitterParser) withTree(ctx context.Context, source []byte, fn func(root *tree_sitter.Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return fmt.Errorf("set language python: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fmt.Errorf("tree-sitter returned nil tree")
	}
	defer tree.Close()

	return fn(tree.RootNode())
}

// syntaxError returns the first ERROR or MISSING node as a *SyntaxError, or
// nil when the tree is clean.
func syntaxError(root *tree_sitter.Node) *SyntaxError {
	if !root.HasError() {
		return nil
	}
	bad := findFirstError(root)
	if bad == nil {
		return &SyntaxError{Line: 1, Column: 1, Msg: "invalid syntax"}
	}
	pos := bad.StartPosition()
	msg := "invalid syntax"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %q", bad.Kind())
	}
	return &SyntaxError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Msg:    msg,
	}
}

// findFirstError does a pre-order search for the first error or missing node.
func findFirstError(node *tree_sitter.Node) *tree_sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := findFirstError(child); found != nil {
			return found
		}
	}
	return nil
}

// countLOC counts the number of lines in source by counting newline bytes
// and adding one for the final line if the source is non-empty.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}
