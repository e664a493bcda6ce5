package graph

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// pyExtractor extracts import references from a Python syntax tree.
type pyExtractor struct{}

// Extract walks the whole tree, so imports nested inside functions, classes
// and try blocks are included. Statements it cannot decode are skipped.
func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) []ImportRef {
	var refs []ImportRef

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, &refs)
	return refs
}

func (e *pyExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, refs *[]ImportRef) {
	node := cursor.Node()

	switch node.Kind() {
	case "import_statement":
		*refs = append(*refs, e.extractImport(node, source)...)
		return

	case "import_from_statement":
		if ref, ok := e.extractFromImport(node, source); ok {
			*refs = append(*refs, ref)
		}
		return

	case "future_import_statement":
		*refs = append(*refs, ImportRef{
			Module: "__future__",
			Names:  e.importedNames(node, source),
			Kind:   ImportKindFrom,
			Line:   lineOf(node),
		})
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, refs)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, refs)
		}
		cursor.GotoParent()
	}
}

// extractImport handles `import a.b, c as d`, yielding one ref per module.
func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte) []ImportRef {
	var refs []ImportRef
	cursor := node.Walk()
	defer cursor.Close()

	for _, child := range node.ChildrenByFieldName("name", cursor) {
		module := moduleText(&child, source)
		if module == "" {
			continue
		}
		refs = append(refs, ImportRef{
			Module: module,
			Kind:   ImportKindImport,
			Line:   lineOf(node),
		})
	}
	return refs
}

// extractFromImport handles `from X import a, b`, including relative forms.
func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte) (ImportRef, bool) {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return ImportRef{}, false
	}

	var module string
	switch moduleNode.Kind() {
	case "relative_import":
		module = strings.Join(strings.Fields(moduleNode.Utf8Text(source)), "")
	case "dotted_name":
		module = moduleNode.Utf8Text(source)
	default:
		return ImportRef{}, false
	}
	if module == "" {
		return ImportRef{}, false
	}

	return ImportRef{
		Module: module,
		Names:  e.importedNames(node, source),
		Kind:   ImportKindFrom,
		Line:   lineOf(node),
	}, true
}

// importedNames collects the names after `import` in a from-statement.
// A wildcard import yields ["*"].
func (e *pyExtractor) importedNames(node *tree_sitter.Node, source []byte) []string {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == "wildcard_import" {
			return []string{"*"}
		}
	}

	cursor := node.Walk()
	defer cursor.Close()

	var names []string
	for _, child := range node.ChildrenByFieldName("name", cursor) {
		if name := moduleText(&child, source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// moduleText returns the dotted name of a dotted_name or aliased_import node.
func moduleText(node *tree_sitter.Node, source []byte) string {
	switch node.Kind() {
	case "dotted_name":
		return node.Utf8Text(source)
	case "aliased_import":
		if name := node.ChildByFieldName("name"); name != nil {
			return name.Utf8Text(source)
		}
	}
	return ""
}

func lineOf(node *tree_sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}
