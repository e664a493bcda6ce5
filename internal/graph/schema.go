package graph

import "strings"

// --- Enums ---

// Severity grades a circular dependency by how tightly it couples its members.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityForLength maps a cycle length to its severity. Shorter loops are
// tighter coupling: 1-2 files high, 3-4 medium, 5 or more low.
func SeverityForLength(n int) Severity {
	switch {
	case n <= 2:
		return SeverityHigh
	case n <= 4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ImportKind distinguishes `import x` from `from x import y`.
type ImportKind string

const (
	ImportKindImport ImportKind = "import"
	ImportKindFrom   ImportKind = "from"
)

// --- Models ---

// ImportRef is one module reference extracted from a Python source file.
// Module keeps any leading dots of a relative import (".", "..pkg.mod").
type ImportRef struct {
	Module string     `json:"module"`
	Names  []string   `json:"names,omitempty"` // from-imports only; "*" for wildcard
	Kind   ImportKind `json:"kind"`
	Line   int        `json:"line"`
}

// IsRelative reports whether the reference starts with a dot.
func (r ImportRef) IsRelative() bool {
	return strings.HasPrefix(r.Module, ".")
}

// ImportNode is one parsed source file in the import graph.
type ImportNode struct {
	Filepath        string   `json:"filepath"`
	Imports         []string `json:"imports"`          // in-project files this file depends on
	ImportedBy      []string `json:"imported_by"`      // derived from other nodes' Imports
	ExternalImports []string `json:"external_imports"` // references that did not resolve in the project
	IsOrphaned      bool     `json:"is_orphaned"`
	IsEntryPoint    bool     `json:"is_entry_point"`
}

// CircularDependency is a closed loop of import edges. The first element of
// Cycle conceptually repeats after the last.
type CircularDependency struct {
	Cycle    []string `json:"cycle"`
	Severity Severity `json:"severity"`
}

// String renders the loop as "a -> b -> c -> a".
func (c CircularDependency) String() string {
	if len(c.Cycle) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Cycle)+1)
	parts = append(parts, c.Cycle...)
	parts = append(parts, c.Cycle[0])
	return strings.Join(parts, " -> ")
}

// Contains reports whether path is a member of the cycle.
func (c CircularDependency) Contains(path string) bool {
	for _, p := range c.Cycle {
		if p == path {
			return true
		}
	}
	return false
}

// ImportChain is a bounded tree of a file's transitive imports.
type ImportChain struct {
	File    string        `json:"file"`
	Imports []ImportChain `json:"imports"`
}

// GraphStats summarizes a built import graph.
type GraphStats struct {
	TotalFiles           int `json:"total_files"`
	CircularDependencies int `json:"circular_dependencies"`
	OrphanedFiles        int `json:"orphaned_files"`
	EntryPoints          int `json:"entry_points"`
}

// NodeDict is the serializable form of a node inside GraphDict.
type NodeDict struct {
	Imports         []string `json:"imports"`
	ImportedBy      []string `json:"imported_by"`
	ExternalImports []string `json:"external_imports"`
	IsOrphaned      bool     `json:"is_orphaned"`
	IsEntryPoint    bool     `json:"is_entry_point"`
}

// GraphDict is the dictionary export of the whole graph.
type GraphDict struct {
	Nodes                map[string]NodeDict  `json:"nodes"`
	CircularDependencies []CircularDependency `json:"circular_dependencies"`
	Stats                GraphStats           `json:"stats"`
}

// ClusterNode is the set of files sharing a package directory.
type ClusterNode struct {
	Name          string   `json:"name"`
	CohesionScore float64  `json:"cohesionScore"`
	Members       []string `json:"members"` // file paths
}
