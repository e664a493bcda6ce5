package graph

import (
	"context"
	"io"
)

// Store is a persistent backend for a built import graph.
// Implementations: KuzuStore (embedded graph DB), MemStore (testing).
type Store interface {
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error

	AddFile(ctx context.Context, file FileRecord) error
	AddPackage(ctx context.Context, pkg PackageRecord) error
	AddCycle(ctx context.Context, cycle CycleRecord) error
	AddEdge(ctx context.Context, edge Edge) error

	GetFile(ctx context.Context, path string) (*FileRecord, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// GetDependencies walks IMPORTS edges from path up to maxDepth hops.
	GetDependencies(ctx context.Context, path string, direction Direction, maxDepth int) ([]DependencyChain, error)

	Stats(ctx context.Context) (*StoreStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this file import?
	DirectionDownstream Direction = "downstream" // what imports this file?
)

// EdgeKind names a relationship table.
type EdgeKind string

const (
	EdgeKindImports EdgeKind = "IMPORTS"  // File -> File
	EdgeKindUses    EdgeKind = "USES"     // File -> Package (external)
	EdgeKindInCycle EdgeKind = "IN_CYCLE" // File -> Cycle
)

// --- Records ---

// FileRecord is the stored form of an ImportNode.
type FileRecord struct {
	Path         string `json:"path"`
	Module       string `json:"module"`
	IsOrphaned   bool   `json:"isOrphaned"`
	IsEntryPoint bool   `json:"isEntryPoint"`
}

// PackageRecord is an external top-level package referenced by project files.
type PackageRecord struct {
	Name string `json:"name"`
}

// CycleRecord is one circular dependency.
type CycleRecord struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Length   int      `json:"length"`
}

// Edge is a directed relationship between two stored records.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// DependencyChain is one path found by GetDependencies, starting at the
// queried file.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// StoreStats counts the stored records.
type StoreStats struct {
	FileCount    int `json:"fileCount"`
	PackageCount int `json:"packageCount"`
	CycleCount   int `json:"cycleCount"`
	EdgeCount    int `json:"edgeCount"`
}
