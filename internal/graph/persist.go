package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ExportSummary reports what Export wrote.
type ExportSummary struct {
	Files    int `json:"files"`
	Packages int `json:"packages"`
	Cycles   int `json:"cycles"`
	Edges    int `json:"edges"`
}

// Export writes the builder's current graph into store: one File per node,
// one Package per distinct external top-level module, one Cycle per circular
// dependency, and the IMPORTS, USES and IN_CYCLE edges between them. The
// store schema is initialized first. Relative references that did not
// resolve are not packages and are left out.
func Export(ctx context.Context, b *Builder, store Store) (*ExportSummary, error) {
	if err := b.EnsureBuilt(ctx); err != nil {
		return nil, err
	}
	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	nodes := b.Nodes()
	paths := make([]string, 0, len(nodes))
	for p := range nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sum ExportSummary
	addEdge := func(e Edge) error {
		if err := store.AddEdge(ctx, e); err != nil {
			return fmt.Errorf("add edge %s->%s: %w", e.SourceID, e.TargetID, err)
		}
		sum.Edges++
		return nil
	}

	for _, p := range paths {
		n := nodes[p]
		err := store.AddFile(ctx, FileRecord{
			Path:         p,
			Module:       ModuleName(p),
			IsOrphaned:   n.IsOrphaned,
			IsEntryPoint: n.IsEntryPoint,
		})
		if err != nil {
			return nil, fmt.Errorf("add file %s: %w", p, err)
		}
		sum.Files++
	}

	packages := make(map[string]bool)
	for _, p := range paths {
		for _, target := range nodes[p].Imports {
			if err := addEdge(Edge{SourceID: p, TargetID: target, Kind: EdgeKindImports}); err != nil {
				return nil, err
			}
		}

		used := make(map[string]bool)
		for _, ext := range nodes[p].ExternalImports {
			pkg := externalPackage(ext)
			if pkg == "" || used[pkg] {
				continue
			}
			used[pkg] = true
			if !packages[pkg] {
				packages[pkg] = true
				if err := store.AddPackage(ctx, PackageRecord{Name: pkg}); err != nil {
					return nil, fmt.Errorf("add package %s: %w", pkg, err)
				}
				sum.Packages++
			}
			if err := addEdge(Edge{SourceID: p, TargetID: pkg, Kind: EdgeKindUses}); err != nil {
				return nil, err
			}
		}
	}

	for i, c := range b.GetCircularDependencies() {
		id := fmt.Sprintf("cycle-%d", i+1)
		err := store.AddCycle(ctx, CycleRecord{ID: id, Severity: c.Severity, Length: len(c.Cycle)})
		if err != nil {
			return nil, fmt.Errorf("add cycle %s: %w", id, err)
		}
		sum.Cycles++
		for _, member := range c.Cycle {
			if err := addEdge(Edge{SourceID: member, TargetID: id, Kind: EdgeKindInCycle}); err != nil {
				return nil, err
			}
		}
	}

	return &sum, nil
}

// externalPackage returns the top-level name of an absolute module reference.
func externalPackage(module string) string {
	if module == "" || strings.HasPrefix(module, ".") {
		return ""
	}
	if i := strings.IndexByte(module, '.'); i >= 0 {
		return module[:i]
	}
	return module
}
