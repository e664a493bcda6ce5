package mcptools

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/impact"
	"github.com/dusk-indust/pyimports/internal/updater"
)

// ImportService holds the graph builder, analyzer and updater used by the
// MCP tool handlers. It serves a single project root.
type ImportService struct {
	builder  *graph.Builder
	analyzer *impact.Analyzer
	updater  *updater.Updater

	// writeMu serializes update_imports calls.
	writeMu sync.Mutex
}

// NewImportService creates an ImportService over builder. A nil updater is
// replaced by one sharing builder.
func NewImportService(builder *graph.Builder, upd *updater.Updater) *ImportService {
	if upd == nil {
		upd = updater.New(builder.Root(), updater.WithBuilder(builder))
	}
	return &ImportService{
		builder:  builder,
		analyzer: impact.NewAnalyzer(builder, nil),
		updater:  upd,
	}
}

// BuildImportGraph builds (or rebuilds when forced) the import graph.
func (s *ImportService) BuildImportGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildImportGraphInput,
) (*mcp.CallToolResult, BuildImportGraphOutput, error) {
	if _, err := s.builder.BuildGraph(ctx, input.Force); err != nil {
		return nil, BuildImportGraphOutput{}, fmt.Errorf("build graph: %w", err)
	}
	return nil, BuildImportGraphOutput{
		Stats:       s.builder.Stats(),
		Orphaned:    s.builder.GetOrphanedFiles(),
		EntryPoints: s.builder.GetEntryPoints(),
	}, nil
}

// GetFileImports lists the project files and external modules a file imports.
func (s *ImportService) GetFileImports(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileInput,
) (*mcp.CallToolResult, GetFileImportsOutput, error) {
	if input.File == "" {
		return nil, GetFileImportsOutput{}, fmt.Errorf("file is required")
	}
	if err := s.builder.EnsureBuilt(ctx); err != nil {
		return nil, GetFileImportsOutput{}, err
	}

	out := GetFileImportsOutput{
		File:            input.File,
		Imports:         s.builder.GetFileImports(input.File),
		ExternalImports: []string{},
	}
	if node, ok := s.builder.Node(input.File); ok && node.ExternalImports != nil {
		out.ExternalImports = node.ExternalImports
	}
	return nil, out, nil
}

// GetFileImporters lists the project files that import a file.
func (s *ImportService) GetFileImporters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileInput,
) (*mcp.CallToolResult, GetFileImportersOutput, error) {
	if input.File == "" {
		return nil, GetFileImportersOutput{}, fmt.Errorf("file is required")
	}
	if err := s.builder.EnsureBuilt(ctx); err != nil {
		return nil, GetFileImportersOutput{}, err
	}
	return nil, GetFileImportersOutput{
		File:      input.File,
		Importers: s.builder.GetFileImporters(input.File),
	}, nil
}

// GetCircularDependencies returns every import cycle in the project.
func (s *ImportService) GetCircularDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GetCircularDependenciesInput,
) (*mcp.CallToolResult, GetCircularDependenciesOutput, error) {
	if err := s.builder.EnsureBuilt(ctx); err != nil {
		return nil, GetCircularDependenciesOutput{}, err
	}
	cycles := s.builder.GetCircularDependencies()
	if cycles == nil {
		cycles = []graph.CircularDependency{}
	}
	return nil, GetCircularDependenciesOutput{Cycles: cycles}, nil
}

// AnalyzeMoveImpact predicts the effect of moving a file.
func (s *ImportService) AnalyzeMoveImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeMoveInput,
) (*mcp.CallToolResult, ImpactOutput, error) {
	if input.Source == "" || input.Target == "" {
		return nil, ImpactOutput{}, fmt.Errorf("source and target are required")
	}
	report, err := s.analyzer.AnalyzeMove(ctx, input.Source, input.Target)
	if err != nil {
		return nil, ImpactOutput{}, fmt.Errorf("analyze move: %w", err)
	}
	return nil, impactOutput(report), nil
}

// AnalyzeRenameImpact predicts the effect of renaming a file in place.
func (s *ImportService) AnalyzeRenameImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeRenameInput,
) (*mcp.CallToolResult, ImpactOutput, error) {
	if input.File == "" || input.NewName == "" {
		return nil, ImpactOutput{}, fmt.Errorf("file and newName are required")
	}
	report, err := s.analyzer.AnalyzeRename(ctx, input.File, input.NewName)
	if err != nil {
		return nil, ImpactOutput{}, fmt.Errorf("analyze rename: %w", err)
	}
	return nil, impactOutput(report), nil
}

// AnalyzeDeleteImpact predicts the effect of deleting a file.
func (s *ImportService) AnalyzeDeleteImpact(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FileInput,
) (*mcp.CallToolResult, ImpactOutput, error) {
	if input.File == "" {
		return nil, ImpactOutput{}, fmt.Errorf("file is required")
	}
	report, err := s.analyzer.AnalyzeDelete(ctx, input.File)
	if err != nil {
		return nil, ImpactOutput{}, fmt.Errorf("analyze delete: %w", err)
	}
	return nil, impactOutput(report), nil
}

// GetImportDistance returns the import hop count between two files.
func (s *ImportService) GetImportDistance(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetImportDistanceInput,
) (*mcp.CallToolResult, GetImportDistanceOutput, error) {
	if input.From == "" || input.To == "" {
		return nil, GetImportDistanceOutput{}, fmt.Errorf("from and to are required")
	}
	d, err := s.analyzer.ImportDistance(ctx, input.From, input.To)
	if err != nil {
		return nil, GetImportDistanceOutput{}, fmt.Errorf("import distance: %w", err)
	}
	return nil, GetImportDistanceOutput{Distance: d, Reachable: d >= 0}, nil
}

// UpdateImports rewrites the importers of a moved file.
func (s *ImportService) UpdateImports(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateImportsInput,
) (*mcp.CallToolResult, UpdateImportsOutput, error) {
	if input.OldPath == "" || input.NewPath == "" {
		return nil, UpdateImportsOutput{}, fmt.Errorf("oldPath and newPath are required")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	results, err := s.updater.UpdateForMove(ctx, input.OldPath, input.NewPath, input.DryRun)
	if err != nil {
		return nil, UpdateImportsOutput{}, fmt.Errorf("update imports: %w", err)
	}

	out := UpdateImportsOutput{DryRun: input.DryRun, Files: make([]FileUpdate, 0, len(results))}
	for _, r := range results {
		out.Files = append(out.Files, fileUpdate(r))
		out.Changes += r.ChangesMade
	}
	return nil, out, nil
}
