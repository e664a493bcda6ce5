package mcptools

import (
	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/impact"
	"github.com/dusk-indust/pyimports/internal/updater"
)

// --- MCP Tool Input/Output Types ---
// The MCP Go SDK derives each tool's JSON schema from these structs.
// Paths are relative to the served project root.

// BuildImportGraphInput is the input for the build_import_graph MCP tool.
type BuildImportGraphInput struct {
	Force bool `json:"force,omitempty" jsonschema:"rebuild even if the cached graph is fresh"`
}

// BuildImportGraphOutput is the result of the build_import_graph MCP tool.
type BuildImportGraphOutput struct {
	Stats       graph.GraphStats `json:"stats"`
	Orphaned    []string         `json:"orphaned"`
	EntryPoints []string         `json:"entryPoints"`
}

// FileInput names a single project file.
type FileInput struct {
	File string `json:"file" jsonschema:"project-relative path of a Python file"`
}

// GetFileImportsOutput is the result of the get_file_imports MCP tool.
type GetFileImportsOutput struct {
	File            string   `json:"file"`
	Imports         []string `json:"imports"`
	ExternalImports []string `json:"externalImports"`
}

// GetFileImportersOutput is the result of the get_file_importers MCP tool.
type GetFileImportersOutput struct {
	File      string   `json:"file"`
	Importers []string `json:"importers"`
}

// GetCircularDependenciesInput is the input for the get_circular_dependencies MCP tool.
type GetCircularDependenciesInput struct{}

// GetCircularDependenciesOutput is the result of the get_circular_dependencies MCP tool.
type GetCircularDependenciesOutput struct {
	Cycles []graph.CircularDependency `json:"cycles"`
}

// AnalyzeMoveInput is the input for the analyze_move_impact MCP tool.
type AnalyzeMoveInput struct {
	Source string `json:"source" jsonschema:"file to move"`
	Target string `json:"target" jsonschema:"destination path"`
}

// AnalyzeRenameInput is the input for the analyze_rename_impact MCP tool.
type AnalyzeRenameInput struct {
	File    string `json:"file" jsonschema:"file to rename"`
	NewName string `json:"newName" jsonschema:"new file name within the same directory"`
}

// ImpactOutput is the result of the analyze_*_impact MCP tools. The risk
// level is carried as its name.
type ImpactOutput struct {
	Operation              string                `json:"operation"`
	SourceFile             string                `json:"sourceFile"`
	TargetFile             string                `json:"targetFile,omitempty"`
	RiskLevel              string                `json:"riskLevel"`
	AffectedFiles          []string              `json:"affectedFiles"`
	TransitivelyAffected   []string              `json:"transitivelyAffected"`
	ImportChanges          []impact.ImportChange `json:"importChanges"`
	CircularDependencyRisk bool                  `json:"circularDependencyRisk"`
	TestFilesAffected      []string              `json:"testFilesAffected"`
	EstimatedChanges       int                   `json:"estimatedChanges"`
	Warnings               []string              `json:"warnings"`
	Recommendations        []string              `json:"recommendations"`
}

func impactOutput(r *impact.ImpactReport) ImpactOutput {
	return ImpactOutput{
		Operation:              string(r.Operation),
		SourceFile:             r.SourceFile,
		TargetFile:             r.TargetFile,
		RiskLevel:              r.RiskLevel.String(),
		AffectedFiles:          r.AffectedFiles,
		TransitivelyAffected:   r.TransitivelyAffected,
		ImportChanges:          r.ImportChanges,
		CircularDependencyRisk: r.CircularDependencyRisk,
		TestFilesAffected:      r.TestFilesAffected,
		EstimatedChanges:       r.EstimatedChanges,
		Warnings:               r.Warnings,
		Recommendations:        r.Recommendations,
	}
}

// GetImportDistanceInput is the input for the get_import_distance MCP tool.
type GetImportDistanceInput struct {
	From string `json:"from" jsonschema:"starting file"`
	To   string `json:"to" jsonschema:"file to reach along import edges"`
}

// GetImportDistanceOutput is the result of the get_import_distance MCP tool.
type GetImportDistanceOutput struct {
	Distance  int  `json:"distance"`
	Reachable bool `json:"reachable"`
}

// UpdateImportsInput is the input for the update_imports MCP tool.
type UpdateImportsInput struct {
	OldPath string `json:"oldPath" jsonschema:"current path of the moved file"`
	NewPath string `json:"newPath" jsonschema:"path the file is moved to"`
	DryRun  bool   `json:"dryRun,omitempty" jsonschema:"preview changes without writing"`
}

// FileUpdate summarizes one rewritten file.
type FileUpdate struct {
	File        string `json:"file"`
	Success     bool   `json:"success"`
	ChangesMade int    `json:"changesMade"`
	Error       string `json:"error,omitempty"`
	Diff        string `json:"diff,omitempty"`
}

// UpdateImportsOutput is the result of the update_imports MCP tool.
type UpdateImportsOutput struct {
	DryRun  bool         `json:"dryRun"`
	Files   []FileUpdate `json:"files"`
	Changes int          `json:"changes"`
}

func fileUpdate(r updater.UpdateResult) FileUpdate {
	fu := FileUpdate{
		File:        r.File,
		Success:     r.Success,
		ChangesMade: r.ChangesMade,
		Error:       r.Error,
	}
	if r.ChangesMade > 0 {
		if d, err := r.Diff(); err == nil {
			fu.Diff = d
		}
	}
	return fu
}
