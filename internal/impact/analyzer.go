package impact

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/logging"
)

// Graph is the read side of an import graph the analyzer queries.
// *graph.Builder satisfies it.
type Graph interface {
	EnsureBuilt(ctx context.Context) error
	Node(path string) (graph.ImportNode, bool)
	GetFileImporters(path string) []string
	GetCircularDependencies() []graph.CircularDependency
}

var _ Graph = (*graph.Builder)(nil)

// Analyzer predicts the blast radius of file operations. It never mutates
// the graph or the file tree.
type Analyzer struct {
	graph  Graph
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer over g. A nil logger discards output.
func NewAnalyzer(g Graph, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Analyzer{graph: g, logger: logger}
}

// AnalyzeMove reports the impact of moving source to target.
func (a *Analyzer) AnalyzeMove(ctx context.Context, source, target string) (*ImpactReport, error) {
	return a.analyzeRelocation(ctx, OperationMove, normalize(source), normalize(target))
}

// AnalyzeRename reports the impact of renaming file to newName within its
// directory.
func (a *Analyzer) AnalyzeRename(ctx context.Context, file, newName string) (*ImpactReport, error) {
	source := normalize(file)
	target := path.Join(path.Dir(source), path.Base(normalize(newName)))
	return a.analyzeRelocation(ctx, OperationRename, source, target)
}

func (a *Analyzer) analyzeRelocation(ctx context.Context, op Operation, source, target string) (*ImpactReport, error) {
	if err := a.graph.EnsureBuilt(ctx); err != nil {
		return nil, err
	}

	report := newReport(op, source, target)
	if _, ok := a.graph.Node(source); !ok {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Source file %s not found in import graph", source))
		return report, nil
	}

	importers := a.graph.GetFileImporters(source)
	report.AffectedFiles = importers
	report.TransitivelyAffected = a.transitiveImporters(source)

	oldModule := graph.ModuleName(source)
	newModule := graph.ModuleName(target)
	for _, importer := range importers {
		report.ImportChanges = append(report.ImportChanges, ImportChange{
			File:       importer,
			OldImport:  oldModule,
			NewImport:  newModule,
			ImportType: ImportTypeUnknown,
		})
	}

	report.TestFilesAffected = testFiles(importers)
	report.RiskLevel = relocationRisk(len(importers), len(report.TestFilesAffected), source, target)
	report.CircularDependencyRisk = a.inCycle(source)
	report.EstimatedChanges = len(report.ImportChanges)
	addRecommendations(report)

	a.logger.Debug("impact analyzed",
		"operation", op,
		"source", source,
		"target", target,
		"affected", len(importers),
		"risk", report.RiskLevel,
	)
	return report, nil
}

// AnalyzeDelete reports the impact of deleting file. Every importer breaks,
// so any importer at all makes the operation high risk.
func (a *Analyzer) AnalyzeDelete(ctx context.Context, file string) (*ImpactReport, error) {
	if err := a.graph.EnsureBuilt(ctx); err != nil {
		return nil, err
	}

	file = normalize(file)
	report := newReport(OperationDelete, file, "")
	if _, ok := a.graph.Node(file); !ok {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("File %s not found in import graph", file))
		return report, nil
	}

	importers := a.graph.GetFileImporters(file)
	report.AffectedFiles = importers
	report.TransitivelyAffected = a.transitiveImporters(file)

	module := graph.ModuleName(file)
	for _, importer := range importers {
		report.ImportChanges = append(report.ImportChanges, ImportChange{
			File:       importer,
			OldImport:  module,
			ImportType: ImportTypeUnknown,
		})
	}
	report.TestFilesAffected = testFiles(importers)
	report.CircularDependencyRisk = a.inCycle(file)
	report.EstimatedChanges = len(importers)

	if len(importers) > 0 {
		report.RiskLevel = RiskHigh
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Deleting this file will break %d files that import it", len(importers)))
		report.Recommendations = append(report.Recommendations,
			"Consider moving functionality to another file before deleting",
			"Update all importing files to remove or replace imports",
		)
	}
	return report, nil
}

// ImportDistance returns the number of import hops from one file to another,
// following Imports edges only. It is 0 for the same file and -1 when either
// file is unknown or to is unreachable.
func (a *Analyzer) ImportDistance(ctx context.Context, from, to string) (int, error) {
	if err := a.graph.EnsureBuilt(ctx); err != nil {
		return -1, err
	}

	from, to = normalize(from), normalize(to)
	if _, ok := a.graph.Node(from); !ok {
		return -1, nil
	}
	if _, ok := a.graph.Node(to); !ok {
		return -1, nil
	}

	type entry struct {
		file string
		dist int
	}
	visited := map[string]bool{from: true}
	queue := []entry{{file: from}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.file == to {
			return cur.dist, nil
		}
		node, _ := a.graph.Node(cur.file)
		for _, next := range node.Imports {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, entry{file: next, dist: cur.dist + 1})
			}
		}
	}
	return -1, nil
}

// transitiveImporters returns every file that reaches file through one or
// more import edges, excluding file itself.
func (a *Analyzer) transitiveImporters(file string) []string {
	visited := map[string]bool{file: true}
	frontier := []string{file}
	var out []string
	for len(frontier) > 0 {
		var next []string
		for _, f := range frontier {
			for _, importer := range a.graph.GetFileImporters(f) {
				if visited[importer] {
					continue
				}
				visited[importer] = true
				out = append(out, importer)
				next = append(next, importer)
			}
		}
		frontier = next
	}
	sort.Strings(out)
	if out == nil {
		return []string{}
	}
	return out
}

func (a *Analyzer) inCycle(file string) bool {
	for _, c := range a.graph.GetCircularDependencies() {
		if c.Contains(file) {
			return true
		}
	}
	return false
}

// relocationRisk applies the risk table; the first matching rule wins.
func relocationRisk(importers, tests int, source, target string) RiskLevel {
	switch {
	case importers == 0:
		return RiskLow
	case importers > 10:
		return RiskHigh
	case importers > 5:
		return RiskMedium
	case graph.TopLevelPackage(source) != graph.TopLevelPackage(target):
		return RiskMedium
	case tests > 0:
		return RiskMedium
	default:
		return RiskLow
	}
}

func addRecommendations(r *ImpactReport) {
	if r.RiskLevel == RiskHigh {
		r.Recommendations = append(r.Recommendations,
			"High risk operation - consider breaking into smaller steps",
			"Create backup before proceeding",
			"Run tests after making changes",
		)
	}
	if r.CircularDependencyRisk {
		r.Recommendations = append(r.Recommendations,
			"File is involved in circular dependencies - review carefully")
	}
	if n := len(r.TestFilesAffected); n > 0 {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("%d test files affected - run tests after changes", n))
	}
	if r.EstimatedChanges > 10 {
		r.Recommendations = append(r.Recommendations,
			fmt.Sprintf("Large number of changes (%d) - consider using automated import update", r.EstimatedChanges))
	}
}

// IsTestFile reports whether a project path looks like test code.
func IsTestFile(p string) bool {
	return strings.Contains(strings.ToLower(p), "test") || strings.HasPrefix(p, "tests/")
}

func testFiles(files []string) []string {
	out := []string{}
	for _, f := range files {
		if IsTestFile(f) {
			out = append(out, f)
		}
	}
	return out
}

func normalize(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
}
