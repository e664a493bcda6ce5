package updater

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/pyimports/internal/graph"
)

// ValidateNoBrokenImports lists, per file, the import statements that point
// into the project but no longer resolve. Relative imports always point into
// the project; absolute imports do when their first segment is a project
// top-level module or package. Files that cannot be read or parsed are
// skipped. Files with no broken imports are absent from the result.
func (u *Updater) ValidateNoBrokenImports(ctx context.Context, files []string) (map[string][]string, error) {
	if err := u.builder.EnsureBuilt(ctx); err != nil {
		return nil, err
	}
	resolver := graph.NewResolver(u.builder.Paths())

	broken := make(map[string][]string)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := normalize(f)
		source, err := os.ReadFile(u.abs(filepath.FromSlash(rel)))
		if err != nil {
			u.logger.Debug("validate: skipping unreadable file", "file", rel, "error", err)
			continue
		}
		parsed, err := u.parser.Parse(ctx, rel, source)
		if err != nil {
			u.logger.Debug("validate: skipping unparseable file", "file", rel, "error", err)
			continue
		}

		var fileBroken []string
		for _, ref := range parsed.Imports {
			if !pointsIntoProject(resolver, ref) {
				continue
			}
			if len(resolver.ResolveImport(ref, rel)) > 0 || resolver.IsPackageDir(ref.Module, rel) {
				continue
			}
			fileBroken = append(fileBroken, statement(ref))
		}
		if len(fileBroken) > 0 {
			broken[rel] = fileBroken
		}
	}
	return broken, nil
}

func pointsIntoProject(r *graph.Resolver, ref graph.ImportRef) bool {
	if ref.IsRelative() {
		return true
	}
	top, _, _ := strings.Cut(ref.Module, ".")
	return r.OwnsTopLevel(top)
}

func statement(ref graph.ImportRef) string {
	if ref.Kind == graph.ImportKindFrom {
		return fmt.Sprintf("from %s import %s", ref.Module, strings.Join(ref.Names, ", "))
	}
	return "import " + ref.Module
}
