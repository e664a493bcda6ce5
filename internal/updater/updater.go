package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dusk-indust/pyimports/internal/config"
	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/impact"
	"github.com/dusk-indust/pyimports/internal/logging"
)

// UpdateResult is the outcome of rewriting imports in one file.
type UpdateResult struct {
	File        string `json:"file"`
	Success     bool   `json:"success"`
	ChangesMade int    `json:"changes_made"`
	OldContent  string `json:"old_content"`
	NewContent  string `json:"new_content"`
	Error       string `json:"error,omitempty"`
}

// Updater rewrites import statements in place when modules move.
// Updates to a single file are not synchronized; callers serialize per path.
type Updater struct {
	root         string
	parser       graph.Parser
	builder      *graph.Builder
	backupSuffix string
	logger       *slog.Logger
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the logger for update progress.
func WithLogger(l *slog.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithParser replaces the tree-sitter parser used for import detection and
// syntax validation.
func WithParser(p graph.Parser) Option {
	return func(u *Updater) {
		if p != nil {
			u.parser = p
		}
	}
}

// WithBackupSuffix sets the suffix appended to a file's path to name its
// backup. The default is ".bak".
func WithBackupSuffix(suffix string) Option {
	return func(u *Updater) {
		if suffix != "" {
			u.backupSuffix = suffix
		}
	}
}

// WithBuilder shares an existing graph builder, so its cache is invalidated
// after files are rewritten.
func WithBuilder(b *graph.Builder) Option {
	return func(u *Updater) {
		u.builder = b
	}
}

// New creates an Updater rooted at root.
func New(root string, opts ...Option) *Updater {
	u := &Updater{
		root:         root,
		parser:       graph.NewTreeSitterParser(),
		backupSuffix: config.DefaultBackupSuffix,
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.builder == nil {
		u.builder = graph.NewBuilder(root, graph.WithParser(u.parser), graph.WithLogger(u.logger))
	}
	return u
}

// Builder returns the graph builder the updater consults for importers.
func (u *Updater) Builder() *graph.Builder {
	return u.builder
}

// UpdateFile rewrites every `import old` and `from old import ...` statement
// in file to use newModule. The result is validated before anything is
// written; an invalid result leaves the file untouched. With dryRun set
// nothing is written at all.
func (u *Updater) UpdateFile(ctx context.Context, file, oldModule, newModule string, dryRun bool) UpdateResult {
	rel := filepath.ToSlash(file)
	result := UpdateResult{File: rel}

	abs := u.abs(file)
	info, err := os.Stat(abs)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.OldContent = string(data)
	result.NewContent = result.OldContent

	if oldModule == "" || oldModule == newModule {
		result.Success = true
		return result
	}

	importLines, err := u.parser.ImportLines(ctx, data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	newContent, changes := newRewriter(oldModule, newModule).apply(result.OldContent, importLines)
	result.NewContent = newContent

	if err := u.parser.Validate(ctx, []byte(newContent)); err != nil {
		result.Error = fmt.Sprintf("syntax error after update: %v", err)
		return result
	}

	if !dryRun && changes > 0 {
		if err := os.WriteFile(abs+u.backupSuffix, data, info.Mode().Perm()); err != nil {
			result.Error = fmt.Sprintf("write backup: %v", err)
			return result
		}
		if err := os.WriteFile(abs, []byte(newContent), info.Mode().Perm()); err != nil {
			result.Error = fmt.Sprintf("write file: %v", err)
			return result
		}
		u.logger.Debug("imports updated", "file", rel, "changes", changes)
	}

	result.Success = true
	result.ChangesMade = changes
	return result
}

// UpdateFiles runs UpdateFile over files. A failure in one file never stops
// the batch; once ctx is done the remaining files are reported as failed.
func (u *Updater) UpdateFiles(ctx context.Context, files []string, oldModule, newModule string, dryRun bool) []UpdateResult {
	results := make([]UpdateResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			results = append(results, UpdateResult{File: filepath.ToSlash(f), Error: err.Error()})
			continue
		}
		results = append(results, u.UpdateFile(ctx, f, oldModule, newModule, dryRun))
	}
	return results
}

// UpdateForMove rewrites the imports of every file importing oldPath so they
// refer to newPath instead. It does not move the file itself.
func (u *Updater) UpdateForMove(ctx context.Context, oldPath, newPath string, dryRun bool) ([]UpdateResult, error) {
	oldPath, newPath = normalize(oldPath), normalize(newPath)
	if err := u.builder.EnsureBuilt(ctx); err != nil {
		return nil, err
	}

	importers := u.builder.GetFileImporters(oldPath)
	u.logger.Info("updating imports", "files", len(importers), "from", oldPath, "to", newPath, "dry_run", dryRun)

	results := u.UpdateFiles(ctx, importers, graph.ModuleName(oldPath), graph.ModuleName(newPath), dryRun)
	u.afterWrite(results, dryRun)
	return results, nil
}

// UpdateForRename is UpdateForMove within file's own directory.
func (u *Updater) UpdateForRename(ctx context.Context, file, newName string, dryRun bool) ([]UpdateResult, error) {
	file = normalize(file)
	return u.UpdateForMove(ctx, file, path.Join(path.Dir(file), path.Base(normalize(newName))), dryRun)
}

// ApplyReport applies the import changes predicted by an impact report.
// Delete reports carry no replacement module and are skipped.
func (u *Updater) ApplyReport(ctx context.Context, report *impact.ImpactReport, dryRun bool) []UpdateResult {
	results := []UpdateResult{}
	if report == nil || report.Operation == impact.OperationDelete {
		return results
	}
	for _, change := range report.ImportChanges {
		if err := ctx.Err(); err != nil {
			results = append(results, UpdateResult{File: change.File, Error: err.Error()})
			continue
		}
		results = append(results, u.UpdateFile(ctx, change.File, change.OldImport, change.NewImport, dryRun))
	}
	u.afterWrite(results, dryRun)
	return results
}

func (u *Updater) afterWrite(results []UpdateResult, dryRun bool) {
	if dryRun {
		return
	}
	for _, r := range results {
		if r.Success && r.ChangesMade > 0 {
			u.builder.InvalidateCache()
			return
		}
	}
}

func (u *Updater) abs(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(u.root, filepath.FromSlash(file))
}

// rewriter matches the two statement forms for one module. The submatches
// around the module token are spliced back unchanged.
type rewriter struct {
	plain     *regexp.Regexp
	from      *regexp.Regexp
	newModule string
}

func newRewriter(oldModule, newModule string) *rewriter {
	q := regexp.QuoteMeta(oldModule)
	return &rewriter{
		plain:     regexp.MustCompile(`^(\s*import\s+)` + q + `((?:\s+as\s+\w+)?\s*(?:#.*)?)$`),
		from:      regexp.MustCompile(`^(\s*from\s+)` + q + `(\s+import\b.*)$`),
		newModule: newModule,
	}
}

// apply rewrites matching lines that start an import statement. Line
// numbers in importLines are 1-based.
func (rw *rewriter) apply(content string, importLines map[int]bool) (string, int) {
	lines := strings.Split(content, "\n")
	changes := 0
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") || !importLines[i+1] {
			continue
		}
		if m := rw.plain.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + rw.newModule + m[2]
			changes++
		} else if m := rw.from.FindStringSubmatch(line); m != nil {
			lines[i] = m[1] + rw.newModule + m[2]
			changes++
		}
	}
	return strings.Join(lines, "\n"), changes
}

func normalize(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
}
