package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dusk-indust/pyimports/internal/logging"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidRoot is returned when the project root is not an accessible directory.
var ErrInvalidRoot = errors.New("invalid project root")

// DefaultChainDepth is the import chain depth used when none is given.
const DefaultChainDepth = 3

// DefaultParseCacheSize bounds the number of parsed files kept between builds.
const DefaultParseCacheSize = 4096

// cacheState tracks whether the built graph reflects the file tree.
type cacheState int

const (
	cacheStale cacheState = iota
	cacheFresh
)

// parsedFile is a parse cache entry, valid while size and mtime match.
type parsedFile struct {
	size    int64
	modTime time.Time
	imports []ImportRef
}

// Builder discovers, parses and links every Python file under a project root
// into an import graph. It is safe for concurrent use: builds take the write
// lock and queries take the read lock.
type Builder struct {
	root         string
	logger       *slog.Logger
	parser       Parser
	excludeDirs  []string
	excludeGlobs []string
	workers      int
	cacheSize    int

	walker     *Walker
	parseCache *lru.Cache[string, parsedFile]

	mu     sync.RWMutex
	state  cacheState
	nodes  map[string]*ImportNode
	cycles []CircularDependency
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithParser replaces the tree-sitter parser.
func WithParser(p Parser) Option {
	return func(b *Builder) {
		if p != nil {
			b.parser = p
		}
	}
}

// WithExcludeDirs adds directory names pruned during discovery.
func WithExcludeDirs(dirs ...string) Option {
	return func(b *Builder) { b.excludeDirs = append(b.excludeDirs, dirs...) }
}

// WithExcludeGlobs adds doublestar patterns pruned during discovery.
func WithExcludeGlobs(globs ...string) Option {
	return func(b *Builder) { b.excludeGlobs = append(b.excludeGlobs, globs...) }
}

// WithWorkers bounds parallel parsing. Values below one are ignored.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithParseCacheSize sets the parse cache capacity. Zero disables it.
func WithParseCacheSize(n int) Option {
	return func(b *Builder) {
		if n >= 0 {
			b.cacheSize = n
		}
	}
}

// NewBuilder returns a Builder for the project rooted at root. Nothing is
// read from disk until the first build.
func NewBuilder(root string, opts ...Option) *Builder {
	b := &Builder{
		root:      filepath.Clean(root),
		logger:    logging.Discard(),
		workers:   runtime.NumCPU(),
		cacheSize: DefaultParseCacheSize,
		nodes:     make(map[string]*ImportNode),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.parser == nil {
		b.parser = NewTreeSitterParser()
	}
	b.walker = NewWalker(b.excludeDirs, b.excludeGlobs)
	if b.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		b.parseCache, _ = lru.New[string, parsedFile](b.cacheSize)
	}
	return b
}

// Root returns the project root directory.
func (b *Builder) Root() string {
	return b.root
}

// BuildGraph builds the graph, or returns the current one when it is fresh
// and force is false. Per-file failures are logged and the file is left out.
// The only errors are an invalid root and context cancellation.
func (b *Builder) BuildGraph(ctx context.Context, force bool) (map[string]*ImportNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == cacheFresh && !force {
		return b.snapshotLocked(), nil
	}
	if err := b.rebuildLocked(ctx); err != nil {
		return nil, err
	}
	return b.snapshotLocked(), nil
}

// EnsureBuilt builds the graph unless it is already fresh.
func (b *Builder) EnsureBuilt(ctx context.Context) error {
	_, err := b.BuildGraph(ctx, false)
	return err
}

// InvalidateCache marks the graph stale. The existing data stays queryable
// until the next build replaces it.
func (b *Builder) InvalidateCache() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = cacheStale
}

// Fresh reports whether the graph reflects the last build with no
// invalidation since.
func (b *Builder) Fresh() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state == cacheFresh
}

func (b *Builder) rebuildLocked(ctx context.Context) error {
	info, err := os.Stat(b.root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoot, b.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, b.root)
	}

	start := time.Now()
	b.nodes = make(map[string]*ImportNode)
	b.cycles = nil
	b.state = cacheStale

	files, err := b.walker.Walk(ctx, b.root)
	if err != nil {
		return fmt.Errorf("walk %s: %w", b.root, err)
	}

	parsed, err := b.parseAll(ctx, files)
	if err != nil {
		return err
	}

	resolver := NewResolver(files)
	imports := make(map[string]map[string]bool, len(parsed))
	for _, rel := range files {
		refs, ok := parsed[rel]
		if !ok {
			continue
		}
		node := &ImportNode{Filepath: rel}
		targets := make(map[string]bool)
		external := make(map[string]bool)
		for _, ref := range refs {
			resolved := resolver.ResolveImport(ref, rel)
			if len(resolved) == 0 {
				external[ref.Module] = true
				continue
			}
			for _, target := range resolved {
				targets[target] = true
			}
		}
		node.ExternalImports = sortedKeys(external)
		imports[rel] = targets
		b.nodes[rel] = node
	}

	importedBy := make(map[string]map[string]bool, len(b.nodes))
	for src, targets := range imports {
		for target := range targets {
			if _, ok := b.nodes[target]; !ok {
				// Target was discovered but failed to parse.
				delete(targets, target)
				continue
			}
			if importedBy[target] == nil {
				importedBy[target] = make(map[string]bool)
			}
			importedBy[target][src] = true
		}
	}

	for path, node := range b.nodes {
		node.Imports = sortedKeys(imports[path])
		node.ImportedBy = sortedKeys(importedBy[path])
		hasOutgoing := len(node.Imports) > 0 || len(node.ExternalImports) > 0
		node.IsOrphaned = len(node.ImportedBy) == 0 && !hasOutgoing
		node.IsEntryPoint = len(node.ImportedBy) == 0 && hasOutgoing
	}

	b.cycles = findCycles(b.nodes)
	b.state = cacheFresh

	b.logger.Info("import graph built",
		"root", b.root,
		"files", len(b.nodes),
		"skipped", len(files)-len(b.nodes),
		"cycles", len(b.cycles),
		"duration", time.Since(start),
	)
	return nil
}

// parseAll parses files on a bounded worker group. The returned map holds
// only files that parsed cleanly.
func (b *Builder) parseAll(ctx context.Context, files []string) (map[string][]ImportRef, error) {
	results := make([][]ImportRef, len(files))
	ok := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, rel := range files {
		g.Go(func() error {
			refs, err := b.parseFile(gctx, rel)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				b.logger.Warn("skipping file", "path", rel, "error", err)
				return nil
			}
			results[i] = refs
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parsed := make(map[string][]ImportRef, len(files))
	for i, rel := range files {
		if ok[i] {
			parsed[rel] = results[i]
		}
	}
	return parsed, nil
}

// parseFile returns the imports of one file, reusing the parse cache when
// the file's size and modification time are unchanged.
func (b *Builder) parseFile(ctx context.Context, rel string) ([]ImportRef, error) {
	abs := filepath.Join(b.root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	if b.parseCache != nil {
		if entry, hit := b.parseCache.Get(rel); hit &&
			entry.size == info.Size() && entry.modTime.Equal(info.ModTime()) {
			return entry.imports, nil
		}
	}

	source, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	result, err := b.parser.Parse(ctx, rel, source)
	if err != nil {
		if b.parseCache != nil {
			b.parseCache.Remove(rel)
		}
		return nil, err
	}

	if b.parseCache != nil {
		b.parseCache.Add(rel, parsedFile{
			size:    info.Size(),
			modTime: info.ModTime(),
			imports: result.Imports,
		})
	}
	return result.Imports, nil
}

// ---------- Queries ----------

// Node returns a copy of the node for path.
func (b *Builder) Node(path string) (ImportNode, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[path]
	if !ok {
		return ImportNode{}, false
	}
	return copyNode(n), true
}

// Nodes returns a snapshot of every node, keyed by path.
func (b *Builder) Nodes() map[string]*ImportNode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Paths returns every node path in sorted order.
func (b *Builder) Paths() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	paths := make([]string, 0, len(b.nodes))
	for p := range b.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// GetFileImports returns the in-project files path imports.
func (b *Builder) GetFileImports(path string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n, ok := b.nodes[path]; ok {
		return append([]string{}, n.Imports...)
	}
	return []string{}
}

// GetFileImporters returns the files that import path.
func (b *Builder) GetFileImporters(path string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n, ok := b.nodes[path]; ok {
		return append([]string{}, n.ImportedBy...)
	}
	return []string{}
}

// GetImportChain returns the tree of path's transitive imports, maxDepth
// levels deep including path itself. A file already on the current branch is
// not expanded again. The second result is false for an unknown path.
func (b *Builder) GetImportChain(path string, maxDepth int) (ImportChain, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultChainDepth
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.nodes[path]; !ok {
		return ImportChain{}, false
	}

	var build func(file string, depth int, onBranch map[string]bool) ImportChain
	build = func(file string, depth int, onBranch map[string]bool) ImportChain {
		onBranch[file] = true
		defer delete(onBranch, file)

		chain := ImportChain{File: file, Imports: []ImportChain{}}
		if depth+1 >= maxDepth {
			return chain
		}
		for _, imported := range b.nodes[file].Imports {
			if onBranch[imported] {
				continue
			}
			if _, ok := b.nodes[imported]; !ok {
				continue
			}
			chain.Imports = append(chain.Imports, build(imported, depth+1, onBranch))
		}
		return chain
	}
	return build(path, 0, make(map[string]bool)), true
}

// GetCircularDependencies returns every distinct cycle found by the last build.
func (b *Builder) GetCircularDependencies() []CircularDependency {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]CircularDependency, len(b.cycles))
	for i, c := range b.cycles {
		out[i] = CircularDependency{Cycle: append([]string{}, c.Cycle...), Severity: c.Severity}
	}
	return out
}

// GetOrphanedFiles returns the sorted paths of files with no edges at all.
func (b *Builder) GetOrphanedFiles() []string {
	return b.filterPaths(func(n *ImportNode) bool { return n.IsOrphaned })
}

// GetEntryPoints returns the sorted paths of files nothing imports but which
// import something.
func (b *Builder) GetEntryPoints() []string {
	return b.filterPaths(func(n *ImportNode) bool { return n.IsEntryPoint })
}

// Stats summarizes the current graph.
func (b *Builder) Stats() GraphStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.statsLocked()
}

// ToDict exports the graph in its dictionary form.
func (b *Builder) ToDict() GraphDict {
	b.mu.RLock()
	defer b.mu.RUnlock()

	d := GraphDict{
		Nodes:                make(map[string]NodeDict, len(b.nodes)),
		CircularDependencies: make([]CircularDependency, 0, len(b.cycles)),
		Stats:                b.statsLocked(),
	}
	for path, n := range b.nodes {
		d.Nodes[path] = NodeDict{
			Imports:         nonNil(n.Imports),
			ImportedBy:      nonNil(n.ImportedBy),
			ExternalImports: nonNil(n.ExternalImports),
			IsOrphaned:      n.IsOrphaned,
			IsEntryPoint:    n.IsEntryPoint,
		}
	}
	for _, c := range b.cycles {
		d.CircularDependencies = append(d.CircularDependencies, CircularDependency{
			Cycle:    append([]string{}, c.Cycle...),
			Severity: c.Severity,
		})
	}
	return d
}

func (b *Builder) statsLocked() GraphStats {
	s := GraphStats{
		TotalFiles:           len(b.nodes),
		CircularDependencies: len(b.cycles),
	}
	for _, n := range b.nodes {
		if n.IsOrphaned {
			s.OrphanedFiles++
		}
		if n.IsEntryPoint {
			s.EntryPoints++
		}
	}
	return s
}

func (b *Builder) filterPaths(keep func(*ImportNode) bool) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := []string{}
	for p, n := range b.nodes {
		if keep(n) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (b *Builder) snapshotLocked() map[string]*ImportNode {
	out := make(map[string]*ImportNode, len(b.nodes))
	for p, n := range b.nodes {
		c := copyNode(n)
		out[p] = &c
	}
	return out
}

func copyNode(n *ImportNode) ImportNode {
	return ImportNode{
		Filepath:        n.Filepath,
		Imports:         append([]string{}, n.Imports...),
		ImportedBy:      append([]string{}, n.ImportedBy...),
		ExternalImports: append([]string{}, n.ExternalImports...),
		IsOrphaned:      n.IsOrphaned,
		IsEntryPoint:    n.IsEntryPoint,
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
