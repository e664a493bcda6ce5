// Package watch invalidates a cached import graph when Python sources change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dusk-indust/pyimports/internal/config"
	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/logging"
)

// Op is the kind of a file change.
type Op int

const (
	OpCreate Op = iota
	OpWrite
	OpRemove
	OpRename
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one observed change, with a project-relative slash path.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Invalidator is anything holding derived state that a source change makes
// stale. *graph.Builder satisfies it.
type Invalidator interface {
	InvalidateCache()
}

var _ Invalidator = (*graph.Builder)(nil)

// Handler receives each debounced, deduplicated batch of changes after the
// target has been invalidated.
type Handler func(changes []Change)

// Watcher watches a project tree and invalidates its target once a burst of
// relevant changes settles.
type Watcher struct {
	root     string
	target   Invalidator
	walker   *graph.Walker
	debounce time.Duration
	handler  Handler
	logger   *slog.Logger

	fs      *fsnotify.Watcher
	changes chan Change
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that ends a burst of changes.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExcludes adds directory names and doublestar globs that are never
// watched, on top of the defaults used for discovery.
func WithExcludes(dirs, globs []string) Option {
	return func(w *Watcher) {
		w.walker = graph.NewWalker(dirs, globs)
	}
}

// WithHandler registers a callback for each batch.
func WithHandler(h Handler) Option {
	return func(w *Watcher) {
		w.handler = h
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for root. The underlying fsnotify watcher is opened
// here and released when Run returns.
func New(root string, target Invalidator, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		root:     root,
		target:   target,
		walker:   graph.NewWalker(nil, nil),
		debounce: config.DefaultWatchDebounce,
		logger:   logging.Discard(),
		fs:       fsw,
		changes:  make(chan Change, 1024),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is done. It returns nil on cancellation and an
// error only if the tree cannot be registered.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	if err := w.addRecursive(w.root); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	w.logger.Info("watching project", "root", w.root, "debounce", w.debounce)

	go w.processEvents(ctx)
	w.debounceLoop(ctx)
	return nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && rel != "." && w.walker.Excluded(rel) {
			return filepath.SkipDir
		}
		return w.fs.Add(p)
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			rel, ok := w.rel(event.Name)
			if !ok || w.inExcludedDir(rel) {
				continue
			}

			isDir := false
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					isDir = true
					if !w.walker.Excluded(rel) {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("watch: add directory", "path", rel, "error", err)
						}
					}
				}
			}

			op := convertOp(event.Op)
			if !relevant(rel, op, isDir) {
				continue
			}
			select {
			case w.changes <- Change{Path: rel, Op: op, Time: time.Now()}:
			default:
				w.logger.Warn("watch: change buffer full, dropping event", "path", rel)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(batch) == 0 {
			return
		}
		deduped := dedupe(batch)
		batch = batch[:0]

		w.target.InvalidateCache()
		w.logger.Info("sources changed, graph invalidated", "changes", len(deduped))
		if w.handler != nil {
			w.handler(deduped)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}

func (w *Watcher) rel(p string) (string, bool) {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// inExcludedDir reports whether any ancestor directory of rel is excluded.
func (w *Watcher) inExcludedDir(rel string) bool {
	for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
		if w.walker.Excluded(dir) {
			return true
		}
	}
	return false
}

// relevant keeps Python sources and directory-level events. A removed or
// renamed path can no longer be stat'ed, so one without an extension is
// treated as a possible package directory.
func relevant(rel string, op Op, isDir bool) bool {
	if path.Ext(rel) == ".py" {
		return true
	}
	if isDir {
		return true
	}
	return (op == OpRemove || op == OpRename) && path.Ext(rel) == ""
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

// dedupe keeps the last change per path, ordered by first appearance.
func dedupe(changes []Change) []Change {
	index := make(map[string]int, len(changes))
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if i, ok := index[c.Path]; ok {
			out[i] = c
			continue
		}
		index[c.Path] = len(out)
		out = append(out, c)
	}
	return out
}
