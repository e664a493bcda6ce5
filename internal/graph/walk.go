package graph

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludeDirs are directory names never descended into during discovery.
var DefaultExcludeDirs = []string{
	"__pycache__",
	".git",
	".venv",
	"venv",
	"env",
	"node_modules",
	".pytest_cache",
	".mypy_cache",
	"build",
	"dist",
}

// DefaultExcludeGlobs are doublestar patterns matched against directory names.
var DefaultExcludeGlobs = []string{"*.egg-info"}

// Walker discovers Python source files under a project root.
type Walker struct {
	excludeDirs  map[string]bool
	excludeGlobs []string
}

// NewWalker returns a Walker that applies the default exclusions plus extra
// directory names and doublestar globs. Globs containing a "/" are matched
// against the project-relative directory path, others against the base name.
func NewWalker(extraDirs, extraGlobs []string) *Walker {
	w := &Walker{excludeDirs: make(map[string]bool)}
	for _, d := range DefaultExcludeDirs {
		w.excludeDirs[d] = true
	}
	for _, d := range extraDirs {
		w.excludeDirs[strings.Trim(d, "/")] = true
	}
	w.excludeGlobs = append(w.excludeGlobs, DefaultExcludeGlobs...)
	for _, g := range extraGlobs {
		if doublestar.ValidatePattern(g) {
			w.excludeGlobs = append(w.excludeGlobs, g)
		}
	}
	return w
}

// Excluded reports whether the directory at the project-relative path rel is
// pruned from discovery.
func (w *Walker) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	name := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		name = rel[i+1:]
	}
	if w.excludeDirs[name] {
		return true
	}
	for _, g := range w.excludeGlobs {
		target := name
		if strings.Contains(g, "/") {
			target = rel
		}
		if ok, _ := doublestar.Match(g, target); ok {
			return true
		}
	}
	return false
}

// Walk returns the sorted project-relative, slash-separated paths of every
// .py file under root. Inaccessible entries are skipped.
func (w *Walker) Walk(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible paths
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if rel != "." && w.Excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" || !d.Type().IsRegular() {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
