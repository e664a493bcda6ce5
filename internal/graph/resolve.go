package graph

import (
	"path"
	"strings"
)

// Resolver maps raw Python import references to project-relative file paths.
// It is built once per graph build from the set of discovered source files,
// so resolution does no filesystem I/O and is deterministic for a given tree.
// Paths are slash-separated.
type Resolver struct {
	fileSet map[string]bool
	dirSet  map[string]bool
}

// NewResolver builds a Resolver from the known project-relative file paths.
func NewResolver(knownFiles []string) *Resolver {
	r := &Resolver{
		fileSet: make(map[string]bool, len(knownFiles)),
		dirSet:  make(map[string]bool),
	}
	for _, f := range knownFiles {
		f = path.Clean(toSlash(f))
		r.fileSet[f] = true
		for dir := path.Dir(f); dir != "." && !r.dirSet[dir]; dir = path.Dir(dir) {
			r.dirSet[dir] = true
		}
	}
	return r
}

// Resolve maps a dotted module reference, possibly relative, imported from
// sourceFile to a project file. The second result is false when the module
// is not part of the project (an external dependency).
func (r *Resolver) Resolve(module, sourceFile string) (string, bool) {
	base, ok := r.modulePath(module, sourceFile)
	if !ok {
		return "", false
	}
	return r.probeModule(base)
}

// ResolveImport resolves every project file an import statement depends on.
// `from . import a, b` names no module, so each name is probed as a
// submodule of the package first; names that are not submodules fall back
// to the package itself. An empty result means the import is external.
func (r *Resolver) ResolveImport(ref ImportRef, sourceFile string) []string {
	level, rest := splitRelative(ref.Module)
	if ref.Kind != ImportKindFrom || level == 0 || rest != "" || len(ref.Names) == 0 {
		if resolved, ok := r.Resolve(ref.Module, sourceFile); ok {
			return []string{resolved}
		}
		return nil
	}

	pkgDir, ok := ascend(path.Dir(toSlash(sourceFile)), level)
	if !ok {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	fallback := false
	for _, name := range ref.Names {
		if name == "*" || strings.Contains(name, ".") {
			fallback = true
			continue
		}
		if resolved, ok := r.probeModule(path.Join(pkgDir, name)); ok {
			if !seen[resolved] {
				seen[resolved] = true
				out = append(out, resolved)
			}
			continue
		}
		fallback = true
	}
	if fallback {
		if resolved, ok := r.probeModule(pkgDir); ok && !seen[resolved] {
			out = append(out, resolved)
		}
	}
	return out
}

// Contains reports whether p is a known project file.
func (r *Resolver) Contains(p string) bool {
	return r.fileSet[path.Clean(toSlash(p))]
}

// IsPackageDir reports whether module names a project directory that holds
// Python files, with or without an __init__.py.
func (r *Resolver) IsPackageDir(module, sourceFile string) bool {
	base, ok := r.modulePath(module, sourceFile)
	if !ok {
		return false
	}
	return r.dirSet[path.Clean(base)]
}

// OwnsTopLevel reports whether name is a top-level module or package of the
// project, so an absolute import starting with it must resolve locally.
func (r *Resolver) OwnsTopLevel(name string) bool {
	return r.fileSet[name+".py"] || r.dirSet[name]
}

// modulePath converts a reference into a slash path without extension.
func (r *Resolver) modulePath(module, sourceFile string) (string, bool) {
	if module == "" {
		return "", false
	}

	level, rest := splitRelative(module)
	if level == 0 {
		// Absolute import: the dotted name is a path under the project root.
		return strings.ReplaceAll(module, ".", "/"), true
	}

	// One dot = same package (current dir), two dots = parent, etc.
	baseDir, ok := ascend(path.Dir(toSlash(sourceFile)), level)
	if !ok {
		return "", false
	}
	if rest == "" {
		return baseDir, true
	}
	return path.Join(baseDir, strings.ReplaceAll(rest, ".", "/")), true
}

// probeModule tries `<base>.py` then `<base>/__init__.py`.
func (r *Resolver) probeModule(base string) (string, bool) {
	base = path.Clean(base)
	for _, candidate := range []string{base + ".py", path.Join(base, "__init__.py")} {
		candidate = strings.TrimPrefix(candidate, "./")
		if r.fileSet[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// splitRelative counts the leading dot run of a module reference.
func splitRelative(module string) (int, string) {
	dots := 0
	for dots < len(module) && module[dots] == '.' {
		dots++
	}
	return dots, module[dots:]
}

// ascend walks up level-1 directories from dir. A level below one is
// treated as one (the importing file's own package). It fails when the
// walk would leave the project root.
func ascend(dir string, level int) (string, bool) {
	for i := 1; i < level; i++ {
		if dir == "." {
			return "", false
		}
		dir = path.Dir(dir)
	}
	return dir, true
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
