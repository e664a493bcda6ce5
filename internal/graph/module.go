package graph

import "strings"

// ModuleName converts a project-relative file path into its dotted Python
// module name: "pkg/sub/mod.py" -> "pkg.sub.mod", "pkg/__init__.py" -> "pkg".
// The project's own root __init__.py maps to "".
func ModuleName(path string) string {
	p := strings.TrimPrefix(toSlash(path), "./")
	p = strings.TrimSuffix(p, ".py")
	switch {
	case p == "__init__":
		return ""
	case strings.HasSuffix(p, "/__init__"):
		p = strings.TrimSuffix(p, "/__init__")
	}
	return strings.ReplaceAll(p, "/", ".")
}

// TopLevelPackage returns the first directory component of a project path,
// or "" for files at the project root.
func TopLevelPackage(path string) string {
	p := strings.TrimPrefix(toSlash(path), "./")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}
