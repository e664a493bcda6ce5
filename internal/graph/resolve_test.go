package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var resolverFiles = []string{
	"main.py",
	"pkg/__init__.py",
	"pkg/a.py",
	"pkg/b.py",
	"pkg/sub/__init__.py",
	"pkg/sub/c.py",
	"pkg/sub/deep/d.py",
	"utils.py",
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(resolverFiles)

	tests := []struct {
		name       string
		module     string
		sourceFile string
		want       string
		wantOK     bool
	}{
		{"absolute module", "utils", "main.py", "utils.py", true},
		{"absolute package", "pkg", "main.py", "pkg/__init__.py", true},
		{"absolute dotted", "pkg.sub.c", "main.py", "pkg/sub/c.py", true},
		{"absolute dotted package", "pkg.sub", "pkg/a.py", "pkg/sub/__init__.py", true},
		{"same package sibling", ".b", "pkg/a.py", "pkg/b.py", true},
		{"same package itself", ".", "pkg/a.py", "pkg/__init__.py", true},
		{"parent package", "..a", "pkg/sub/c.py", "pkg/a.py", true},
		{"parent package itself", "..", "pkg/sub/c.py", "pkg/__init__.py", true},
		{"grandparent", "...b", "pkg/sub/deep/d.py", "pkg/b.py", true},
		{"relative dotted", ".sub.c", "pkg/a.py", "pkg/sub/c.py", true},
		{"external stdlib", "os.path", "main.py", "", false},
		{"external third-party", "requests", "pkg/a.py", "", false},
		{"relative missing", ".missing", "pkg/a.py", "", false},
		{"relative past root", "...utils", "pkg/a.py", "", false},
		{"empty", "", "main.py", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.module, tt.sourceFile)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_ModulePreferredOverPackage(t *testing.T) {
	r := NewResolver([]string{"x.py", "x/__init__.py", "main.py"})
	got, ok := r.Resolve("x", "main.py")
	assert.True(t, ok)
	assert.Equal(t, "x.py", got)
}

func TestResolver_ResolveImport(t *testing.T) {
	r := NewResolver(resolverFiles)

	tests := []struct {
		name string
		ref  ImportRef
		from string
		want []string
	}{
		{
			name: "from dot sibling submodules",
			ref:  ImportRef{Module: ".", Names: []string{"b", "sub"}, Kind: ImportKindFrom},
			from: "pkg/a.py",
			want: []string{"pkg/b.py", "pkg/sub/__init__.py"},
		},
		{
			name: "from dot name falls back to package",
			ref:  ImportRef{Module: ".", Names: []string{"b", "VERSION"}, Kind: ImportKindFrom},
			from: "pkg/a.py",
			want: []string{"pkg/b.py", "pkg/__init__.py"},
		},
		{
			name: "from dot-dot",
			ref:  ImportRef{Module: "..", Names: []string{"a"}, Kind: ImportKindFrom},
			from: "pkg/sub/c.py",
			want: []string{"pkg/a.py"},
		},
		{
			name: "wildcard resolves package",
			ref:  ImportRef{Module: ".", Names: []string{"*"}, Kind: ImportKindFrom},
			from: "pkg/a.py",
			want: []string{"pkg/__init__.py"},
		},
		{
			name: "absolute from resolves module only",
			ref:  ImportRef{Module: "pkg", Names: []string{"a"}, Kind: ImportKindFrom},
			from: "main.py",
			want: []string{"pkg/__init__.py"},
		},
		{
			name: "plain import",
			ref:  ImportRef{Module: "pkg.sub.c", Kind: ImportKindImport},
			from: "main.py",
			want: []string{"pkg/sub/c.py"},
		},
		{
			name: "external",
			ref:  ImportRef{Module: "yaml", Kind: ImportKindImport},
			from: "main.py",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveImport(tt.ref, tt.from))
		})
	}
}

func TestResolver_FromDotSubmodules(t *testing.T) {
	// from . import a, b inside pkg/sub/c.py looks in pkg/sub, which has
	// neither; the package __init__ is the fallback.
	r := NewResolver(resolverFiles)
	got := r.ResolveImport(ImportRef{Module: ".", Names: []string{"a", "b"}, Kind: ImportKindFrom}, "pkg/sub/c.py")
	assert.Equal(t, []string{"pkg/sub/__init__.py"}, got)
}

func TestResolver_RootLevelRelative(t *testing.T) {
	r := NewResolver([]string{"a.py", "b.py", "c.py"})
	got := r.ResolveImport(ImportRef{Module: ".", Names: []string{"b"}, Kind: ImportKindFrom}, "a.py")
	assert.Equal(t, []string{"b.py"}, got)

	resolved, ok := r.Resolve(".c", "b.py")
	assert.True(t, ok)
	assert.Equal(t, "c.py", resolved)
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"pkg/mod.py", "pkg.mod"},
		{"pkg/sub/__init__.py", "pkg.sub"},
		{"main.py", "main"},
		{"__init__.py", ""},
		{"./pkg/a.py", "pkg.a"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleName(tt.path))
		})
	}
}

func TestTopLevelPackage(t *testing.T) {
	assert.Equal(t, "pkg", TopLevelPackage("pkg/sub/a.py"))
	assert.Equal(t, "", TopLevelPackage("main.py"))
}

func TestResolver_PackageDirs(t *testing.T) {
	r := NewResolver([]string{"main.py", "ns/sub/mod.py", "pkg/__init__.py"})

	assert.True(t, r.IsPackageDir("ns", "main.py"))
	assert.True(t, r.IsPackageDir("ns.sub", "main.py"))
	assert.True(t, r.IsPackageDir("..sub", "ns/sub/mod.py"))
	assert.False(t, r.IsPackageDir("ns.sub.mod", "main.py"))
	assert.False(t, r.IsPackageDir("requests", "main.py"))

	assert.True(t, r.OwnsTopLevel("main"))
	assert.True(t, r.OwnsTopLevel("ns"))
	assert.True(t, r.OwnsTopLevel("pkg"))
	assert.False(t, r.OwnsTopLevel("os"))
}
