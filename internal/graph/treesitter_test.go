package graph

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readFixture reads a test fixture file relative to the project root.
// Tests run from internal/graph/, so the relative path is ../../testdata/...
func readFixture(t *testing.T, relPath string) []byte {
	t.Helper()
	data, err := os.ReadFile("../../" + relPath)
	require.NoError(t, err, "reading fixture %s", relPath)
	return data
}

// findRef returns the first ImportRef whose Module matches, or nil.
func findRef(refs []ImportRef, module string) *ImportRef {
	for i := range refs {
		if refs[i].Module == module {
			return &refs[i]
		}
	}
	return nil
}

func parseSource(t *testing.T, src string) *ParseResult {
	t.Helper()
	p := NewTreeSitterParser()
	defer p.Close()
	res, err := p.Parse(context.Background(), "mod.py", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_Fixtures
// ---------------------------------------------------------------------------

func TestTreeSitterParser_Fixtures(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()
	ctx := context.Background()

	t.Run("main.py", func(t *testing.T) {
		src := readFixture(t, "testdata/fixtures/py_project/main.py")
		res, err := p.Parse(ctx, "main.py", src)
		require.NoError(t, err)

		assert.Equal(t, "main.py", res.Path)
		assert.Greater(t, res.LOC, 0)
		require.Len(t, res.Imports, 3)

		app := findRef(res.Imports, "app")
		require.NotNil(t, app)
		assert.Equal(t, ImportKindFrom, app.Kind)
		assert.Equal(t, []string{"service"}, app.Names)
		assert.Equal(t, 5, app.Line)
	})

	t.Run("service.py relative imports", func(t *testing.T) {
		src := readFixture(t, "testdata/fixtures/py_project/app/service.py")
		res, err := p.Parse(ctx, "app/service.py", src)
		require.NoError(t, err)
		require.Len(t, res.Imports, 2, "string literals must not count as imports")

		models := findRef(res.Imports, ".models")
		require.NotNil(t, models)
		assert.True(t, models.IsRelative())
		assert.Equal(t, []string{"User"}, models.Names)

		pkg := findRef(res.Imports, ".")
		require.NotNil(t, pkg)
		assert.Equal(t, []string{"utils"}, pkg.Names)
	})

	t.Run("utils.py nested imports", func(t *testing.T) {
		src := readFixture(t, "testdata/fixtures/py_project/app/utils.py")
		res, err := p.Parse(ctx, "app/utils.py", src)
		require.NoError(t, err)

		lines := map[string]int{}
		for _, ref := range res.Imports {
			lines[ref.Module] = ref.Line
		}
		assert.Equal(t, map[string]int{
			"json":        1,
			"ujson":       4,
			"app.service": 10,
		}, lines)
	})
}

// ---------------------------------------------------------------------------
// TestTreeSitterParser_ImportForms
// ---------------------------------------------------------------------------

func TestTreeSitterParser_ImportForms(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		modules []string
		kinds   []ImportKind
		names   [][]string
	}{
		{
			name:    "plain import",
			src:     "import os\n",
			modules: []string{"os"},
			kinds:   []ImportKind{ImportKindImport},
			names:   [][]string{nil},
		},
		{
			name:    "multiple dotted with alias",
			src:     "import os.path, numpy as np\n",
			modules: []string{"os.path", "numpy"},
			kinds:   []ImportKind{ImportKindImport, ImportKindImport},
			names:   [][]string{nil, nil},
		},
		{
			name:    "from with aliases",
			src:     "from pkg.sub import a as b, c\n",
			modules: []string{"pkg.sub"},
			kinds:   []ImportKind{ImportKindFrom},
			names:   [][]string{{"a", "c"}},
		},
		{
			name:    "parenthesized from",
			src:     "from pkg import (\n    a,\n    b,\n)\n",
			modules: []string{"pkg"},
			kinds:   []ImportKind{ImportKindFrom},
			names:   [][]string{{"a", "b"}},
		},
		{
			name:    "wildcard",
			src:     "from pkg.mod import *\n",
			modules: []string{"pkg.mod"},
			kinds:   []ImportKind{ImportKindFrom},
			names:   [][]string{{"*"}},
		},
		{
			name:    "parent relative",
			src:     "from ..core.base import Thing\n",
			modules: []string{"..core.base"},
			kinds:   []ImportKind{ImportKindFrom},
			names:   [][]string{{"Thing"}},
		},
		{
			name:    "future import",
			src:     "from __future__ import annotations\n",
			modules: []string{"__future__"},
			kinds:   []ImportKind{ImportKindFrom},
			names:   [][]string{{"annotations"}},
		},
		{
			name:    "import inside class body",
			src:     "class A:\n    import json\n",
			modules: []string{"json"},
			kinds:   []ImportKind{ImportKindImport},
			names:   [][]string{nil},
		},
		{
			name:    "no imports",
			src:     "x = 'import os'\n",
			modules: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parseSource(t, tt.src)
			require.Len(t, res.Imports, len(tt.modules))
			for i, ref := range res.Imports {
				assert.Equal(t, tt.modules[i], ref.Module)
				assert.Equal(t, tt.kinds[i], ref.Kind)
				assert.Equal(t, tt.names[i], ref.Names)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Syntax errors
// ---------------------------------------------------------------------------

func TestTreeSitterParser_SyntaxError(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()
	ctx := context.Background()

	src := []byte("import os\n\ndef broken(:\n    pass\n")

	_, err := p.Parse(ctx, "broken.py", src)
	require.Error(t, err)

	var synErr *SyntaxError
	require.True(t, errors.As(err, &synErr))
	assert.Equal(t, "broken.py", synErr.Path)
	assert.Equal(t, 3, synErr.Line)
	assert.Contains(t, err.Error(), "broken.py: line 3")

	assert.Error(t, p.Validate(ctx, src))
	assert.NoError(t, p.Validate(ctx, []byte("import os\n")))
}

func TestTreeSitterParser_ImportLines(t *testing.T) {
	p := NewTreeSitterParser()
	defer p.Close()

	src := []byte("import os\nmsg = \"\"\"\nimport sys\n\"\"\"\nfrom a import b\n")
	lines, err := p.ImportLines(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 5: true}, lines)
}

func TestTreeSitterParser_CanceledContext(t *testing.T) {
	p := NewTreeSitterParser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, "a.py", []byte("import os\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCountLOC(t *testing.T) {
	assert.Equal(t, 0, countLOC(nil))
	assert.Equal(t, 1, countLOC([]byte("x = 1")))
	assert.Equal(t, 3, countLOC([]byte("a\nb\nc")))
}
