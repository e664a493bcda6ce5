package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/pyimports/internal/graph"
	"github.com/dusk-indust/pyimports/internal/impact"
)

const fixtureRoot = "../../testdata/fixtures/py_project"

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func TestGraphCmd(t *testing.T) {
	out, err := runCLI(t, "graph", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Contains(t, out, "files:                 6\n")
	assert.Contains(t, out, "circular dependencies: 1\n")
}

func TestGraphCmd_JSON(t *testing.T) {
	out, err := runCLI(t, "graph", "--root", fixtureRoot, "--json")
	require.NoError(t, err)

	var dict graph.GraphDict
	require.NoError(t, json.Unmarshal([]byte(out), &dict))
	assert.Len(t, dict.Nodes, 6)
	assert.Equal(t, 1, dict.Stats.EntryPoints)
}

func TestListCmds(t *testing.T) {
	out, err := runCLI(t, "orphans", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Equal(t, "scripts/standalone.py\n", out)

	out, err = runCLI(t, "entrypoints", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Equal(t, "main.py\n", out)

	out, err = runCLI(t, "cycles", "--root", fixtureRoot, "--json")
	require.NoError(t, err)
	var cycles []graph.CircularDependency
	require.NoError(t, json.Unmarshal([]byte(out), &cycles))
	require.Len(t, cycles, 1)
	assert.Equal(t, graph.SeverityHigh, cycles[0].Severity)
}

func TestChainCmd(t *testing.T) {
	out, err := runCLI(t, "chain", "main.py", "--root", fixtureRoot, "--depth", "2")
	require.NoError(t, err)
	assert.Equal(t, "main.py\n  app/__init__.py\n", out)

	out, err = runCLI(t, "chain", "ghost.py", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Contains(t, out, "not in the import graph")
}

func TestDiagramCmd(t *testing.T) {
	out, err := runCLI(t, "diagram", "--root", fixtureRoot, "--cycles-only")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	assert.Contains(t, out, `N0["app/service.py"]`)
	assert.Contains(t, out, `N1["app/utils.py"]`)
	assert.Contains(t, out, "class N0,N1 cycle")
	assert.NotContains(t, out, "main.py")
}

func TestImpactCmd(t *testing.T) {
	out, err := runCLI(t, "impact", "move", "app/models.py", "core/models.py", "--root", fixtureRoot, "--json")
	require.NoError(t, err)

	var report impact.ImpactReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, impact.RiskMedium, report.RiskLevel)
	assert.Equal(t, []string{"app/service.py"}, report.AffectedFiles)

	out, err = runCLI(t, "impact", "delete", "app/models.py", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Contains(t, out, "risk: high\n")
	assert.Contains(t, out, "app/service.py: remove app.models")

	_, err = runCLI(t, "impact", "move", "only-one-arg", "--root", fixtureRoot)
	assert.Error(t, err)
}

func TestDistanceCmd(t *testing.T) {
	out, err := runCLI(t, "distance", "app/utils.py", "app/models.py", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = runCLI(t, "distance", "app/models.py", "main.py", "--root", fixtureRoot)
	require.NoError(t, err)
	assert.Contains(t, out, "does not reach")
}

func TestUpdateCmd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/core.py":     "",
		"a.py":            "import pkg.core\n",
	})

	out, err := runCLI(t, "update", "move", "pkg/core.py", "lib/core.py", "--root", root, "--dry-run", "--diff")
	require.NoError(t, err)
	assert.Contains(t, out, "would update a.py (1 changes)")
	assert.Contains(t, out, "+import lib.core")
	data, err := os.ReadFile(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, "import pkg.core\n", string(data))

	out, err = runCLI(t, "update", "move", "pkg/core.py", "lib/core.py", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "updated a.py (1 changes)")
	data, err = os.ReadFile(filepath.Join(root, "a.py"))
	require.NoError(t, err)
	assert.Equal(t, "import lib.core\n", string(data))
	assert.FileExists(t, filepath.Join(root, "a.py.bak"))
}

func TestUpdateCmd_ConfigBackupSuffix(t *testing.T) {
	root := writeTree(t, map[string]string{
		"pyimports.yml": "backupSuffix: .orig\n",
		"pkg/core.py":   "",
		"a.py":          "import pkg.core\n",
	})

	_, err := runCLI(t, "update", "rename", "pkg/core.py", "engine.py", "--root", root)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "a.py.orig"))
}

func TestCheckCmd(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/__init__.py": "",
		"app/a.py":        "from .gone import x\nimport os\n",
		"app/b.py":        "from . import a\n",
	})

	out, err := runCLI(t, "check", "--root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken imports in 1 files")
	assert.Equal(t, "app/a.py\n  from .gone import x\n", out)

	out, err = runCLI(t, "check", "app/b.py", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "No broken imports.\n", out)
}

func TestInvalidRoot(t *testing.T) {
	_, err := runCLI(t, "graph", "--root", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, graph.ErrInvalidRoot)
}
