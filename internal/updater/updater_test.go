package updater

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/pyimports/internal/impact"
)

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

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

const userSource = `import os
import pkg.core
import pkg.core as c  # keep alias
from pkg.core import thing, other
from pkg.core.sub import x
import pkg.corex

DOC = """
import pkg.core
"""
`

const userUpdated = `import os
import pkg.engine
import pkg.engine as c  # keep alias
from pkg.engine import thing, other
from pkg.core.sub import x
import pkg.corex

DOC = """
import pkg.core
"""
`

func TestUpdateFile_Rewrites(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": userSource})
	u := New(root)

	res := u.UpdateFile(context.Background(), "user.py", "pkg.core", "pkg.engine", false)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, 3, res.ChangesMade)
	assert.Equal(t, userSource, res.OldContent)
	assert.Equal(t, userUpdated, res.NewContent)
	assert.Equal(t, userUpdated, readFile(t, root, "user.py"))
	assert.Equal(t, userSource, readFile(t, root, "user.py.bak"))
}

func TestUpdateFile_Idempotent(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": userSource})
	u := New(root)
	ctx := context.Background()

	first := u.UpdateFile(ctx, "user.py", "pkg.core", "pkg.engine", false)
	require.True(t, first.Success)
	require.Equal(t, 3, first.ChangesMade)

	second := u.UpdateFile(ctx, "user.py", "pkg.core", "pkg.engine", false)
	require.True(t, second.Success)
	assert.Zero(t, second.ChangesMade)
	assert.Equal(t, userUpdated, readFile(t, root, "user.py"))
}

func TestUpdateFile_NestedTarget(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": "import pkg\nfrom pkg import a\n"})
	u := New(root)
	ctx := context.Background()

	first := u.UpdateFile(ctx, "user.py", "pkg", "pkg.inner", false)
	require.True(t, first.Success)
	assert.Equal(t, 2, first.ChangesMade)
	assert.Equal(t, "import pkg.inner\nfrom pkg.inner import a\n", first.NewContent)

	second := u.UpdateFile(ctx, "user.py", "pkg", "pkg.inner", false)
	assert.Zero(t, second.ChangesMade)
}

func TestUpdateFile_DryRun(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": userSource})
	u := New(root)

	res := u.UpdateFile(context.Background(), "user.py", "pkg.core", "pkg.engine", true)
	require.True(t, res.Success)
	assert.Equal(t, 3, res.ChangesMade)
	assert.Equal(t, userUpdated, res.NewContent)
	assert.Equal(t, userSource, readFile(t, root, "user.py"))
	assert.NoFileExists(t, filepath.Join(root, "user.py.bak"))
}

func TestUpdateFile_BackupSuffix(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": "import pkg.core\n"})
	u := New(root, WithBackupSuffix(".orig"))

	res := u.UpdateFile(context.Background(), "user.py", "pkg.core", "pkg.engine", false)
	require.True(t, res.Success)
	assert.Equal(t, "import pkg.core\n", readFile(t, root, "user.py.orig"))
	assert.NoFileExists(t, filepath.Join(root, "user.py.bak"))
}

func TestUpdateFile_NoChangesNoBackup(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": "import os\n"})
	u := New(root)

	res := u.UpdateFile(context.Background(), "user.py", "pkg.core", "pkg.engine", false)
	require.True(t, res.Success)
	assert.Zero(t, res.ChangesMade)
	assert.Equal(t, res.OldContent, res.NewContent)
	assert.NoFileExists(t, filepath.Join(root, "user.py.bak"))
}

func TestUpdateFile_SameModule(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": "import pkg.core\n"})
	u := New(root)

	res := u.UpdateFile(context.Background(), "user.py", "pkg.core", "pkg.core", false)
	require.True(t, res.Success)
	assert.Zero(t, res.ChangesMade)
	assert.NoFileExists(t, filepath.Join(root, "user.py.bak"))
}

func TestUpdateFile_RefusesInvalidResult(t *testing.T) {
	root := writeTree(t, map[string]string{"user.py": "import pkg.core\n"})
	u := New(root)

	res := u.UpdateFile(context.Background(), "user.py", "pkg.core", "pkg.(broken", false)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "syntax error after update:")
	assert.Zero(t, res.ChangesMade)
	assert.Equal(t, "import pkg.core\n", readFile(t, root, "user.py"))
	assert.NoFileExists(t, filepath.Join(root, "user.py.bak"))
}

func TestUpdateFile_Missing(t *testing.T) {
	u := New(t.TempDir())
	res := u.UpdateFile(context.Background(), "ghost.py", "a", "b", false)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, "ghost.py", res.File)
}

func TestUpdateFiles_ContainsFailures(t *testing.T) {
	root := writeTree(t, map[string]string{
		"good.py": "import pkg.core\n",
		"also.py": "from pkg.core import x\n",
	})
	u := New(root)

	results := u.UpdateFiles(context.Background(), []string{"good.py", "ghost.py", "also.py"}, "pkg.core", "pkg.engine", false)
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, "from pkg.engine import x\n", readFile(t, root, "also.py"))
}

func TestUpdateFiles_Cancelled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "import pkg.core\n"})
	u := New(root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := u.UpdateFiles(ctx, []string{"a.py"}, "pkg.core", "pkg.engine", false)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "import pkg.core\n", readFile(t, root, "a.py"))
}

func moveProject() map[string]string {
	return map[string]string{
		"pkg/__init__.py": "",
		"pkg/core.py":     "VALUE = 1\n",
		"a.py":            "import pkg.core\n",
		"b.py":            "from pkg.core import VALUE\n",
		"c.py":            "import os\n",
	}
}

func TestUpdateForMove(t *testing.T) {
	root := writeTree(t, moveProject())
	u := New(root)
	ctx := context.Background()

	results, err := u.UpdateForMove(ctx, "pkg/core.py", "lib/engine.py", false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.py", results[0].File)
	assert.Equal(t, "b.py", results[1].File)
	assert.Equal(t, "import lib.engine\n", readFile(t, root, "a.py"))
	assert.Equal(t, "from lib.engine import VALUE\n", readFile(t, root, "b.py"))
	assert.Equal(t, "import os\n", readFile(t, root, "c.py"))
	assert.False(t, u.Builder().Fresh(), "writes must invalidate the graph")
}

func TestUpdateForMove_DryRunKeepsGraph(t *testing.T) {
	root := writeTree(t, moveProject())
	u := New(root)

	results, err := u.UpdateForMove(context.Background(), "pkg/core.py", "lib/engine.py", true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, u.Builder().Fresh())
	assert.Equal(t, "import pkg.core\n", readFile(t, root, "a.py"))
}

func TestUpdateForRename(t *testing.T) {
	root := writeTree(t, moveProject())
	u := New(root)

	results, err := u.UpdateForRename(context.Background(), "pkg/core.py", "engine.py", false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "import pkg.engine\n", readFile(t, root, "a.py"))
}

func TestApplyReport(t *testing.T) {
	root := writeTree(t, moveProject())
	u := New(root)
	ctx := context.Background()
	analyzer := impact.NewAnalyzer(u.Builder(), nil)

	report, err := analyzer.AnalyzeMove(ctx, "pkg/core.py", "pkg/engine.py")
	require.NoError(t, err)
	results := u.ApplyReport(ctx, report, false)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success, r.Error)
		assert.Equal(t, 1, r.ChangesMade)
	}
	assert.Equal(t, "from pkg.engine import VALUE\n", readFile(t, root, "b.py"))

	deletion, err := analyzer.AnalyzeDelete(ctx, "pkg/__init__.py")
	require.NoError(t, err)
	assert.Empty(t, u.ApplyReport(ctx, deletion, false))
	assert.Empty(t, u.ApplyReport(ctx, nil, false))
}

func TestUpdateResult_Diff(t *testing.T) {
	res := UpdateResult{
		File:       "user.py",
		OldContent: "import os\nimport pkg.core\nprint(1)\n",
		NewContent: "import os\nimport pkg.engine\nprint(1)\n",
	}

	out, err := res.Diff()
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/user.py")
	assert.Contains(t, out, "+++ b/user.py")
	assert.Contains(t, out, "@@ -1,4 +1,4 @@")
	assert.Contains(t, out, "-import pkg.core\n")
	assert.Contains(t, out, "+import pkg.engine\n")
	assert.Contains(t, out, " import os\n")

	unchanged := UpdateResult{File: "x.py", OldContent: "a\n", NewContent: "a\n"}
	out, err = unchanged.Diff()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUpdateResult_DiffSplitsDistantHunks(t *testing.T) {
	old := "import a\n1\n2\n3\n4\n5\n6\n7\n8\n9\nimport a\n"
	updated := "import b\n1\n2\n3\n4\n5\n6\n7\n8\n9\nimport b\n"
	fd := UpdateResult{File: "x.py", OldContent: old, NewContent: updated}.FileDiff()
	require.Len(t, fd.Hunks, 2)
	assert.Equal(t, int32(1), fd.Hunks[0].OrigStartLine)
	assert.Equal(t, int32(8), fd.Hunks[1].OrigStartLine)
}

func TestValidateNoBrokenImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app/__init__.py": "",
		"app/models.py":   "",
		"app/service.py":  "from .models import User\nfrom .gone import X, Y\nimport app.missing\nimport os\nimport app.models\n",
		"ns/sub/mod.py":   "",
		"main.py":         "import ns.sub\nfrom ns import sub\nimport requests\nfrom app import service\n",
	})
	u := New(root)

	broken, err := u.ValidateNoBrokenImports(context.Background(), []string{"app/service.py", "main.py", "ghost.py"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"app/service.py": {"from .gone import X, Y", "import app.missing"},
	}, broken)
}
