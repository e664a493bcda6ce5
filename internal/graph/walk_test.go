package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalker_Excluded(t *testing.T) {
	w := NewWalker([]string{"third_party/"}, []string{"**/migrations", "*_cache", "[bad"})

	tests := []struct {
		rel  string
		want bool
	}{
		{".git", true},
		{"src/__pycache__", true},
		{"venv", true},
		{"mylib.egg-info", true},
		{"third_party", true},
		{"app/db/migrations", true},
		{"ruff_cache", true},
		{"src", false},
		{"src/environment", false},
		{"[bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Excluded(tt.rel))
		})
	}
}

func TestWalker_Walk(t *testing.T) {
	root := writeTree(t, map[string]string{
		"z.py":                "",
		"a/b.py":              "",
		"a/__pycache__/b.py":  "",
		"a/data.json":         "{}",
		".venv/lib/x.py":      "",
		"docs/conf.py":        "",
		"dist/pkg/release.py": "",
	})

	files, err := NewWalker(nil, nil).Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b.py", "docs/conf.py", "z.py"}, files)
}
