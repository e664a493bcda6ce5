package diagram

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/pyimports/internal/graph"
)

func testNodes() (map[string]*graph.ImportNode, []graph.CircularDependency) {
	nodes := map[string]*graph.ImportNode{
		"a.py":     {Filepath: "a.py", Imports: []string{"b.py"}},
		"b.py":     {Filepath: "b.py", Imports: []string{"a.py"}},
		"c.py":     {Filepath: "c.py", Imports: []string{"a.py"}},
		"pkg/x.py": {Filepath: "pkg/x.py", Imports: []string{"pkg/y.py"}},
		"pkg/y.py": {Filepath: "pkg/y.py"},
	}
	cycles := []graph.CircularDependency{{Cycle: []string{"a.py", "b.py"}, Severity: graph.SeverityHigh}}
	return nodes, cycles
}

func TestMermaid(t *testing.T) {
	nodes, cycles := testNodes()
	got := Mermaid(nodes, cycles, Options{})

	want := `graph LR
  N0["a.py"]
  N1["b.py"]
  N2["c.py"]
  N3["pkg/x.py"]
  N4["pkg/y.py"]
  N0 ==> N1
  N1 ==> N0
  N2 --> N0
  N3 --> N4
  classDef cycle stroke:#d33,stroke-width:2px
  class N0,N1 cycle
`
	assert.Equal(t, want, got)
}

func TestMermaid_Clusters(t *testing.T) {
	nodes, cycles := testNodes()
	got := Mermaid(nodes, cycles, Options{Clusters: true})

	assert.Contains(t, got, "  subgraph C0[\".\"]\n    N0[\"a.py\"]\n    N1[\"b.py\"]\n    N2[\"c.py\"]\n  end\n")
	assert.Contains(t, got, "  subgraph C1[\"pkg\"]\n    N3[\"pkg/x.py\"]\n    N4[\"pkg/y.py\"]\n  end\n")
	assert.NotContains(t, got, "\n  N3[\"pkg/x.py\"]\n")
}

func TestMermaid_CyclesOnly(t *testing.T) {
	nodes, cycles := testNodes()
	got := Mermaid(nodes, cycles, Options{CyclesOnly: true})

	assert.NotContains(t, got, "c.py")
	assert.NotContains(t, got, "-->")
	assert.Contains(t, got, "N0 ==> N1")
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "a.py", shortPath("a.py"))
	assert.Equal(t, "models/user.py", shortPath("app/models/user.py"))
}
