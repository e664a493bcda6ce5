// Package diagram renders an import graph as text diagrams.
package diagram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/pyimports/internal/graph"
)

// Options control which parts of the graph are drawn.
type Options struct {
	// Clusters groups files of the same package directory into subgraphs.
	Clusters bool
	// CyclesOnly limits the diagram to files that take part in a cycle.
	CyclesOnly bool
}

// Mermaid produces a "graph LR" Mermaid diagram. Import edges become
// arrows; edges inside a circular dependency are drawn thick and the
// files in a cycle get the "cycle" class.
func Mermaid(nodes map[string]*graph.ImportNode, cycles []graph.CircularDependency, opts Options) string {
	inCycle := make(map[string]bool)
	cycleEdge := make(map[[2]string]bool)
	for _, c := range cycles {
		for i, p := range c.Cycle {
			inCycle[p] = true
			cycleEdge[[2]string{p, c.Cycle[(i+1)%len(c.Cycle)]}] = true
		}
	}

	var paths []string
	for p := range nodes {
		if opts.CyclesOnly && !inCycle[p] {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	ids := make(map[string]string, len(paths))
	for i, p := range paths {
		ids[p] = fmt.Sprintf("N%d", i)
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	clustered := make(map[string]bool)
	if opts.Clusters {
		for i, c := range graph.ComputeClusters(nodes) {
			var members []string
			for _, m := range c.Members {
				if _, ok := ids[m]; ok {
					members = append(members, m)
				}
			}
			if len(members) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "  subgraph C%d[\"%s\"]\n", i, c.Name)
			for _, m := range members {
				fmt.Fprintf(&sb, "    %s[\"%s\"]\n", ids[m], shortPath(m))
				clustered[m] = true
			}
			sb.WriteString("  end\n")
		}
	}
	for _, p := range paths {
		if !clustered[p] {
			fmt.Fprintf(&sb, "  %s[\"%s\"]\n", ids[p], shortPath(p))
		}
	}

	for _, p := range paths {
		for _, target := range nodes[p].Imports {
			tid, ok := ids[target]
			if !ok {
				continue
			}
			arrow := "-->"
			if cycleEdge[[2]string{p, target}] {
				arrow = "==>"
			}
			fmt.Fprintf(&sb, "  %s %s %s\n", ids[p], arrow, tid)
		}
	}

	var members []string
	for _, p := range paths {
		if inCycle[p] {
			members = append(members, ids[p])
		}
	}
	if len(members) > 0 {
		sb.WriteString("  classDef cycle stroke:#d33,stroke-width:2px\n")
		fmt.Fprintf(&sb, "  class %s cycle\n", strings.Join(members, ","))
	}
	return sb.String()
}

// shortPath keeps the last two path segments.
func shortPath(p string) string {
	parts := strings.Split(p, "/")
	if len(parts) <= 2 {
		return p
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
