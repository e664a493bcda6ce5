package graph

import (
	"sort"
	"strings"
)

// findCycles runs an iterative depth-first search over every node and
// returns each distinct cycle once. Nodes and neighbors are visited in sorted
// order so the result is deterministic. Two cycles with the same member set
// are the same cycle.
func findCycles(nodes map[string]*ImportNode) []CircularDependency {
	type frame struct {
		node string
		next int // index of the next edge to follow
	}

	paths := make([]string, 0, len(nodes))
	for p := range nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	visited := make(map[string]bool, len(nodes))
	onStack := make(map[string]int) // node -> index in path
	seen := make(map[string]bool)
	var cycles []CircularDependency

	for _, start := range paths {
		if visited[start] {
			continue
		}

		stack := []frame{{node: start}}
		path := []string{start}
		visited[start] = true
		onStack[start] = 0

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := nodes[top.node].Imports

			if top.next >= len(edges) {
				delete(onStack, top.node)
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}

			next := edges[top.next]
			top.next++

			if _, ok := nodes[next]; !ok {
				continue
			}
			if idx, ok := onStack[next]; ok {
				cycle := append([]string{}, path[idx:]...)
				key := cycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, CircularDependency{
						Cycle:    cycle,
						Severity: SeverityForLength(len(cycle)),
					})
				}
				continue
			}
			if visited[next] {
				continue
			}

			visited[next] = true
			onStack[next] = len(path)
			path = append(path, next)
			stack = append(stack, frame{node: next})
		}
	}
	return cycles
}

// cycleKey identifies a cycle by its sorted member set.
func cycleKey(cycle []string) string {
	members := append([]string{}, cycle...)
	sort.Strings(members)
	return strings.Join(members, "\x00")
}
