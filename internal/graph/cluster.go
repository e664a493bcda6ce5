package graph

import (
	"path"
	"sort"
)

// ComputeClusters groups files by their package directory and scores how
// self-contained each package is.
//
// Algorithm:
//  1. Bucket every node by the directory that contains it.
//  2. Drop buckets with fewer than two files.
//  3. Count import edges among members (internal) and edges crossing the
//     package boundary in either direction (external).
//  4. Cohesion = internal / (internal + external); zero when no edges touch
//     the package.
//
// Clusters are returned sorted by name. Root-level files form the "." cluster.
func ComputeClusters(nodes map[string]*ImportNode) []ClusterNode {
	buckets := make(map[string][]string)
	for p := range nodes {
		dir := path.Dir(p)
		buckets[dir] = append(buckets[dir], p)
	}

	var clusters []ClusterNode
	for dir, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		clusters = append(clusters, ClusterNode{
			Name:          dir,
			CohesionScore: computeCohesion(members, nodes),
			Members:       members,
		})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Name < clusters[j].Name })
	return clusters
}

// computeCohesion counts each directed import edge touching the component
// once: internal when both ends are members, external otherwise.
func computeCohesion(component []string, nodes map[string]*ImportNode) float64 {
	memberSet := make(map[string]bool, len(component))
	for _, m := range component {
		memberSet[m] = true
	}

	internalEdges := 0
	externalEdges := 0
	for _, m := range component {
		n := nodes[m]
		for _, target := range n.Imports {
			if memberSet[target] {
				internalEdges++
			} else {
				externalEdges++
			}
		}
		for _, importer := range n.ImportedBy {
			if !memberSet[importer] {
				externalEdges++
			}
		}
	}

	total := internalEdges + externalEdges
	if total == 0 {
		return 0
	}
	return float64(internalEdges) / float64(total)
}
