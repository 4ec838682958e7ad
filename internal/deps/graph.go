// Package deps analyzes supplier dependency graphs: downstream impact,
// critical paths, and centrality.
package deps

import (
	"sort"

	"riskmonitor/internal/types"
)

// Graph holds the dependency edges between an organization's suppliers.
// An edge A -> B means A depends on B; a disruption at B flows back to A.
type Graph struct {
	dependsOn  map[int64][]int64 // supplier -> what it depends on
	dependents map[int64][]int64 // supplier -> who depends on it
	suppliers  map[int64]types.Supplier
}

// Build constructs a graph from suppliers and their dependency edges.
func Build(suppliers []types.Supplier, edges []types.SupplierDependency) *Graph {
	g := &Graph{
		dependsOn:  make(map[int64][]int64),
		dependents: make(map[int64][]int64),
		suppliers:  make(map[int64]types.Supplier, len(suppliers)),
	}
	for _, s := range suppliers {
		g.suppliers[s.ID] = s
	}
	for _, e := range edges {
		if _, ok := g.suppliers[e.SupplierID]; !ok {
			continue
		}
		if _, ok := g.suppliers[e.DependsOnID]; !ok {
			continue
		}
		g.dependsOn[e.SupplierID] = append(g.dependsOn[e.SupplierID], e.DependsOnID)
		g.dependents[e.DependsOnID] = append(g.dependents[e.DependsOnID], e.SupplierID)
	}
	return g
}

// Downstream returns all suppliers transitively impacted when the given
// suppliers are disrupted, excluding the sources themselves. Breadth-first,
// so each node is reported with its shortest hop distance.
type DownstreamHit struct {
	Supplier types.Supplier
	Hops     int
}

// Downstream walks the dependents relation from the disrupted set.
func (g *Graph) Downstream(disrupted []int64) []DownstreamHit {
	visited := make(map[int64]bool, len(disrupted))
	for _, id := range disrupted {
		visited[id] = true
	}

	type qItem struct {
		id   int64
		hops int
	}
	var queue []qItem
	for _, id := range disrupted {
		queue = append(queue, qItem{id: id, hops: 0})
	}

	var hits []DownstreamHit
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.dependents[cur.id] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if s, ok := g.suppliers[dep]; ok {
				hits = append(hits, DownstreamHit{Supplier: s, Hops: cur.hops + 1})
			}
			queue = append(queue, qItem{id: dep, hops: cur.hops + 1})
		}
	}
	return hits
}

// CriticalNode is a supplier many others depend on.
type CriticalNode struct {
	Supplier       types.Supplier `json:"supplier"`
	DependentCount int            `json:"dependent_count"`
	Centrality     float64        `json:"centrality"`
}

// Centrality ranks suppliers by how many others depend on them, normalized
// by the supplier count. Highest first.
func (g *Graph) Centrality() []CriticalNode {
	total := len(g.suppliers)
	if total == 0 {
		return nil
	}

	nodes := make([]CriticalNode, 0, total)
	for id, s := range g.suppliers {
		count := len(g.dependents[id])
		nodes = append(nodes, CriticalNode{
			Supplier:       s,
			DependentCount: count,
			Centrality:     float64(count) / float64(total),
		})
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].DependentCount != nodes[j].DependentCount {
			return nodes[i].DependentCount > nodes[j].DependentCount
		}
		return nodes[i].Supplier.ID < nodes[j].Supplier.ID
	})
	return nodes
}

// CriticalPaths returns the chains rooted at suppliers nothing depends on,
// following dependsOn edges. Used to show which chains a disruption at the
// tail would break.
func (g *Graph) CriticalPaths() [][]int64 {
	var paths [][]int64
	for id := range g.suppliers {
		if len(g.dependents[id]) > 0 {
			continue // not a root
		}
		if len(g.dependsOn[id]) == 0 {
			continue // isolated node, no chain
		}
		g.walkPaths([]int64{id}, &paths)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i][0] < paths[j][0]
	})
	return paths
}

func (g *Graph) walkPaths(path []int64, out *[][]int64) {
	tail := path[len(path)-1]
	next := g.dependsOn[tail]
	if len(next) == 0 {
		cp := make([]int64, len(path))
		copy(cp, path)
		*out = append(*out, cp)
		return
	}
	for _, n := range next {
		if containsID(path, n) {
			continue // cycle guard
		}
		g.walkPaths(append(path, n), out)
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
