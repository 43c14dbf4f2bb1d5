package core

import (
	"sort"
)

// --- Neighbor graph ---

// Graph is the undirected adjacency relation over point identities. It is
// built exactly once per pipeline, is independent of the labeling, and is
// shared read-only by every permutation trial.
//
// Each undirected edge {p, q} is stored once with p < q, and the edge list
// is kept in lexicographic order so that iteration order is deterministic.
// There are no self-loops.
type Graph struct {
	n     int
	edges [][2]int32
}

// buildGraph runs one neighbor query per point and symmetrizes the result
// by union: the edge {p, q} exists if the query from p reported q or the
// query from q reported p. For k-NN this is the documented resolution of
// the asymmetric raw relation; radius and Delaunay queries are already
// symmetric and pass through unchanged.
func buildGraph(ps *PointSet, topo Topology) (*Graph, error) {
	src, err := newNeighborSource(ps, topo)
	if err != nil {
		return nil, err
	}

	n := ps.Len()
	pairs := make([][2]int32, 0, n*2)
	for i := 0; i < n; i++ {
		cand, err := src.Neighbors(i)
		if err != nil {
			return nil, err
		}
		for _, j := range cand {
			if j == int32(i) {
				continue
			}
			p, q := int32(i), j
			if p > q {
				p, q = q, p
			}
			pairs = append(pairs, [2]int32{p, q})
		}
	}

	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})

	// Compact duplicates: an edge reported from both endpoints collapses
	// to one entry.
	edges := pairs[:0]
	for i, e := range pairs {
		if i > 0 && e == pairs[i-1] {
			continue
		}
		edges = append(edges, e)
	}

	return &Graph{n: n, edges: edges}, nil
}

// NumPoints returns the number of points the graph was built over.
func (g *Graph) NumPoints() int { return g.n }

// NumEdges returns the number of undirected edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// DegreeSum returns the total number of directed adjacencies, i.e. twice
// the undirected edge count. This is the mass conserved by the
// composition count matrix.
func (g *Graph) DegreeSum() int { return 2 * len(g.edges) }

// Edges returns the sorted undirected edge list. The slice is shared and
// must not be mutated.
func (g *Graph) Edges() [][2]int32 { return g.edges }

// Degrees returns the per-point degree distribution.
func (g *Graph) Degrees() []int {
	deg := make([]int, g.n)
	for _, e := range g.edges {
		deg[e[0]]++
		deg[e[1]]++
	}
	return deg
}
