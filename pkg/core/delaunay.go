package core

import (
	"fmt"
	"math"
	"sort"
)

// --- Delaunay adjacency ---

// delaunaySource materializes the Delaunay topology: the triangulation is
// computed once up front and queries just read the per-point neighbor
// lists.
//
// The triangulation is a Bowyer-Watson incremental construction over the
// distinct coordinates. Coincident points cannot both be triangulation
// vertices, so duplicates are collapsed onto one representative vertex and
// re-expanded afterwards: every point inherits the adjacency of its
// representative, and points sharing a coordinate are mutually adjacent at
// distance zero.
type delaunaySource struct {
	adj [][]int32
}

func (d *delaunaySource) Neighbors(i int) ([]int32, error) {
	return d.adj[i], nil
}

func newDelaunaySource(ps *PointSet) (*delaunaySource, error) {
	n := ps.Len()

	// Collapse coincident coordinates. groups[v] lists the point ids
	// sharing vertex v.
	vertexOf := make([]int32, n)
	var verts []Point
	var groups [][]int32
	seen := make(map[Point]int32, n)
	for i := 0; i < n; i++ {
		p := ps.Point(i)
		v, ok := seen[p]
		if !ok {
			v = int32(len(verts))
			seen[p] = v
			verts = append(verts, p)
			groups = append(groups, nil)
		}
		vertexOf[i] = v
		groups[v] = append(groups[v], int32(i))
	}

	if len(verts) < 3 || collinear(verts) {
		return nil, fmt.Errorf("%w (distinct=%d)", ErrDegenerateGeometry, len(verts))
	}

	edges, err := triangulate(verts)
	if err != nil {
		return nil, err
	}

	// Expand vertex adjacency back to point identities.
	adj := make([][]int32, n)
	link := func(a, b int32) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	for _, e := range edges {
		for _, a := range groups[e[0]] {
			for _, b := range groups[e[1]] {
				link(a, b)
			}
		}
	}
	for _, g := range groups {
		for i := 0; i < len(g); i++ {
			for j := i + 1; j < len(g); j++ {
				link(g[i], g[j])
			}
		}
	}
	for i := range adj {
		s := adj[i]
		sort.Slice(s, func(a, b int) bool { return s[a] < s[b] })
	}

	return &delaunaySource{adj: adj}, nil
}

// collinear reports whether all points lie on one line, with a tolerance
// scaled to the coordinate spread.
func collinear(pts []Point) bool {
	a := pts[0]
	// First point not coincident with a anchors the direction.
	bi := -1
	for i := 1; i < len(pts); i++ {
		if pts[i] != a {
			bi = i
			break
		}
	}
	if bi < 0 {
		return true
	}
	b := pts[bi]
	ux, uy := b.X-a.X, b.Y-a.Y
	scale := ux*ux + uy*uy
	for _, p := range pts {
		cross := ux*(p.Y-a.Y) - uy*(p.X-a.X)
		if cross*cross > 1e-24*scale*((p.X-a.X)*(p.X-a.X)+(p.Y-a.Y)*(p.Y-a.Y)+scale) {
			return false
		}
	}
	return true
}

// triangle holds vertex indices and the precomputed circumcircle.
type triangle struct {
	a, b, c int32
	cx, cy  float64
	r2      float64
}

type triEdge struct{ u, v int32 }

// triangulate runs Bowyer-Watson over distinct, non-collinear vertices and
// returns the unique triangulation edges as [2]int32 pairs with u < v.
func triangulate(verts []Point) ([][2]int32, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range verts {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	cx := (minX + maxX) / 2
	cy := (minY + maxY) / 2

	// Super-triangle comfortably enclosing every circumcircle of interest.
	all := make([]Point, len(verts), len(verts)+3)
	copy(all, verts)
	s0 := int32(len(all))
	all = append(all,
		Point{X: cx - 20*span, Y: cy - 10*span},
		Point{X: cx + 20*span, Y: cy - 10*span},
		Point{X: cx, Y: cy + 20*span},
	)

	tris := []triangle{mkTriangle(all, s0, s0+1, s0+2)}

	var bad []int
	edgeCount := make(map[triEdge]int)
	for pi := range verts {
		p := all[pi]

		bad = bad[:0]
		for ti, t := range tris {
			dx, dy := p.X-t.cx, p.Y-t.cy
			if dx*dx+dy*dy <= t.r2 {
				bad = append(bad, ti)
			}
		}

		// The cavity boundary is every edge belonging to exactly one bad
		// triangle.
		clear(edgeCount)
		for _, ti := range bad {
			t := tris[ti]
			edgeCount[mkEdge(t.a, t.b)]++
			edgeCount[mkEdge(t.b, t.c)]++
			edgeCount[mkEdge(t.c, t.a)]++
		}

		// Remove bad triangles (swap-delete, highest index first).
		for i := len(bad) - 1; i >= 0; i-- {
			ti := bad[i]
			tris[ti] = tris[len(tris)-1]
			tris = tris[:len(tris)-1]
		}

		for e, c := range edgeCount {
			if c != 1 {
				continue
			}
			tris = append(tris, mkTriangle(all, e.u, e.v, int32(pi)))
		}
	}

	// Keep only edges between real vertices.
	edgeSet := make(map[triEdge]struct{})
	for _, t := range tris {
		for _, e := range [3]triEdge{mkEdge(t.a, t.b), mkEdge(t.b, t.c), mkEdge(t.c, t.a)} {
			if e.u >= s0 || e.v >= s0 {
				continue
			}
			edgeSet[e] = struct{}{}
		}
	}
	if len(edgeSet) == 0 {
		return nil, ErrDegenerateGeometry
	}

	edges := make([][2]int32, 0, len(edgeSet))
	for e := range edgeSet {
		edges = append(edges, [2]int32{e.u, e.v})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges, nil
}

func mkEdge(a, b int32) triEdge {
	if a > b {
		a, b = b, a
	}
	return triEdge{u: a, v: b}
}

// mkTriangle computes the circumcircle of (a, b, c). The caller guarantees
// the three vertices are not collinear; the super-triangle construction
// keeps cavities star-shaped around the inserted point.
func mkTriangle(pts []Point, a, b, c int32) triangle {
	pa, pb, pc := pts[a], pts[b], pts[c]

	d := 2 * (pa.X*(pb.Y-pc.Y) + pb.X*(pc.Y-pa.Y) + pc.X*(pa.Y-pb.Y))
	aa := pa.X*pa.X + pa.Y*pa.Y
	bb := pb.X*pb.X + pb.Y*pb.Y
	cc := pc.X*pc.X + pc.Y*pc.Y
	ux := (aa*(pb.Y-pc.Y) + bb*(pc.Y-pa.Y) + cc*(pa.Y-pb.Y)) / d
	uy := (aa*(pc.X-pb.X) + bb*(pa.X-pc.X) + cc*(pb.X-pa.X)) / d

	dx, dy := pa.X-ux, pa.Y-uy
	return triangle{a: a, b: b, c: c, cx: ux, cy: uy, r2: dx*dx + dy*dy}
}
