package core

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// --- KD-tree spatial index (k-NN and radius topologies) ---

// cellRef is one indexed point: coordinates plus stable identity. It
// implements kdtree.Comparable. All distances are squared Euclidean, which
// preserves ordering and avoids the square root inside the tree search.
type cellRef struct {
	x, y float64
	id   int32
}

func (c cellRef) Dims() int { return 2 }

func (c cellRef) Compare(other kdtree.Comparable, d kdtree.Dim) float64 {
	q := other.(cellRef)
	if d == 0 {
		return c.x - q.x
	}
	return c.y - q.y
}

func (c cellRef) Distance(other kdtree.Comparable) float64 {
	q := other.(cellRef)
	dx := c.x - q.x
	dy := c.y - q.y
	return dx*dx + dy*dy
}

// cellSet implements kdtree.Interface over a slice of cellRef.
type cellSet []cellRef

func (s cellSet) Index(i int) kdtree.Comparable         { return s[i] }
func (s cellSet) Len() int                              { return len(s) }
func (s cellSet) Slice(start, end int) kdtree.Interface { return s[start:end] }
func (s cellSet) Pivot(d kdtree.Dim) int                { return cellPlane{Dim: d, cellSet: s}.Pivot() }

// cellPlane is the kdtree.SortSlicer used to pivot cellSet on one axis.
type cellPlane struct {
	kdtree.Dim
	cellSet
}

func (p cellPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.cellSet[i].x < p.cellSet[j].x
	}
	return p.cellSet[i].y < p.cellSet[j].y
}
func (p cellPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p cellPlane) Slice(start, end int) kdtree.SortSlicer {
	p.cellSet = p.cellSet[start:end]
	return p
}
func (p cellPlane) Swap(i, j int) {
	p.cellSet[i], p.cellSet[j] = p.cellSet[j], p.cellSet[i]
}

// kdIndex answers k-NN and radius queries over a fixed point set.
//
// The k-NN tie-break is pinned: candidates are ordered by (distance,
// identity), so among equidistant candidates the lowest point identity
// wins. This rule is load-bearing: it decides which edges exist in inputs
// with distance ties, and therefore every downstream count.
type kdIndex struct {
	tree *kdtree.Tree
	byID []cellRef // query handles in identity order; tree construction reorders its own copy
	k    int       // >0 for k-NN
	r2   float64   // squared radius, >0 for radius queries

	scratch []neighborCandidate
	out     []int32
}

type neighborCandidate struct {
	dist float64
	id   int32
}

func newKDIndex(ps *PointSet, k int, r float64) *kdIndex {
	n := ps.Len()
	byID := make([]cellRef, n)
	for i := 0; i < n; i++ {
		p := ps.Point(i)
		byID[i] = cellRef{x: p.X, y: p.Y, id: int32(i)}
	}
	cells := make(cellSet, n)
	copy(cells, byID)

	return &kdIndex{
		tree: kdtree.New(cells, false),
		byID: byID,
		k:    k,
		r2:   r * r,
	}
}

// Neighbors returns the candidate neighbors of point i under the
// configured query, excluding i itself.
func (kd *kdIndex) Neighbors(i int) ([]int32, error) {
	q := kd.byID[i]
	if kd.k > 0 {
		return kd.knn(q), nil
	}
	return kd.within(q, kd.r2, -1), nil
}

// knn performs the two-phase exact k-NN query. Phase one finds the k-th
// smallest non-self distance; phase two collects every candidate at that
// distance or closer so that ties are resolved by the documented
// (distance, identity) order instead of by tree traversal order.
func (kd *kdIndex) knn(q cellRef) []int32 {
	// The query point itself sits in the tree at distance zero, so ask for
	// one extra result.
	keep := kdtree.NewNKeeper(kd.k + 1)
	kd.tree.NearestSet(keep, q)

	kd.scratch = kd.scratch[:0]
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		got := c.Comparable.(cellRef)
		if got.id == q.id {
			continue
		}
		kd.scratch = append(kd.scratch, neighborCandidate{dist: c.Dist, id: got.id})
	}
	sort.Slice(kd.scratch, func(a, b int) bool { return kd.scratch[a].dist < kd.scratch[b].dist })

	// At most one keeper entry was the query point, so at least k non-self
	// candidates remain (Validate guarantees k < N).
	kth := kd.scratch[kd.k-1].dist

	return kd.within(q, kth, kd.k)
}

// within collects every non-self point with squared distance <= d2, sorted
// by (distance, identity), truncated to limit when limit >= 0.
func (kd *kdIndex) within(q cellRef, d2 float64, limit int) []int32 {
	keep := kdtree.NewDistKeeper(d2)
	kd.tree.NearestSet(keep, q)

	kd.scratch = kd.scratch[:0]
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		got := c.Comparable.(cellRef)
		if got.id == q.id {
			continue
		}
		kd.scratch = append(kd.scratch, neighborCandidate{dist: c.Dist, id: got.id})
	}
	sort.Slice(kd.scratch, func(a, b int) bool {
		if kd.scratch[a].dist != kd.scratch[b].dist {
			return kd.scratch[a].dist < kd.scratch[b].dist
		}
		return kd.scratch[a].id < kd.scratch[b].id
	})

	if limit >= 0 && len(kd.scratch) > limit {
		kd.scratch = kd.scratch[:limit]
	}

	kd.out = kd.out[:0]
	for _, c := range kd.scratch {
		kd.out = append(kd.out, c.id)
	}
	return kd.out
}
