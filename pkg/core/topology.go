package core

import (
	"errors"
	"fmt"
)

// --- Topology policy ---

// TopologyKind enumerates the supported neighbor definitions.
type TopologyKind int

const (
	// TopologyKNN connects each point to its K nearest neighbors.
	TopologyKNN TopologyKind = iota
	// TopologyRadius connects each point to every point within distance R.
	TopologyRadius
	// TopologyDelaunay connects points sharing a Delaunay triangulation edge.
	TopologyDelaunay
)

// String returns the configuration name of the topology kind.
func (k TopologyKind) String() string {
	switch k {
	case TopologyKNN:
		return "knn"
	case TopologyRadius:
		return "radius"
	case TopologyDelaunay:
		return "delaunay"
	default:
		return fmt.Sprintf("TopologyKind(%d)", int(k))
	}
}

var (
	// ErrBadK is returned when K is outside [1, N-1] for a k-NN topology.
	ErrBadK = errors.New("k must be at least 1 and smaller than the point count")
	// ErrBadRadius is returned when R is not strictly positive.
	ErrBadRadius = errors.New("radius must be positive")
	// ErrDegenerateGeometry is returned when a Delaunay triangulation is
	// requested for fewer than 3 points or fully collinear input.
	ErrDegenerateGeometry = errors.New("degenerate geometry: delaunay triangulation requires at least 3 non-collinear points")
	// ErrUnknownTopology is returned for an unrecognized TopologyKind.
	ErrUnknownTopology = errors.New("unknown topology kind")
)

// Topology is the closed tagged variant selecting a neighbor definition.
// Use one of the constructors; the zero value is not valid.
type Topology struct {
	Kind TopologyKind
	K    int     // k-NN only
	R    float64 // radius only
}

// KNN selects the k-nearest-neighbor topology.
func KNN(k int) Topology { return Topology{Kind: TopologyKNN, K: k} }

// Radius selects the fixed-radius topology.
func Radius(r float64) Topology { return Topology{Kind: TopologyRadius, R: r} }

// Delaunay selects the Delaunay-adjacency topology.
func Delaunay() Topology { return Topology{Kind: TopologyDelaunay} }

// String renders the topology with its parameter, e.g. "knn(6)".
func (t Topology) String() string {
	switch t.Kind {
	case TopologyKNN:
		return fmt.Sprintf("knn(%d)", t.K)
	case TopologyRadius:
		return fmt.Sprintf("radius(%g)", t.R)
	default:
		return t.Kind.String()
	}
}

// Validate checks the topology parameters against a point count of n.
// Parameter errors are fatal input errors: they are reported before any
// index construction starts.
func (t Topology) Validate(n int) error {
	switch t.Kind {
	case TopologyKNN:
		if t.K < 1 || t.K >= n {
			return fmt.Errorf("%w (k=%d, n=%d)", ErrBadK, t.K, n)
		}
	case TopologyRadius:
		if !(t.R > 0) {
			return fmt.Errorf("%w (r=%g)", ErrBadRadius, t.R)
		}
	case TopologyDelaunay:
		if n < 3 {
			return fmt.Errorf("%w (n=%d)", ErrDegenerateGeometry, n)
		}
	default:
		return fmt.Errorf("%w (%d)", ErrUnknownTopology, int(t.Kind))
	}
	return nil
}

// neighborSource is the contract shared by all topology policies: a single
// pass producing, for each point, its directed candidate neighbor list.
// The graph builder symmetrizes the result; everything downstream is
// topology-agnostic once the adjacency relation exists.
type neighborSource interface {
	// Neighbors returns the candidate neighbor identities of point i,
	// excluding i itself. The returned slice may be reused between calls.
	Neighbors(i int) ([]int32, error)
}

// newNeighborSource builds the spatial index for the chosen topology.
func newNeighborSource(ps *PointSet, t Topology) (neighborSource, error) {
	if err := t.Validate(ps.Len()); err != nil {
		return nil, err
	}
	switch t.Kind {
	case TopologyKNN:
		return newKDIndex(ps, t.K, 0), nil
	case TopologyRadius:
		return newKDIndex(ps, 0, t.R), nil
	case TopologyDelaunay:
		return newDelaunaySource(ps)
	default:
		return nil, fmt.Errorf("%w (%d)", ErrUnknownTopology, int(t.Kind))
	}
}
