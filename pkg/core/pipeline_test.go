package core

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestPipelineEnforcesPhaseOrder(t *testing.T) {
	ps := randomPointSet(t, 20, []string{"a", "b"})
	p, err := NewPipeline(ps, KNN(2))
	if err != nil {
		t.Fatal(err)
	}

	if err := p.CountObserved(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("CountObserved before BuildGraph: got %v", err)
	}
	if err := p.Permute(context.Background(), PermuteConfig{Trials: 10}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Permute before CountObserved: got %v", err)
	}
	if _, err := p.Score(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Score before Permute: got %v", err)
	}

	if err := p.BuildGraph(); err != nil {
		t.Fatal(err)
	}
	if err := p.BuildGraph(); !errors.Is(err, ErrInvalidState) {
		t.Fatal("a pipeline is single-use; BuildGraph must not run twice")
	}
	if err := p.CountObserved(); err != nil {
		t.Fatal(err)
	}
	if err := p.Permute(context.Background(), PermuteConfig{Trials: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Score(); err != nil {
		t.Fatal(err)
	}
	if p.Phase() != PhaseScored {
		t.Fatalf("final phase %v, want Scored", p.Phase())
	}
	if _, err := p.Score(); !errors.Is(err, ErrInvalidState) {
		t.Fatal("Score must not run twice")
	}
}

// Unit square labeled A,B,A,B with k=1. The documented lower-identity
// tie-break fixes the symmetrized edges to {0,1}, {0,2}, {1,3}, and with
// them the exact observed counts.
func TestCornerSquareObservedCounts(t *testing.T) {
	ps, err := NewPointSet(
		[]Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		[]string{"A", "B", "A", "B"},
	)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPipeline(ps, KNN(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.BuildGraph(); err != nil {
		t.Fatal(err)
	}

	wantEdges := [][2]int32{{0, 1}, {0, 2}, {1, 3}}
	if got := p.Graph().Edges(); len(got) != len(wantEdges) {
		t.Fatalf("edges %v, want %v", got, wantEdges)
	} else {
		for i := range wantEdges {
			if got[i] != wantEdges[i] {
				t.Fatalf("edges %v, want %v", got, wantEdges)
			}
		}
	}

	if err := p.CountObserved(); err != nil {
		t.Fatal(err)
	}
	obs := p.Observed()
	if got := obs.At(0, 1); got != 1 { // A/B: the {0,1} edge
		t.Errorf("A/B count %d, want 1", got)
	}
	if got := obs.At(0, 0); got != 2 { // A/A: the {0,2} edge, both orientations
		t.Errorf("A/A count %d, want 2", got)
	}
	if got := obs.At(1, 1); got != 2 { // B/B: the {1,3} edge, both orientations
		t.Errorf("B/B count %d, want 2", got)
	}
}

// A radius below the minimum pairwise distance leaves an empty graph; the
// pipeline must still complete with sentinel scores, not crash.
func TestEmptyGraphProducesSentinelScores(t *testing.T) {
	ps, err := NewPointSet(
		[]Point{{0, 0}, {10, 0}, {0, 10}, {10, 10}},
		[]string{"A", "B", "A", "B"},
	)
	if err != nil {
		t.Fatal(err)
	}
	seed := int64(1)
	scores := runScoredPipeline(t, ps, Radius(0.5), PermuteConfig{
		Trials:      20,
		Seed:        &seed,
		KeepSamples: true,
	})

	if len(scores) != 3 { // A/A, A/B, B/B
		t.Fatalf("got %d pairs, want 3", len(scores))
	}
	for _, s := range scores {
		if s.Observed != 0 || s.NullMean != 0 || s.NullStd != 0 {
			t.Fatalf("pair (%d,%d): non-zero stats on an empty graph: %+v", s.A, s.B, s)
		}
		if !math.IsNaN(s.ZScore) {
			t.Fatalf("pair (%d,%d): z %g, want NaN sentinel", s.A, s.B, s.ZScore)
		}
		if s.PValue != 1 {
			t.Fatalf("pair (%d,%d): p %g, want 1 for a constant null", s.A, s.B, s.PValue)
		}
	}
}

// Two well-separated clusters with homogeneous labels: same-label
// adjacency is enriched, cross-label adjacency depleted.
func TestClusteredLabelsScoreAsEnriched(t *testing.T) {
	var points []Point
	var labels []string
	for i := 0; i < 30; i++ {
		points = append(points, Point{X: float64(i % 6), Y: float64(i / 6)})
		labels = append(labels, "A")
	}
	for i := 0; i < 30; i++ {
		points = append(points, Point{X: 100 + float64(i%6), Y: float64(i / 6)})
		labels = append(labels, "B")
	}
	ps, err := NewPointSet(points, labels)
	if err != nil {
		t.Fatal(err)
	}

	seed := int64(11)
	scores := runScoredPipeline(t, ps, KNN(4), PermuteConfig{
		Trials: 300,
		Seed:   &seed,
	})

	get := func(a, b LabelCode) PairScore {
		for _, s := range scores {
			if s.A == a && s.B == b {
				return s
			}
		}
		t.Fatalf("pair (%d,%d) missing", a, b)
		return PairScore{}
	}

	if z := get(0, 0).ZScore; !(z > 2) {
		t.Errorf("A/A z=%g, want clear enrichment", z)
	}
	if z := get(1, 1).ZScore; !(z > 2) {
		t.Errorf("B/B z=%g, want clear enrichment", z)
	}
	if z := get(0, 1).ZScore; !(z < -2) {
		t.Errorf("A/B z=%g, want clear depletion", z)
	}
}

// More trials must stabilize the null deviation estimate: the spread of
// the estimate across independent seeds shrinks as T grows.
func TestNullEstimateStabilizesWithMoreTrials(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical check")
	}
	ps := randomPointSet(t, 80, []string{"a", "b"})

	spread := func(trials int) float64 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for seed := int64(0); seed < 6; seed++ {
			s := seed
			scores := runScoredPipeline(t, ps, KNN(3), PermuteConfig{
				Trials: trials,
				Seed:   &s,
			})
			std := scores[1].NullStd // a/b pair
			lo = math.Min(lo, std)
			hi = math.Max(hi, std)
		}
		return hi - lo
	}

	if few, many := spread(25), spread(500); many >= few {
		t.Errorf("null std spread grew with trials: %g (T=25) vs %g (T=500)", few, many)
	}
}
