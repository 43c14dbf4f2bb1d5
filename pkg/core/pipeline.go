package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// --- Pipeline state machine ---

// Phase is the lifecycle state of a Pipeline.
//
//	Unbuilt -> IndexedGraph -> ObservedCounted -> Permuting -> Scored
//
// No transition may skip a predecessor, and a Pipeline is single-use: a
// different topology or parameter set needs a fresh Pipeline.
type Phase int32

const (
	PhaseUnbuilt Phase = iota
	PhaseIndexedGraph
	PhaseObservedCounted
	PhasePermuting
	PhaseScored
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUnbuilt:
		return "Unbuilt"
	case PhaseIndexedGraph:
		return "IndexedGraph"
	case PhaseObservedCounted:
		return "ObservedCounted"
	case PhasePermuting:
		return "Permuting"
	case PhaseScored:
		return "Scored"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// ErrInvalidState is returned when a pipeline method is called out of
// order.
var ErrInvalidState = errors.New("pipeline method called out of order")

// ErrNoTrials is returned when scoring is requested after cancellation hit
// before a single trial completed.
var ErrNoTrials = errors.New("no permutation trials completed")

// PermuteConfig configures the permutation phase.
type PermuteConfig struct {
	// Trials is the number of label permutations. Must be >= 1.
	Trials int
	// Seed fixes the base random seed; nil means nondeterministic
	// (time-derived).
	Seed *int64
	// Workers caps the worker pool. Zero or oversized values degrade to
	// the available parallelism.
	Workers int
	// KeepSamples retains every per-trial count (O(T*L^2) memory) and
	// enables empirical p-values. Off, only exact moments are kept and
	// p-values are reported as NaN.
	KeepSamples bool
}

// Pipeline runs one neighborhood-enrichment analysis over a fixed point
// set: graph construction, observed counting, label-permutation null
// distribution, scoring.
type Pipeline struct {
	ps    *PointSet
	topo  Topology
	phase Phase

	graph    *Graph
	observed *PairMatrix
	acc      *nullAccumulator

	requestedTrials int
	completedTrials int
	interrupted     bool
}

// NewPipeline validates the topology parameters against the point set and
// returns a pipeline in the Unbuilt phase.
func NewPipeline(ps *PointSet, topo Topology) (*Pipeline, error) {
	if err := topo.Validate(ps.Len()); err != nil {
		return nil, err
	}
	return &Pipeline{ps: ps, topo: topo, phase: PhaseUnbuilt}, nil
}

func (p *Pipeline) require(want Phase) error {
	if p.phase != want {
		return fmt.Errorf("%w: in %s, want %s", ErrInvalidState, p.phase, want)
	}
	return nil
}

// Phase returns the current lifecycle phase.
func (p *Pipeline) Phase() Phase { return p.phase }

// BuildGraph constructs the spatial index and the symmetrized adjacency
// relation. Unbuilt -> IndexedGraph.
func (p *Pipeline) BuildGraph() error {
	if err := p.require(PhaseUnbuilt); err != nil {
		return err
	}
	g, err := buildGraph(p.ps, p.topo)
	if err != nil {
		return err
	}
	p.graph = g
	p.phase = PhaseIndexedGraph
	return nil
}

// CountObserved tabulates the composition counts of the true labeling.
// IndexedGraph -> ObservedCounted.
func (p *Pipeline) CountObserved() error {
	if err := p.require(PhaseIndexedGraph); err != nil {
		return err
	}
	p.observed = NewPairMatrix(p.ps.Labels())
	countComposition(p.graph, p.ps.codes, p.observed)
	p.phase = PhaseObservedCounted
	return nil
}

// Permute runs the permutation trials against the fixed graph.
// ObservedCounted -> Permuting. On cancellation, already-completed trials
// are retained and CompletedTrials/Interrupted report the reduced
// precision; Permute fails outright only when not one trial finished.
func (p *Pipeline) Permute(ctx context.Context, cfg PermuteConfig) error {
	if err := p.require(PhaseObservedCounted); err != nil {
		return err
	}
	if cfg.Trials < 1 {
		return fmt.Errorf("%w (got %d)", ErrBadTrials, cfg.Trials)
	}

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	p.phase = PhasePermuting
	p.requestedTrials = cfg.Trials
	p.acc = newNullAccumulator(p.observed.NumPairs(), cfg.KeepSamples)

	err := runPermutations(ctx, p.graph, p.ps.codes, p.ps.Labels(), permuteParams{
		trials:  cfg.Trials,
		seed:    seed,
		workers: cfg.Workers,
	}, p.acc)
	if err != nil {
		return err
	}

	p.completedTrials = int(p.acc.completed())
	p.interrupted = p.completedTrials < cfg.Trials
	if p.completedTrials == 0 {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("%w: %v", ErrNoTrials, cerr)
		}
		return ErrNoTrials
	}
	return nil
}

// Score derives the per-pair enrichment scores. Permuting -> Scored
// (terminal).
func (p *Pipeline) Score() ([]PairScore, error) {
	if err := p.require(PhasePermuting); err != nil {
		return nil, err
	}
	if p.acc.completed() == 0 {
		return nil, ErrNoTrials
	}
	scores := scoreAll(p.observed, p.acc)
	p.acc = nil // null distribution is consumed once
	p.phase = PhaseScored
	return scores, nil
}

// Graph exposes the adjacency relation once built.
func (p *Pipeline) Graph() *Graph { return p.graph }

// Observed exposes the observed composition counts once tabulated.
func (p *Pipeline) Observed() *PairMatrix { return p.observed }

// CompletedTrials returns how many permutation trials contributed to the
// null distribution.
func (p *Pipeline) CompletedTrials() int { return p.completedTrials }

// Interrupted reports whether cancellation reduced the trial count below
// the request.
func (p *Pipeline) Interrupted() bool { return p.interrupted }
