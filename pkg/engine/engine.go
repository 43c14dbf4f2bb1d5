// Package engine provides the high-level, embeddable interface for the
// nhood enrichment engine.
//
// It wraps the pure compute pipeline in pkg/core with configuration
// handling, structured logging, run identifiers and prometheus metrics,
// so that host applications can run a whole analysis in one call:
//
//	opts := engine.DefaultOptions()
//	opts.Topology = core.KNN(6)
//	res, err := engine.Analyze(ctx, points, labels, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range res.Scores {
//	    fmt.Println(res.PairLabel(s), s.ZScore)
//	}
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spatx/nhood/pkg/core"
	"github.com/spatx/nhood/pkg/metrics"
)

// Options configures one analysis run.
type Options struct {
	// Topology selects the neighbor definition: core.KNN(k),
	// core.Radius(r) or core.Delaunay().
	Topology core.Topology

	// Trials is the number of label permutations for the null
	// distribution. Larger values stabilize the empirical estimates.
	Trials int

	// Seed fixes the base random seed for reproducible output. Nil means
	// nondeterministic.
	Seed *int64

	// Workers caps the permutation worker pool. Zero or values beyond the
	// available parallelism degrade to runtime.NumCPU(); the value is a
	// hint, never a hard failure.
	Workers int

	// KeepSamples retains the full per-trial null distribution, enabling
	// empirical p-values at O(Trials * L^2) memory. Off, only streaming
	// moments are kept and p-values are NaN.
	KeepSamples bool
}

// DefaultOptions returns a configuration suitable for most runs.
//
// Defaults:
//   - Topology: knn(6)
//   - Trials: 1000
//   - Seed: nil (nondeterministic)
//   - Workers: 0 (available parallelism)
//   - KeepSamples: false (z-scores only)
func DefaultOptions() Options {
	return Options{
		Topology: core.KNN(6),
		Trials:   1000,
	}
}

// PairScore re-exports the core score record.
type PairScore = core.PairScore

// Result is the immutable outcome of one analysis.
type Result struct {
	// RunID uniquely identifies the analysis in logs and downstream
	// reports.
	RunID string

	// Input shape.
	Points int
	Labels []string
	Edges  int

	// Trial accounting. CompletedTrials < RequestedTrials only when the
	// context was cancelled mid-permutation; Interrupted flags that
	// reduced precision explicitly.
	RequestedTrials int
	CompletedTrials int
	Interrupted     bool

	// Scores holds one entry per unordered label pair, diagonal included,
	// ordered by label code.
	Scores []PairScore

	Elapsed time.Duration
}

// Score returns the score record for a pair of label names, in either
// order. The second return is false when a name is unknown.
func (r *Result) Score(labelA, labelB string) (PairScore, bool) {
	a, okA := r.code(labelA)
	b, okB := r.code(labelB)
	if !okA || !okB {
		return PairScore{}, false
	}
	if a > b {
		a, b = b, a
	}
	for _, s := range r.Scores {
		if s.A == a && s.B == b {
			return s, true
		}
	}
	return PairScore{}, false
}

// PairLabel renders the label names of a score record.
func (r *Result) PairLabel(s PairScore) string {
	return r.Labels[s.A] + "/" + r.Labels[s.B]
}

func (r *Result) code(name string) (core.LabelCode, bool) {
	for i, l := range r.Labels {
		if l == name {
			return core.LabelCode(i), true
		}
	}
	return 0, false
}

// Analyze runs the whole pipeline: validation, graph construction,
// observed counting, permutation trials and scoring.
//
// Fatal errors (bad input, degenerate geometry, count overflow) abort the
// run before any result is returned; the only partial outcome ever
// reported is a reduced trial count after cooperative cancellation, and
// that is flagged on the Result, never silent.
func Analyze(ctx context.Context, points []core.Point, labels []string, opts Options) (*Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	// Metric label stays on the kind only, to keep cardinality bounded.
	topo := opts.Topology.Kind.String()

	log := slog.With("run_id", runID, "topology", opts.Topology.String())
	log.Info("analysis started", "points", len(points), "trials", opts.Trials)

	res, err := analyze(ctx, points, labels, opts)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(topo, "error").Inc()
		log.Error("analysis failed", "error", err)
		return nil, err
	}

	res.RunID = runID
	res.Elapsed = time.Since(start)

	metrics.AnalysesTotal.WithLabelValues(topo, "ok").Inc()
	metrics.AnalysisDuration.WithLabelValues(topo).Observe(res.Elapsed.Seconds())
	metrics.PermutationTrialsTotal.Add(float64(res.CompletedTrials))
	metrics.LastPoints.Set(float64(res.Points))
	metrics.LastEdges.Set(float64(res.Edges))

	if res.Interrupted {
		log.Warn("analysis interrupted, reduced precision",
			"completed_trials", res.CompletedTrials,
			"requested_trials", res.RequestedTrials)
	}
	log.Info("analysis finished",
		"edges", res.Edges,
		"pairs", len(res.Scores),
		"elapsed", res.Elapsed)

	return res, nil
}

func analyze(ctx context.Context, points []core.Point, labels []string, opts Options) (*Result, error) {
	ps, err := core.NewPointSet(points, labels)
	if err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	p, err := core.NewPipeline(ps, opts.Topology)
	if err != nil {
		return nil, err
	}
	if err := p.BuildGraph(); err != nil {
		return nil, fmt.Errorf("graph construction: %w", err)
	}
	if err := p.CountObserved(); err != nil {
		return nil, err
	}
	if err := p.Permute(ctx, core.PermuteConfig{
		Trials:      opts.Trials,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		KeepSamples: opts.KeepSamples,
	}); err != nil {
		return nil, fmt.Errorf("permutation phase: %w", err)
	}
	scores, err := p.Score()
	if err != nil {
		return nil, err
	}

	names := make([]string, ps.Labels())
	for i := range names {
		names[i] = ps.LabelName(core.LabelCode(i))
	}

	return &Result{
		Points:          ps.Len(),
		Labels:          names,
		Edges:           p.Graph().NumEdges(),
		RequestedTrials: opts.Trials,
		CompletedTrials: p.CompletedTrials(),
		Interrupted:     p.Interrupted(),
		Scores:          scores,
	}, nil
}
