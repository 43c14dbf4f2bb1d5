package core

import (
	"math"
	"testing"
)

// mergeTrial folds a synthetic single-pair trial count into the
// accumulator.
func mergeTrial(t *testing.T, acc *nullAccumulator, trial int, count int64) {
	t.Helper()
	m := NewPairMatrix(1)
	m.cells[0] = count
	if err := acc.merge(trial, m); err != nil {
		t.Fatal(err)
	}
}

func TestMomentsMatchDirectComputation(t *testing.T) {
	acc := newNullAccumulator(1, false)
	values := []int64{4, 7, 7, 10, 2}
	for i, v := range values {
		mergeTrial(t, acc, i, v)
	}

	mean, std := acc.moments(0)
	if mean != 6 {
		t.Fatalf("mean %g, want 6", mean)
	}
	// Population variance of 4,7,7,10,2 is 7.6.
	if want := math.Sqrt(7.6); math.Abs(std-want) > 1e-12 {
		t.Fatalf("std %g, want %g", std, want)
	}
}

func TestSampleReservoirKeepsSortedPerPairSequences(t *testing.T) {
	acc := newNullAccumulator(1, true)
	// Insert out of order; retrieval must be ascending.
	for i, v := range []int64{9, 1, 5, 5, 3} {
		mergeTrial(t, acc, i, v)
	}

	got := acc.pairSamples(0)
	want := []float64{1, 3, 5, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("samples %v, want %v", got, want)
		}
	}

	ge, le := acc.extremes(0, 5)
	if ge != 3 || le != 4 {
		t.Fatalf("extremes(5): ge=%d le=%d, want 3 and 4", ge, le)
	}
}

func TestScoreAllEmpiricalPValue(t *testing.T) {
	acc := newNullAccumulator(1, true)
	// Null samples 0..9; observed 9 is the maximum.
	for i := int64(0); i < 10; i++ {
		mergeTrial(t, acc, int(i), i)
	}
	obs := NewPairMatrix(1)
	obs.cells[0] = 9

	scores := scoreAll(obs, acc)
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	s := scores[0]

	// ge=1 (the 9 itself), le=10: p = 2*min(2,11)/11.
	if want := 4.0 / 11.0; math.Abs(s.PValue-want) > 1e-15 {
		t.Fatalf("p-value %g, want %g", s.PValue, want)
	}
	if s.ZScore <= 0 {
		t.Fatalf("observed maximum must score as enrichment, got z=%g", s.ZScore)
	}
}

func TestScoreAllMomentsModeReportsNaNPValue(t *testing.T) {
	acc := newNullAccumulator(1, false)
	for i, v := range []int64{1, 2, 3} {
		mergeTrial(t, acc, i, v)
	}
	obs := NewPairMatrix(1)
	obs.cells[0] = 2

	s := scoreAll(obs, acc)[0]
	if !math.IsNaN(s.PValue) {
		t.Fatalf("p-value %g, want NaN without retained samples", s.PValue)
	}
	if s.NullMean != 2 {
		t.Fatalf("null mean %g, want 2", s.NullMean)
	}
	if s.ZScore != 0 {
		t.Fatalf("z %g, want 0 for observed == mean", s.ZScore)
	}
}

func TestScoreAllZeroVarianceSentinel(t *testing.T) {
	for _, keepSamples := range []bool{false, true} {
		acc := newNullAccumulator(1, keepSamples)
		for i := 0; i < 5; i++ {
			mergeTrial(t, acc, i, 3)
		}
		obs := NewPairMatrix(1)
		obs.cells[0] = 3

		s := scoreAll(obs, acc)[0]
		if s.NullStd != 0 {
			t.Fatalf("samples=%v: std %g, want 0", keepSamples, s.NullStd)
		}
		if !math.IsNaN(s.ZScore) {
			t.Fatalf("samples=%v: z %g, want NaN sentinel", keepSamples, s.ZScore)
		}
	}
}

func TestMergeDetectsOverflow(t *testing.T) {
	acc := newNullAccumulator(1, false)
	m := NewPairMatrix(1)
	m.cells[0] = maxSafeCount + 1
	if err := acc.merge(0, m); err == nil {
		t.Fatal("oversized count must fail, not silently wrap")
	}
}
