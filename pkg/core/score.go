package core

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// --- Enrichment scoring ---

// PairScore is the final verdict for one unordered label pair. A positive
// ZScore means the two labels are adjacent more often than the null
// expects (enrichment), a negative one less often (depletion).
//
// ZScore is NaN when the null distribution has zero standard deviation for
// the pair; NaN is the documented sentinel for "undefined", never an
// error. PValue is NaN when the run kept only moments.
type PairScore struct {
	A, B     LabelCode
	Observed int64
	NullMean float64
	NullStd  float64
	ZScore   float64
	PValue   float64
}

// scoreAll compares the observed matrix against the accumulated null
// distribution and emits one PairScore per unordered label pair, diagonal
// included, ordered by (A, B) label code.
//
// When samples were retained, the null mean and deviation come from the
// sorted sample sequence, and a two-sided empirical p-value is computed
// with the (T+1)-denominator small-sample correction:
//
//	p = min(1, 2*min(ge+1, le+1)/(T+1))
//
// where ge and le count permuted values at least / at most as large as the
// observed one. Zero-edge graphs and all-constant nulls resolve to the
// NaN z sentinel with p = 1, not to an error.
func scoreAll(observed *PairMatrix, acc *nullAccumulator) []PairScore {
	L := observed.Labels()
	scores := make([]PairScore, 0, observed.NumPairs())
	trials := acc.completed()

	for a := 0; a < L; a++ {
		for b := a; b < L; b++ {
			pair := observed.PairIndex(LabelCode(a), LabelCode(b))
			obs := observed.Cell(pair)

			var mean, std, p float64
			if acc.hasSamples() {
				samples := acc.pairSamples(pair)
				mean = stat.Mean(samples, nil)
				std = stat.PopStdDev(samples, nil)
				ge, le := acc.extremes(pair, obs)
				tail := math.Min(float64(ge+1), float64(le+1)) / float64(trials+1)
				p = math.Min(1, 2*tail)
			} else {
				mean, std = acc.moments(pair)
				p = math.NaN()
			}

			z := math.NaN()
			if std > 0 {
				z = (float64(obs) - mean) / std
			}

			scores = append(scores, PairScore{
				A:        LabelCode(a),
				B:        LabelCode(b),
				Observed: obs,
				NullMean: mean,
				NullStd:  std,
				ZScore:   z,
				PValue:   p,
			})
		}
	}
	return scores
}
