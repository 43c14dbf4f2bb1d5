package core

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tidwall/btree"
)

// --- Null distribution accumulator ---

// ErrCountOverflow is returned when folding a trial into the accumulator
// would overflow the exact integer moments. The whole permutation phase
// aborts on it: silently dropping the trial would bias the null
// distribution.
var ErrCountOverflow = errors.New("composition count too large for exact moment accumulation")

// maxSafeCount bounds a single cell count so that count*count fits in an
// int64 (floor(sqrt(MaxInt64))).
const maxSafeCount = 3037000499

// sampleKey orders retained per-trial counts by (pair, count, trial). The
// trial component makes every key unique, so the tree behaves as a sorted
// multiset of counts per pair.
type sampleKey struct {
	pair  int32
	count int64
	trial int32
}

func sampleLess(a, b sampleKey) bool {
	if a.pair != b.pair {
		return a.pair < b.pair
	}
	if a.count != b.count {
		return a.count < b.count
	}
	return a.trial < b.trial
}

// nullAccumulator folds per-trial composition counts into the running null
// distribution. It keeps exact integer moments per pair (trial count, sum,
// sum of squares), and optionally every per-trial sample in a sorted
// B-tree for empirical p-values.
//
// Both representations are merged through operations whose result is
// independent of merge order: integer addition for the moments, set
// insertion for the samples. That order-independence is what makes the
// aggregate bit-identical for any worker count and scheduling.
type nullAccumulator struct {
	mu     sync.Mutex
	trials int64
	sum    []int64
	sumSq  []int64

	// samples is nil when only moments are kept. Sorted by (pair, count,
	// trial); per-pair in-order traversal yields the sorted sample
	// sequence directly.
	samples *btree.BTreeG[sampleKey]
}

func newNullAccumulator(pairs int, keepSamples bool) *nullAccumulator {
	acc := &nullAccumulator{
		sum:   make([]int64, pairs),
		sumSq: make([]int64, pairs),
	}
	if keepSamples {
		acc.samples = btree.NewBTreeG(sampleLess)
	}
	return acc
}

// merge folds one completed trial into the accumulator. Safe for
// concurrent use; each call is one atomic combine step.
func (acc *nullAccumulator) merge(trial int, counts *PairMatrix) error {
	acc.mu.Lock()
	defer acc.mu.Unlock()

	for i, c := range counts.cells {
		if c > maxSafeCount {
			return fmt.Errorf("%w (cell %d, count %d)", ErrCountOverflow, i, c)
		}
		sq := c * c
		if acc.sum[i] > math.MaxInt64-c || acc.sumSq[i] > math.MaxInt64-sq {
			return fmt.Errorf("%w (cell %d after %d trials)", ErrCountOverflow, i, acc.trials)
		}
		acc.sum[i] += c
		acc.sumSq[i] += sq
	}
	acc.trials++

	if acc.samples != nil {
		for i, c := range counts.cells {
			acc.samples.Set(sampleKey{pair: int32(i), count: c, trial: int32(trial)})
		}
	}
	return nil
}

// completed returns the number of trials folded in so far.
func (acc *nullAccumulator) completed() int64 {
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.trials
}

// hasSamples reports whether per-trial samples were retained.
func (acc *nullAccumulator) hasSamples() bool { return acc.samples != nil }

// moments returns the exact null mean and population standard deviation of
// one pair, derived from the integer sums. With zero trials both are NaN.
func (acc *nullAccumulator) moments(pair int) (mean, std float64) {
	n := float64(acc.trials)
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	mean = float64(acc.sum[pair]) / n
	variance := float64(acc.sumSq[pair])/n - mean*mean
	if variance < 0 {
		variance = 0 // float rounding on constant sequences
	}
	return mean, math.Sqrt(variance)
}

// pairSamples returns the retained counts of one pair in ascending order.
func (acc *nullAccumulator) pairSamples(pair int) []float64 {
	if acc.samples == nil {
		return nil
	}
	out := make([]float64, 0, acc.trials)
	pivot := sampleKey{pair: int32(pair), count: math.MinInt64, trial: math.MinInt32}
	acc.samples.Ascend(pivot, func(item sampleKey) bool {
		if item.pair != int32(pair) {
			return false
		}
		out = append(out, float64(item.count))
		return true
	})
	return out
}

// extremes returns how many retained samples of the pair are >= and <= the
// observed count.
func (acc *nullAccumulator) extremes(pair int, observed int64) (ge, le int64) {
	if acc.samples == nil {
		return 0, 0
	}
	var total, gt int64
	pivot := sampleKey{pair: int32(pair), count: math.MinInt64, trial: math.MinInt32}
	acc.samples.Ascend(pivot, func(item sampleKey) bool {
		if item.pair != int32(pair) {
			return false
		}
		total++
		if item.count >= observed {
			ge++
		}
		if item.count > observed {
			gt++
		}
		return true
	})
	le = total - gt
	return ge, le
}
