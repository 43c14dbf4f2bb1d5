package core

import (
	"context"
	"errors"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
)

// --- Permutation engine ---

// ErrBadTrials is returned when the requested trial count is below 1.
var ErrBadTrials = errors.New("permutation trial count must be at least 1")

// permuteParams carries the resolved permutation-phase settings. The base
// seed is always concrete at this level; nondeterministic runs are given a
// time-derived seed by the caller.
type permuteParams struct {
	trials  int
	seed    int64
	workers int
}

// runPermutations executes the permutation trials with a fixed-size worker
// pool and folds every completed trial into acc.
//
// Determinism: trial t always shuffles with its own generator seeded
// seed+t, so the per-trial permutation is a pure function of (seed, t) no
// matter which worker picks the trial up. Combined with the accumulator's
// order-independent merge this makes results bit-identical for any worker
// count.
//
// Cancellation is cooperative and checked between trials only. Completed
// trials stay in acc; the caller reads the reduced count from it. A trial
// failure (count overflow) is fatal and surfaces as the returned error.
func runPermutations(ctx context.Context, g *Graph, base []LabelCode, labels int, p permuteParams, acc *nullAccumulator) error {
	workers := p.workers
	if workers <= 0 || workers > runtime.NumCPU() {
		// Worker count is a hint: degrade to available parallelism.
		workers = runtime.NumCPU()
	}
	if workers > p.trials {
		workers = p.trials
	}

	var (
		next     atomic.Int64
		firstErr error
		errOnce  sync.Once
		failed   atomic.Bool
		wg       sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Per-worker private state, reused across its trials.
			codes := make([]LabelCode, len(base))
			counts := NewPairMatrix(labels)

			for {
				trial := int(next.Add(1) - 1)
				if trial >= p.trials || failed.Load() {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
				}

				// A shuffle of the observed codes: the label multiset is
				// preserved exactly, only its spatial assignment moves.
				rng := rand.New(rand.NewSource(p.seed + int64(trial)))
				copy(codes, base)
				rng.Shuffle(len(codes), func(i, j int) {
					codes[i], codes[j] = codes[j], codes[i]
				})

				countComposition(g, codes, counts)
				if err := acc.merge(trial, counts); err != nil {
					errOnce.Do(func() { firstErr = err })
					failed.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()
	return firstErr
}
