package core

// --- Composition counting ---

// PairMatrix is the composition count matrix: one int64 cell per unordered
// label pair, stored as the upper triangle (a <= b) of an L x L symmetric
// matrix, diagonal included.
//
// Counting uses ordered-pair semantics: a same-label edge contributes 2 to
// its diagonal cell (one per orientation) while a cross-label edge
// contributes 1 to its unordered cell. Under this convention
//
//	sum(diagonal) + 2*sum(off-diagonal) == Graph.DegreeSum()
//
// holds exactly for every labeling, which is the count-conservation
// invariant the tests pin down.
type PairMatrix struct {
	labels int
	cells  []int64
}

// NewPairMatrix returns a zeroed matrix over labels distinct labels.
func NewPairMatrix(labels int) *PairMatrix {
	return &PairMatrix{
		labels: labels,
		cells:  make([]int64, labels*(labels+1)/2),
	}
}

// PairIndex maps an unordered label pair to its cell index. Arguments may
// be given in either order.
func (m *PairMatrix) PairIndex(a, b LabelCode) int {
	if a > b {
		a, b = b, a
	}
	ai, bi := int(a), int(b)
	return ai*m.labels - ai*(ai-1)/2 + (bi - ai)
}

// At returns the count for an unordered label pair.
func (m *PairMatrix) At(a, b LabelCode) int64 { return m.cells[m.PairIndex(a, b)] }

// Labels returns the number of distinct labels L.
func (m *PairMatrix) Labels() int { return m.labels }

// NumPairs returns the number of cells, L*(L+1)/2.
func (m *PairMatrix) NumPairs() int { return len(m.cells) }

// Cell returns the count at a flat cell index.
func (m *PairMatrix) Cell(i int) int64 { return m.cells[i] }

// Total returns sum(diagonal) + 2*sum(off-diagonal), the directed
// adjacency mass of the matrix.
func (m *PairMatrix) Total() int64 {
	var total int64
	for a := 0; a < m.labels; a++ {
		for b := a; b < m.labels; b++ {
			c := m.cells[m.PairIndex(LabelCode(a), LabelCode(b))]
			if a == b {
				total += c
			} else {
				total += 2 * c
			}
		}
	}
	return total
}

// reset zeroes every cell so the matrix can be reused across trials.
func (m *PairMatrix) reset() {
	for i := range m.cells {
		m.cells[i] = 0
	}
}

// countComposition tabulates the composition counts of one labeling
// against the fixed graph, overwriting into. It runs in O(E) and carries
// no state between calls, so the same graph serves the observed labeling
// and every permuted one.
func countComposition(g *Graph, codes []LabelCode, into *PairMatrix) {
	into.reset()
	for _, e := range g.edges {
		a := codes[e[0]]
		b := codes[e[1]]
		if a == b {
			into.cells[into.PairIndex(a, a)] += 2
		} else {
			into.cells[into.PairIndex(a, b)]++
		}
	}
}
