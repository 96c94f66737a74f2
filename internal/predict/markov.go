package predict

import "context"

// smoothingAlpha is the Laplace smoothing added to every transition count
// so unseen transitions keep nonzero probability.
const smoothingAlpha = 0.1

// Markov is a first-order transition baseline: the score of a class is the
// smoothed probability of moving there from the context's last token.
// Contexts whose last token was never observed as a transition origin fall
// back to the popularity distribution.
type Markov struct {
	transitions map[int][]float64 // last token -> raw target counts
	totals      map[int]float64
	fallback    []float64
	classes     int
}

// NewMarkov trains the baseline from the train split. Each (context,
// target) pair contributes one transition count from the context's last
// token to the target; pairs involving reserved indices are skipped.
func NewMarkov(contexts [][]int, targets []int, classes int) (*Markov, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	m := &Markov{
		transitions: make(map[int][]float64),
		totals:      make(map[int]float64),
		fallback:    popularityScores(targets, classes),
		classes:     classes,
	}
	for i, ctx := range contexts {
		if len(ctx) == 0 || i >= len(targets) {
			continue
		}
		last := ctx[len(ctx)-1]
		target := targets[i]
		if last < 0 || last >= classes || target < 0 || target >= classes {
			continue
		}
		row := m.transitions[last]
		if row == nil {
			row = make([]float64, classes)
			m.transitions[last] = row
		}
		row[target]++
		m.totals[last]++
	}
	return m, nil
}

// Scores computes the smoothed transition distribution for each context.
func (m *Markov) Scores(_ context.Context, contexts [][]int) ([][]float64, error) {
	out := make([][]float64, len(contexts))
	for i, ctx := range contexts {
		out[i] = m.score(ctx)
	}
	return out, nil
}

func (m *Markov) score(ctx []int) []float64 {
	row := make([]float64, m.classes)
	if len(ctx) == 0 {
		copy(row, m.fallback)
		return row
	}
	last := ctx[len(ctx)-1]
	counts, ok := m.transitions[last]
	if !ok {
		copy(row, m.fallback)
		return row
	}
	denom := m.totals[last] + smoothingAlpha*float64(m.classes)
	for j := range row {
		row[j] = (counts[j] + smoothingAlpha) / denom
	}
	return row
}

// Classes returns the natural class count.
func (m *Markov) Classes() int { return m.classes }
