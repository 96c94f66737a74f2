package predict

import "context"

// Popularity scores every context with the same global target-frequency
// distribution. It ignores the context entirely, which is exactly what
// makes it a useful floor: any model worth shipping must beat it.
type Popularity struct {
	dist    []float64
	classes int
}

// NewPopularity trains the baseline from the train split's targets.
func NewPopularity(targets []int, classes int) (*Popularity, error) {
	if err := validateClasses(classes); err != nil {
		return nil, err
	}
	return &Popularity{dist: popularityScores(targets, classes), classes: classes}, nil
}

// Scores returns a copy of the global distribution per context.
func (p *Popularity) Scores(_ context.Context, contexts [][]int) ([][]float64, error) {
	out := make([][]float64, len(contexts))
	for i := range contexts {
		row := make([]float64, p.classes)
		copy(row, p.dist)
		out[i] = row
	}
	return out, nil
}

// Classes returns the natural class count.
func (p *Popularity) Classes() int { return p.classes }
