// Package split partitions an ordered window dataset into a train prefix
// and a validation suffix.
//
// There is no shuffling and no session stratification: a session whose
// windows straddle the boundary appears partially in both sets. That is a
// deliberate trade of potential session-level leakage for determinism and
// reproducibility, and callers must not "fix" it.
package split

import (
	"fmt"
	"math"

	"github.com/crimson-sun/presage/internal/dataset/window"
)

// ErrFraction is returned when the train fraction falls outside [0, 1].
var ErrFraction = fmt.Errorf("split: train fraction must be in [0, 1]")

// Split cuts the dataset at floor(N × fraction): the first splitIndex
// windows are the train set, the rest validation. Both halves share the
// backing array of ws; together they reconstruct it exactly.
func Split(ws []window.Window, fraction float64) (train, validation []window.Window, err error) {
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrFraction, fraction)
	}
	idx := int(math.Floor(float64(len(ws)) * fraction))
	return ws[:idx], ws[idx:], nil
}
