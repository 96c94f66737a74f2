// Package predict provides score sources for the evaluator: an adapter
// around a trained ONNX next-entity model, and two statistical baselines
// (first-order Markov transitions and global popularity) trained from the
// dataset's own train split. The baselines make evaluation runnable with no
// model file and anchor what a trained model has to beat.
//
// Every scorer produces, per context, a vector of scores over the natural
// classes only; reserved PAD/UNK rows never reach the evaluator.
package predict

import "fmt"

// Names of the scorer providers the pipeline can construct.
const (
	ProviderONNX       = "onnx"
	ProviderMarkov     = "markov"
	ProviderPopularity = "popularity"
)

// Providers lists the available scorer provider names.
func Providers() []string {
	return []string{ProviderONNX, ProviderMarkov, ProviderPopularity}
}

// popularityScores tallies target frequencies into a normalized
// distribution over classes. Targets outside [0, classes), reserved
// indices from cross-dataset windows, are skipped; with no usable
// observations at all, the distribution is uniform.
func popularityScores(targets []int, classes int) []float64 {
	counts := make([]float64, classes)
	total := 0.0
	for _, t := range targets {
		if t >= 0 && t < classes {
			counts[t]++
			total++
		}
	}
	if total == 0 {
		uniform := make([]float64, classes)
		if classes > 0 {
			p := 1.0 / float64(classes)
			for i := range uniform {
				uniform[i] = p
			}
		}
		return uniform
	}
	for i := range counts {
		counts[i] /= total
	}
	return counts
}

func validateClasses(classes int) error {
	if classes < 1 {
		return fmt.Errorf("predict: class count must be at least 1, got %d", classes)
	}
	return nil
}
