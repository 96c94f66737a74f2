// Package eval scores a predictor's ranked output against held-out targets
// with top-K ranking metrics.
//
// The regime is single-relevant-item: every sample has exactly one correct
// target, so Recall@K equals Precision@K by algebra (the per-sample recall
// denominator is always 1) and F1@K collapses to the same value whenever it
// is positive. These identities hold by construction and are asserted in
// tests; they do not generalize to multi-label prediction.
package eval

import (
	"context"
	"fmt"
	"sort"
)

// Sentinel errors for configuration problems detected before or during
// scoring. All are wrapped with the offending values.
var (
	ErrBadK          = fmt.Errorf("eval: k values must be at least 1")
	ErrShapeMismatch = fmt.Errorf("eval: score vector length disagrees with class count")
)

// ScoreSource is the opaque predictor: a capability that scores a batch of
// dense-index contexts over the natural classes. Implementations live in
// internal/predict; tests use synthetic sources.
type ScoreSource interface {
	// Scores returns one vector of Classes() scores per context.
	Scores(ctx context.Context, contexts [][]int) ([][]float64, error)
	// Classes is the natural class count C the scores range over.
	Classes() int
}

// Config tunes an evaluation run.
type Config struct {
	Ks        []int // requested K values, each ≥ 1
	BatchSize int   // contexts per Scores call; ≤ 0 means all at once
	Workers   int   // rows ranked concurrently per batch; ≤ 1 is sequential
}

// TopK returns the indices of the k highest-scoring classes in strictly
// descending score order, ties broken by ascending class index. k above
// len(scores) is clipped; the result is then simply all classes ranked.
func TopK(scores []float64, k int) []int {
	if k > len(scores) {
		k = len(scores)
	}
	if k < 1 {
		return nil
	}
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		if scores[idx[a]] != scores[idx[b]] {
			return scores[idx[a]] > scores[idx[b]]
		}
		return idx[a] < idx[b]
	})
	return idx[:k]
}

// rank returns the position the target occupies in the deterministic
// descending-score ordering, or -1 when the target is not a natural class
// (an out-of-range target can never be ranked and counts as a miss).
func rank(scores []float64, target int) int {
	if target < 0 || target >= len(scores) {
		return -1
	}
	r := 0
	ts := scores[target]
	for i, s := range scores {
		if s > ts || (s == ts && i < target) {
			r++
		}
	}
	return r
}

// Evaluate ranks every sample's scores and reports Precision/Recall/F1@K
// for each requested K plus top-1 accuracy, keyed "precision@K",
// "recall@K", "f1@K" and "accuracy".
//
// Zero samples is not an error: every metric is 0.0. K values above the
// class count are clipped to it. A score vector of the wrong length is a
// configuration error and aborts the run.
func Evaluate(ctx context.Context, src ScoreSource, contexts [][]int, targets []int, cfg Config) (map[string]float64, error) {
	if len(contexts) != len(targets) {
		return nil, fmt.Errorf("eval: %d contexts but %d targets", len(contexts), len(targets))
	}
	for _, k := range cfg.Ks {
		if k < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrBadK, k)
		}
	}

	classes := src.Classes()
	hits := make([]int, len(cfg.Ks)) // hit counts per requested K
	top1 := 0

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = len(contexts)
	}
	for start := 0; start < len(contexts); start += batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + batch
		if end > len(contexts) {
			end = len(contexts)
		}
		scores, err := src.Scores(ctx, contexts[start:end])
		if err != nil {
			return nil, fmt.Errorf("eval: scoring samples [%d, %d): %w", start, end, err)
		}
		if len(scores) != end-start {
			return nil, fmt.Errorf("eval: expected %d score vectors, got %d", end-start, len(scores))
		}

		ranks, err := rankRows(scores, targets[start:end], classes, cfg.Workers, start)
		if err != nil {
			return nil, err
		}
		for _, r := range ranks {
			if r < 0 {
				continue
			}
			if r == 0 {
				top1++
			}
			for i, k := range cfg.Ks {
				if k > classes {
					k = classes
				}
				if r < k {
					hits[i]++
				}
			}
		}
	}

	results := make(map[string]float64, 3*len(cfg.Ks)+1)
	m := len(targets)
	for i, k := range cfg.Ks {
		p := 0.0
		if m > 0 {
			p = float64(hits[i]) / float64(m)
		}
		// Recall@K equals Precision@K in the single-relevant-item regime,
		// and F1 of two equal values is that value (or 0 when both are 0).
		results[fmt.Sprintf("precision@%d", k)] = p
		results[fmt.Sprintf("recall@%d", k)] = p
		results[fmt.Sprintf("f1@%d", k)] = p
	}
	accuracy := 0.0
	if m > 0 {
		accuracy = float64(top1) / float64(m)
	}
	results["accuracy"] = accuracy
	return results, nil
}

// rankRows computes the target rank for every row of a score batch, in row
// order. Rows are independent, so with workers > 1 they are ranked
// concurrently and merged by row position.
func rankRows(scores [][]float64, targets []int, classes, workers, offset int) ([]int, error) {
	for i, row := range scores {
		if len(row) != classes {
			return nil, fmt.Errorf("%w: sample %d has %d scores, class count is %d",
				ErrShapeMismatch, offset+i, len(row), classes)
		}
	}

	ranks := make([]int, len(scores))
	if workers < 2 || len(scores) < 2 {
		for i, row := range scores {
			ranks[i] = rank(row, targets[i])
		}
		return ranks, nil
	}

	if workers > len(scores) {
		workers = len(scores)
	}
	jobs := make(chan int)
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				ranks[i] = rank(scores[i], targets[i])
			}
			done <- struct{}{}
		}()
	}
	for i := range scores {
		jobs <- i
	}
	close(jobs)
	for w := 0; w < workers; w++ {
		<-done
	}
	return ranks, nil
}
