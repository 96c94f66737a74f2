package presage

import (
	"context"
	"fmt"

	"github.com/crimson-sun/presage/internal/artifact"
	"github.com/crimson-sun/presage/internal/dataset/split"
	"github.com/crimson-sun/presage/internal/dataset/vocab"
	"github.com/crimson-sun/presage/internal/dataset/window"
	"github.com/crimson-sun/presage/internal/eval"
	"github.com/crimson-sun/presage/internal/model"
	"github.com/crimson-sun/presage/internal/predict"
	"github.com/crimson-sun/presage/internal/source"
)

// Scorer is the opaque predictor: given a dense-index context of WindowSize
// tokens, it returns one score per natural class. Implementations must be
// safe for sequential reuse; Evaluate never calls Score concurrently.
type Scorer interface {
	Score(context []int) []float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(context []int) []float64

// Score calls f.
func (f ScorerFunc) Score(context []int) []float64 { return f(context) }

// Dataset is a prepared windowed dataset: vocabulary, train prefix and
// validation suffix. Create one with Prepare or Load; it is immutable.
type Dataset struct {
	vocab      *vocab.Vocabulary
	train      []window.Window
	validation []window.Window
	opts       options
}

// Prepare builds a dataset from raw events: entity identifiers are
// canonicalized and assigned sorted vocabulary indices, sessions are
// ordered and windowed, and the window sequence is split into train and
// validation. The result is a pure function of the events and options.
func Prepare(events []Event, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateOptions(o); err != nil {
		return nil, err
	}

	internal := make([]model.Event, len(events))
	tokens := make([]string, len(events))
	for i, e := range events {
		id := source.Canonical(e.EntityID)
		internal[i] = model.Event{
			SessionID: e.SessionID,
			EntityID:  id,
			Timestamp: e.Timestamp,
			UserID:    e.UserID,
		}
		tokens[i] = id
	}

	v := vocab.Build(tokens)
	sessions := window.Sessionize(internal)
	windows, err := window.SlideParallel(sessions, v, o.windowSize, o.workers)
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	train, validation, err := split.Split(windows, o.trainFraction)
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	return &Dataset{vocab: v, train: train, validation: validation, opts: o}, nil
}

// Load reads a dataset previously written with Save (or by the presage
// prepare command).
func Load(dir string, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	ds, err := artifact.LoadDataset(dir)
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	if ds.WindowSize > 0 {
		o.windowSize = ds.WindowSize
	}
	if err := validateOptions(o); err != nil {
		return nil, err
	}

	train, err := tokenWindows(ds.Vocab, ds.TrainContexts, ds.TrainTargets)
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	validation, err := tokenWindows(ds.Vocab, ds.ValContexts, ds.ValTargets)
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	return &Dataset{vocab: ds.Vocab, train: train, validation: validation, opts: o}, nil
}

// Save writes the dataset artifacts (vocab.json and the four NPY arrays)
// into dir.
func (d *Dataset) Save(dir string) error {
	if err := artifact.SaveDataset(dir, d.vocab, d.train, d.validation, d.opts.windowSize); err != nil {
		return fmt.Errorf("presage: %w", err)
	}
	return nil
}

// Classes returns the number of natural classes (distinct entities).
func (d *Dataset) Classes() int { return d.vocab.NaturalCount() }

// WindowSize returns the context length of every window.
func (d *Dataset) WindowSize() int { return d.opts.windowSize }

// Vocabulary returns the natural entity identifiers in index order.
func (d *Dataset) Vocabulary() []string { return d.vocab.Tokens() }

// TrainWindows returns the train prefix in dense-index form.
func (d *Dataset) TrainWindows() []Window { return d.dense(d.train) }

// ValidationWindows returns the validation suffix in dense-index form.
func (d *Dataset) ValidationWindows() []Window { return d.dense(d.validation) }

// Evaluate scores the validation windows with the given scorer and returns
// Precision/Recall/F1@K for the configured K values plus top-1 accuracy.
// Options given here override the ones the dataset was built with for this
// call only, so a different K set needs no second Prepare.
func (d *Dataset) Evaluate(ctx context.Context, s Scorer, opts ...Option) (Metrics, error) {
	o := d.opts
	for _, opt := range opts {
		opt(&o)
	}
	if err := validateOptions(o); err != nil {
		return nil, err
	}
	contexts, targets := denseSplit(d.vocab, d.validation)
	results, err := eval.Evaluate(ctx, &scorerSource{scorer: s, classes: d.Classes()}, contexts, targets, eval.Config{
		Ks:        o.ks,
		BatchSize: o.batchSize,
		Workers:   o.workers,
	})
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	return Metrics(results), nil
}

// MarkovScorer trains a first-order transition baseline on the train split.
func (d *Dataset) MarkovScorer() (Scorer, error) {
	contexts, targets := denseSplit(d.vocab, d.train)
	m, err := predict.NewMarkov(contexts, targets, d.Classes())
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	return batchAdapter(m), nil
}

// PopularityScorer trains a target-frequency baseline on the train split.
func (d *Dataset) PopularityScorer() (Scorer, error) {
	_, targets := denseSplit(d.vocab, d.train)
	p, err := predict.NewPopularity(targets, d.Classes())
	if err != nil {
		return nil, fmt.Errorf("presage: %w", err)
	}
	return batchAdapter(p), nil
}

// scorerSource adapts the public one-row Scorer to the evaluator's batched
// score source.
type scorerSource struct {
	scorer  Scorer
	classes int
}

func (s *scorerSource) Scores(ctx context.Context, contexts [][]int) ([][]float64, error) {
	out := make([][]float64, len(contexts))
	for i, c := range contexts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = s.scorer.Score(c)
	}
	return out, nil
}

func (s *scorerSource) Classes() int { return s.classes }

// batchAdapter exposes an internal batched score source as a public
// one-row Scorer. The internal baselines cannot fail on a single row.
func batchAdapter(src eval.ScoreSource) Scorer {
	return ScorerFunc(func(c []int) []float64 {
		rows, err := src.Scores(context.Background(), [][]int{c})
		if err != nil || len(rows) != 1 {
			return make([]float64, src.Classes())
		}
		return rows[0]
	})
}

func validateOptions(o options) error {
	if o.windowSize < 1 {
		return fmt.Errorf("presage: window size must be at least 1, got %d", o.windowSize)
	}
	if o.trainFraction < 0 || o.trainFraction > 1 {
		return fmt.Errorf("presage: train fraction must be in [0, 1], got %v", o.trainFraction)
	}
	for _, k := range o.ks {
		if k < 1 {
			return fmt.Errorf("presage: k values must all be at least 1, got %d", k)
		}
	}
	if o.batchSize < 1 {
		return fmt.Errorf("presage: batch size must be at least 1, got %d", o.batchSize)
	}
	return nil
}

func (d *Dataset) dense(ws []window.Window) []Window {
	out := make([]Window, len(ws))
	for i, w := range ws {
		ctx := make([]int, len(w.Context))
		for j, tok := range w.Context {
			ctx[j] = d.vocab.Index(tok)
		}
		out[i] = Window{Context: ctx, Target: d.vocab.Index(w.Target)}
	}
	return out
}

func denseSplit(v *vocab.Vocabulary, ws []window.Window) (contexts [][]int, targets []int) {
	contexts = make([][]int, len(ws))
	targets = make([]int, len(ws))
	for i, w := range ws {
		ctx := make([]int, len(w.Context))
		for j, tok := range w.Context {
			ctx[j] = v.Index(tok)
		}
		contexts[i] = ctx
		targets[i] = v.Index(w.Target)
	}
	return contexts, targets
}

func tokenWindows(v *vocab.Vocabulary, contexts [][]int, targets []int) ([]window.Window, error) {
	ws := make([]window.Window, len(contexts))
	for i, c := range contexts {
		toks := make([]vocab.Token, len(c))
		for j, idx := range c {
			tok, err := v.TokenAt(idx)
			if err != nil {
				return nil, err
			}
			toks[j] = tok
		}
		target, err := v.TokenAt(targets[i])
		if err != nil {
			return nil, err
		}
		ws[i] = window.Window{Context: toks, Target: target}
	}
	return ws, nil
}
