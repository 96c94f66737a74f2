// Package pipeline wires the stages together: source, vocabulary,
// windowing, split and artifacts in prepare mode; artifacts, scorer and
// ranking metrics in evaluate mode. Both modes are single-shot batch runs
// under a cancellable context.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/presage/internal/artifact"
	"github.com/crimson-sun/presage/internal/config"
	"github.com/crimson-sun/presage/internal/dataset/split"
	"github.com/crimson-sun/presage/internal/dataset/vocab"
	"github.com/crimson-sun/presage/internal/dataset/window"
	"github.com/crimson-sun/presage/internal/eval"
	"github.com/crimson-sun/presage/internal/logging"
	"github.com/crimson-sun/presage/internal/predict"
	"github.com/crimson-sun/presage/internal/source"
)

// Pipeline runs the prepare and evaluate stages for one configuration.
type Pipeline struct {
	cfg config.Config
}

// New creates a Pipeline. The configuration is validated by each run mode
// before any work starts.
func New(cfg config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// Prepare turns the configured event log into the windowed dataset
// artifacts: vocab.json plus the four NPY arrays in the output directory.
func (p *Pipeline) Prepare(ctx context.Context) error {
	if err := p.cfg.Validate(); err != nil {
		return err
	}
	start := time.Now()

	ctor, err := source.Get(p.cfg.Source.Provider)
	if err != nil {
		return fmt.Errorf("pipeline prepare: %w (available: %v)", err, source.Providers())
	}
	events, err := ctor().Load(ctx, sourceConfig(p.cfg.Source))
	if err != nil {
		return fmt.Errorf("pipeline prepare: %w", err)
	}
	slog.Info("events loaded",
		logging.KeyStage, "source",
		logging.KeySource, p.cfg.Source.Provider,
		logging.KeyEvents, len(events))

	sessions := window.Sessionize(events)
	tokens := make([]string, len(events))
	for i, e := range events {
		tokens[i] = e.EntityID
	}
	v := vocab.Build(tokens)
	slog.Info("vocabulary built",
		logging.KeyStage, "vocab",
		logging.KeySessions, len(sessions),
		logging.KeyVocab, v.Size())

	windows, err := window.SlideParallel(sessions, v, p.cfg.Prepare.WindowSize, p.cfg.Prepare.Workers)
	if err != nil {
		return fmt.Errorf("pipeline prepare: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	train, validation, err := split.Split(windows, p.cfg.Prepare.TrainSplit)
	if err != nil {
		return fmt.Errorf("pipeline prepare: %w", err)
	}
	slog.Info("windows split",
		logging.KeyStage, "split",
		logging.KeyWindows, len(windows),
		logging.KeyTrain, len(train),
		logging.KeyVal, len(validation))

	if err := artifact.SaveDataset(p.cfg.Prepare.OutputDir, v, train, validation, p.cfg.Prepare.WindowSize); err != nil {
		return fmt.Errorf("pipeline prepare: %w", err)
	}
	slog.Info("dataset written",
		logging.KeyStage, "artifact",
		"dir", p.cfg.Prepare.OutputDir,
		logging.KeyDuration, time.Since(start))
	return nil
}

// Evaluate loads the dataset artifacts, scores the validation windows with
// the configured scorer, writes the metrics artifact and returns the
// metrics.
func (p *Pipeline) Evaluate(ctx context.Context) (map[string]float64, error) {
	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	ds, err := artifact.LoadDataset(p.cfg.Evaluate.DataDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline evaluate: %w", err)
	}
	slog.Info("dataset loaded",
		logging.KeyStage, "artifact",
		logging.KeyClasses, ds.Vocab.NaturalCount(),
		logging.KeyTrain, len(ds.TrainContexts),
		logging.KeyVal, len(ds.ValContexts))

	scorer, err := p.newScorer(ds)
	if err != nil {
		return nil, fmt.Errorf("pipeline evaluate: %w", err)
	}
	if c, ok := scorer.(interface{ Close() error }); ok {
		defer c.Close()
	}

	results, err := eval.Evaluate(ctx, scorer, ds.ValContexts, ds.ValTargets, eval.Config{
		Ks:        p.cfg.Evaluate.Ks,
		BatchSize: p.cfg.Evaluate.BatchSize,
		Workers:   p.cfg.Evaluate.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline evaluate: %w", err)
	}
	slog.Info("evaluation complete",
		logging.KeyStage, "eval",
		logging.KeyScorer, p.cfg.Evaluate.Scorer,
		logging.KeySamples, len(ds.ValContexts),
		logging.KeyDuration, time.Since(start))

	if err := artifact.WriteMetrics(p.cfg.Evaluate.Output, results); err != nil {
		return nil, fmt.Errorf("pipeline evaluate: %w", err)
	}
	return results, nil
}

// newScorer builds the configured score source; the baselines train from
// the dataset's own train split.
func (p *Pipeline) newScorer(ds *artifact.Dataset) (eval.ScoreSource, error) {
	classes := ds.Vocab.NaturalCount()
	switch p.cfg.Evaluate.Scorer {
	case predict.ProviderONNX:
		return predict.NewONNX(p.cfg.Evaluate.ModelPath, ds.WindowSize, classes)
	case predict.ProviderMarkov:
		return predict.NewMarkov(ds.TrainContexts, ds.TrainTargets, classes)
	case predict.ProviderPopularity:
		return predict.NewPopularity(ds.TrainTargets, classes)
	default:
		return nil, fmt.Errorf("unknown scorer %q (available: %v)", p.cfg.Evaluate.Scorer, predict.Providers())
	}
}

func sourceConfig(c config.SourceConfig) source.Config {
	return source.Config{
		Provider:      c.Provider,
		Path:          c.Path,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisKey:      c.RedisKey,
		Sessions:      c.Sessions,
		Routes:        c.Routes,
		Seed:          c.Seed,
	}
}
