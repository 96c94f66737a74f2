// Package presage turns per-session event logs into sliding-window
// next-entity training data and evaluates ranked predictions with top-K
// metrics.
//
// Quick start:
//
//	ds, err := presage.Prepare(events,
//	    presage.WithWindowSize(5),
//	    presage.WithTrainFraction(0.8),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	scorer, _ := ds.MarkovScorer()
//	metrics, err := ds.Evaluate(ctx, scorer)
//	fmt.Println(metrics["precision@3"])
//
// Any predictor plugs in through the Scorer interface; ScorerFunc adapts a
// plain scoring function. The windowing and split are fully deterministic:
// the same events and options always produce the same dataset.
package presage
