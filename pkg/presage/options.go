package presage

type options struct {
	windowSize    int
	trainFraction float64
	workers       int
	ks            []int
	batchSize     int
}

// Option configures Prepare and Evaluate behavior.
type Option func(*options)

// WithWindowSize sets the sliding-window context size. Default: 5.
func WithWindowSize(w int) Option {
	return func(o *options) { o.windowSize = w }
}

// WithTrainFraction sets the fraction of windows assigned to the train
// prefix. Default: 0.8.
func WithTrainFraction(f float64) Option {
	return func(o *options) { o.trainFraction = f }
}

// WithWorkers sets how many sessions are windowed (and rows ranked)
// concurrently. Default: 1, fully sequential. The output is identical
// either way.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithKValues sets the K values evaluated. Default: 1, 3, 5.
func WithKValues(ks ...int) Option {
	return func(o *options) { o.ks = ks }
}

// WithBatchSize sets how many contexts each Scorer call receives during
// evaluation. Default: 64.
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

func defaultOptions() options {
	return options{
		windowSize:    5,
		trainFraction: 0.8,
		workers:       1,
		ks:            []int{1, 3, 5},
		batchSize:     64,
	}
}
