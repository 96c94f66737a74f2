package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/crimson-sun/presage/internal/config"
	"github.com/crimson-sun/presage/internal/logging"
	"github.com/crimson-sun/presage/internal/pipeline"

	// Register source implementations.
	_ "github.com/crimson-sun/presage/internal/source/csvfile"
	_ "github.com/crimson-sun/presage/internal/source/jsonfile"
	_ "github.com/crimson-sun/presage/internal/source/redislist"
	_ "github.com/crimson-sun/presage/internal/source/synthetic"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "prepare":
		err = runPrepare(os.Args[2:])
	case "evaluate":
		err = runEvaluate(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "presage: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "presage: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: presage <command> [flags]

Commands:
  prepare   turn a clickstream log into windowed training data
  evaluate  score a predictor's validation output with top-K metrics

Run 'presage <command> -h' for command flags.
`)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)
		cancel()
	}()
	return ctx, cancel
}

func runPrepare(args []string) error {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	configPath := fs.String("config", "", "path to presage.yml (default: ./presage.yml when present)")
	sourceFlag := fs.String("source", "", "source provider (csvfile, jsonfile, redislist, synthetic)")
	input := fs.String("input", "", "input file for csvfile/jsonfile sources")
	output := fs.String("output", "", "output directory for dataset artifacts")
	windowSize := fs.Int("window", 0, "sliding window context size")
	trainSplit := fs.Float64("train-split", 0, "fraction of windows used for training")
	mockSessions := fs.Int("mock-sessions", 0, "synthetic sessions when no input file")
	mockRoutes := fs.Int("mock-routes", 0, "synthetic route count")
	seed := fs.Int64("seed", 0, "synthetic generator seed")
	workers := fs.Int("workers", 0, "windowing worker count")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	// Flags set on the command line win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source.Provider = *sourceFlag
		case "input":
			cfg.Source.Path = *input
		case "output":
			cfg.Prepare.OutputDir = *output
		case "window":
			cfg.Prepare.WindowSize = *windowSize
		case "train-split":
			cfg.Prepare.TrainSplit = *trainSplit
		case "mock-sessions":
			cfg.Source.Sessions = *mockSessions
		case "mock-routes":
			cfg.Source.Routes = *mockRoutes
		case "seed":
			cfg.Source.Seed = *seed
		case "workers":
			cfg.Prepare.Workers = *workers
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})

	// An explicit input file implies a file source unless one was chosen.
	if cfg.Source.Path != "" && cfg.Source.Provider == "synthetic" {
		cfg.Source.Provider = impliedSource(cfg.Source.Path)
	}

	logging.Init(false, logging.ParseLevel(cfg.Logging.Level))
	ctx, cancel := signalContext()
	defer cancel()

	return pipeline.New(cfg).Prepare(ctx)
}

// impliedSource picks a file source provider from the input's extension:
// .csv means csvfile, anything else is treated as JSON (array or NDJSON).
func impliedSource(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csvfile"
	}
	return "jsonfile"
}

func runEvaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to presage.yml (default: ./presage.yml when present)")
	dataDir := fs.String("data", "", "directory holding the prepared dataset")
	scorer := fs.String("scorer", "", "scorer provider (onnx, markov, popularity)")
	model := fs.String("model", "", "ONNX model path for the onnx scorer")
	ks := fs.String("k", "", "comma-separated K values, e.g. 1,3,5")
	batch := fs.Int("batch", 0, "scoring batch size")
	workers := fs.Int("workers", 0, "ranking worker count")
	output := fs.String("output", "", "path for the evaluation results artifact")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Evaluate.DataDir = *dataDir
		case "scorer":
			cfg.Evaluate.Scorer = *scorer
		case "model":
			cfg.Evaluate.ModelPath = *model
		case "k":
			parsed, err := config.ParseKs(*ks)
			if err != nil {
				flagErr = fmt.Errorf("config: -k: %w", err)
				return
			}
			cfg.Evaluate.Ks = parsed
		case "batch":
			cfg.Evaluate.BatchSize = *batch
		case "workers":
			cfg.Evaluate.Workers = *workers
		case "output":
			cfg.Evaluate.Output = *output
		case "log-level":
			cfg.Logging.Level = *logLevel
		}
	})
	if flagErr != nil {
		return flagErr
	}

	// Metrics go to stdout, so logs use the JSON handler on stderr.
	logging.Init(true, logging.ParseLevel(cfg.Logging.Level))
	ctx, cancel := signalContext()
	defer cancel()

	results, err := pipeline.New(cfg).Evaluate(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-14s %.4f\n", name, results[name])
	}
	return nil
}
