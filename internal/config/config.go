// Package config assembles the pipeline configuration from defaults, an
// optional YAML file, and environment variables. Later layers win, and
// command-line flags applied by the caller win over all of them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the root of the YAML configuration file; settings nest under a
// presage: key.
type File struct {
	Presage Config `yaml:"presage"`
}

// Config holds all Presage configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Prepare  PrepareConfig  `yaml:"prepare"`
	Evaluate EvaluateConfig `yaml:"evaluate"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig selects and configures the event-log source.
type SourceConfig struct {
	Provider string `yaml:"provider"`
	Path     string `yaml:"path"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`

	Sessions int   `yaml:"sessions"`
	Routes   int   `yaml:"routes"`
	Seed     int64 `yaml:"seed"`
}

// PrepareConfig holds windowing and split settings.
type PrepareConfig struct {
	WindowSize int     `yaml:"window_size"`
	TrainSplit float64 `yaml:"train_split"`
	Workers    int     `yaml:"workers"`
	OutputDir  string  `yaml:"output_dir"`
}

// EvaluateConfig holds evaluation settings.
type EvaluateConfig struct {
	DataDir   string `yaml:"data_dir"`
	Scorer    string `yaml:"scorer"`
	ModelPath string `yaml:"model_path"`
	Ks        []int  `yaml:"k_values"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
	Output    string `yaml:"output"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration: synthetic input, window size
// 5 with an 80/20 split, K values 1, 3 and 5, and the Markov baseline
// scorer.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Provider: "synthetic",
			Sessions: 10000,
			Routes:   20,
		},
		Prepare: PrepareConfig{
			WindowSize: 5,
			TrainSplit: 0.8,
			Workers:    1,
			OutputDir:  "data",
		},
		Evaluate: EvaluateConfig{
			DataDir:   "data",
			Scorer:    "markov",
			ModelPath: "models/next_route.onnx",
			Ks:        []int{1, 3, 5},
			BatchSize: 64,
			Workers:   1,
			Output:    "results/evaluation_results.json",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is empty, presage.yml is used when present), then environment
// variables.
func Load(path string) (Config, error) {
	cfg := Default()

	optional := false
	if path == "" {
		path = "presage.yml"
		optional = true
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f File
		f.Presage = cfg
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg = f.Presage
	case os.IsNotExist(err) && optional:
		// No config file is fine; defaults plus env apply.
	default:
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays PRESAGE_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	cfg.Source.Provider = getenv("PRESAGE_SOURCE", cfg.Source.Provider)
	cfg.Source.Path = getenv("PRESAGE_INPUT", cfg.Source.Path)
	cfg.Source.RedisAddr = getenv("PRESAGE_REDIS_ADDR", cfg.Source.RedisAddr)
	cfg.Source.RedisPassword = getenv("PRESAGE_REDIS_PASSWORD", cfg.Source.RedisPassword)
	cfg.Source.RedisKey = getenv("PRESAGE_REDIS_KEY", cfg.Source.RedisKey)
	cfg.Prepare.OutputDir = getenv("PRESAGE_OUTPUT_DIR", cfg.Prepare.OutputDir)
	cfg.Evaluate.DataDir = getenv("PRESAGE_DATA_DIR", cfg.Evaluate.DataDir)
	cfg.Evaluate.Scorer = getenv("PRESAGE_SCORER", cfg.Evaluate.Scorer)
	cfg.Evaluate.ModelPath = getenv("PRESAGE_MODEL_PATH", cfg.Evaluate.ModelPath)
	cfg.Evaluate.Output = getenv("PRESAGE_RESULTS", cfg.Evaluate.Output)
	cfg.Logging.Level = getenv("PRESAGE_LOG_LEVEL", cfg.Logging.Level)

	ints := []struct {
		key  string
		dest *int
	}{
		{"PRESAGE_REDIS_DB", &cfg.Source.RedisDB},
		{"PRESAGE_MOCK_SESSIONS", &cfg.Source.Sessions},
		{"PRESAGE_MOCK_ROUTES", &cfg.Source.Routes},
		{"PRESAGE_WINDOW_SIZE", &cfg.Prepare.WindowSize},
		{"PRESAGE_PREPARE_WORKERS", &cfg.Prepare.Workers},
		{"PRESAGE_BATCH_SIZE", &cfg.Evaluate.BatchSize},
		{"PRESAGE_EVAL_WORKERS", &cfg.Evaluate.Workers},
	}
	for _, v := range ints {
		if raw := os.Getenv(v.key); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("config: %s: invalid integer %q", v.key, raw)
			}
			*v.dest = n
		}
	}

	if raw := os.Getenv("PRESAGE_SEED"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("config: PRESAGE_SEED: invalid integer %q", raw)
		}
		cfg.Source.Seed = n
	}
	if raw := os.Getenv("PRESAGE_TRAIN_SPLIT"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("config: PRESAGE_TRAIN_SPLIT: invalid number %q", raw)
		}
		cfg.Prepare.TrainSplit = f
	}
	if raw := os.Getenv("PRESAGE_K_VALUES"); raw != "" {
		ks, err := ParseKs(raw)
		if err != nil {
			return fmt.Errorf("config: PRESAGE_K_VALUES: %w", err)
		}
		cfg.Evaluate.Ks = ks
	}
	return nil
}

// ParseKs parses a comma-separated K list such as "1,3,5".
func ParseKs(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	ks := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid k value %q", p)
		}
		ks = append(ks, k)
	}
	if len(ks) == 0 {
		return nil, fmt.Errorf("no k values given")
	}
	return ks, nil
}

// Validate rejects configuration errors before any pipeline work begins.
// Every message names the field and the offending value.
func (c Config) Validate() error {
	if c.Prepare.WindowSize < 1 {
		return fmt.Errorf("config: window_size must be at least 1, got %d", c.Prepare.WindowSize)
	}
	if c.Prepare.TrainSplit < 0 || c.Prepare.TrainSplit > 1 {
		return fmt.Errorf("config: train_split must be in [0, 1], got %v", c.Prepare.TrainSplit)
	}
	for _, k := range c.Evaluate.Ks {
		if k < 1 {
			return fmt.Errorf("config: k_values must all be at least 1, got %d", k)
		}
	}
	if len(c.Evaluate.Ks) == 0 {
		return fmt.Errorf("config: k_values must not be empty")
	}
	if c.Evaluate.BatchSize < 1 {
		return fmt.Errorf("config: batch_size must be at least 1, got %d", c.Evaluate.BatchSize)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
