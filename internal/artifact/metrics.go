package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
)

// WriteMetrics persists evaluation results as indented JSON, creating the
// parent directory on demand. Keys marshal in sorted order, so the file is
// stable across runs with the same results.
func WriteMetrics(path string, metrics map[string]float64) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("artifact: metrics: %w", err)
		}
	}
	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: metrics: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("artifact: metrics: %w", err)
	}
	return nil
}

// LoadMetrics reads an evaluation results file back.
func LoadMetrics(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact: metrics: %w", err)
	}
	var metrics map[string]float64
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, fmt.Errorf("artifact: metrics: parse %s: %w", path, err)
	}
	return metrics, nil
}
