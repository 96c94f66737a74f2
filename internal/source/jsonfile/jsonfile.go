// Package jsonfile loads clickstream events from a JSON file, either a
// single array of records or newline-delimited records (NDJSON). The shape
// is detected from the first non-space byte.
package jsonfile

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/crimson-sun/presage/internal/model"
	"github.com/crimson-sun/presage/internal/source"
)

func init() {
	source.Register("jsonfile", func() source.Source { return &JSON{} })
}

// JSON reads a whole JSON or NDJSON event log.
type JSON struct{}

// Load reads and validates every record of the file at cfg.Path.
func (j *JSON) Load(ctx context.Context, cfg source.Config) ([]model.Event, error) {
	data, err := os.ReadFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: %w", err)
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("jsonfile: %s is empty", cfg.Path)
	}
	if trimmed[0] == '[' {
		return loadArray(ctx, trimmed)
	}
	return loadLines(ctx, data)
}

func loadArray(ctx context.Context, data []byte) ([]model.Event, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("jsonfile: parse array: %w", err)
	}
	events := make([]model.Event, 0, len(raws))
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev, err := source.ParseRecord(raw, i+1)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func loadLines(ctx context.Context, data []byte) ([]model.Event, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var events []model.Event
	record := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		record++
		ev, err := source.ParseRecord(line, record)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("jsonfile: scan: %w", err)
	}
	return events, nil
}
