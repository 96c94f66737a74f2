package source

import (
	"context"
	"fmt"

	"github.com/crimson-sun/presage/internal/model"
)

// Source defines the interface all event-log sources must implement.
type Source interface {
	// Load reads the whole event log in one pass. The pipeline is an
	// offline batch transformation, so sources return a bounded snapshot
	// rather than a stream.
	Load(ctx context.Context, cfg Config) ([]model.Event, error)
}

// Config holds provider-specific source settings.
type Config struct {
	Provider string
	Path     string // csvfile, jsonfile

	// Redis list snapshot settings.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	// Synthetic generator settings.
	Sessions int
	Routes   int
	Seed     int64
}

// SchemaError reports a required event field that is missing or malformed
// in the input. Record is the 1-based position of the offending record.
type SchemaError struct {
	Field  string
	Value  string
	Record int
}

func (e *SchemaError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("source: record %d: missing required field %q", e.Record, e.Field)
	}
	return fmt.Sprintf("source: record %d: field %q has invalid value %q", e.Record, e.Field, e.Value)
}
