// Package csvfile loads clickstream events from a header-driven CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/crimson-sun/presage/internal/model"
	"github.com/crimson-sun/presage/internal/source"
)

// entityColumns are accepted names for the entity column, in precedence
// order. Exported logs call it route or page_id as often as entity_id.
var entityColumns = []string{"entity_id", "route", "page_id"}

func init() {
	source.Register("csvfile", func() source.Source { return &CSV{} })
}

// CSV reads a whole CSV event log. The first row must be a header naming
// session_id, timestamp and one of the entity columns; user_id is optional.
type CSV struct{}

// Load reads and validates every row of the file at cfg.Path.
func (c *CSV) Load(ctx context.Context, cfg source.Config) ([]model.Event, error) {
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csvfile: %s is empty", cfg.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("csvfile: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	sessionCol, ok := col["session_id"]
	if !ok {
		return nil, &source.SchemaError{Field: "session_id", Record: 1}
	}
	tsCol, ok := col["timestamp"]
	if !ok {
		return nil, &source.SchemaError{Field: "timestamp", Record: 1}
	}
	entityCol := -1
	for _, name := range entityColumns {
		if i, ok := col[name]; ok {
			entityCol = i
			break
		}
	}
	if entityCol < 0 {
		return nil, &source.SchemaError{Field: "entity_id", Record: 1}
	}
	userCol, hasUser := col["user_id"]

	var events []model.Event
	for record := 2; ; record++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvfile: record %d: %w", record, err)
		}

		if row[sessionCol] == "" {
			return nil, &source.SchemaError{Field: "session_id", Record: record}
		}
		if row[entityCol] == "" {
			return nil, &source.SchemaError{Field: "entity_id", Record: record}
		}
		ts, err := source.ParseTimestamp(row[tsCol], record)
		if err != nil {
			return nil, err
		}

		ev := model.Event{
			SessionID: row[sessionCol],
			EntityID:  source.Canonical(row[entityCol]),
			Timestamp: ts,
		}
		if hasUser {
			ev.UserID = row[userCol]
		}
		events = append(events, ev)
	}
	return events, nil
}
