package source

import (
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
	"golang.org/x/text/unicode/norm"

	"github.com/crimson-sun/presage/internal/model"
)

// Canonical normalizes an entity identifier to Unicode NFC so byte-level
// identity is deterministic across sources. Every provider runs entity
// identifiers through this before returning events.
func Canonical(s string) string {
	return norm.NFC.String(s)
}

// flexString decodes a JSON value that may be a string or a number;
// exported logs disagree on whether session and user identifiers are
// quoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// jsonRecord is one event record in a JSON-serialized log. The entity may
// appear under any of entity_id, route or page_id.
type jsonRecord struct {
	SessionID flexString `json:"session_id"`
	EntityID  string     `json:"entity_id"`
	Route     string     `json:"route"`
	PageID    string     `json:"page_id"`
	Timestamp *int64     `json:"timestamp"`
	UserID    flexString `json:"user_id"`
}

// ParseRecord decodes a single JSON event record, validating the required
// fields. record is the 1-based position used in schema errors.
func ParseRecord(data []byte, record int) (model.Event, error) {
	var r jsonRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return model.Event{}, fmt.Errorf("source: record %d: %w", record, err)
	}

	if r.SessionID == "" {
		return model.Event{}, &SchemaError{Field: "session_id", Record: record}
	}
	entity := r.EntityID
	if entity == "" {
		entity = r.Route
	}
	if entity == "" {
		entity = r.PageID
	}
	if entity == "" {
		return model.Event{}, &SchemaError{Field: "entity_id", Record: record}
	}
	if r.Timestamp == nil {
		return model.Event{}, &SchemaError{Field: "timestamp", Record: record}
	}

	return model.Event{
		SessionID: string(r.SessionID),
		EntityID:  Canonical(entity),
		Timestamp: *r.Timestamp,
		UserID:    string(r.UserID),
	}, nil
}

// ParseTimestamp converts the textual timestamp of a tabular record,
// producing a schema error that names the offending value.
func ParseTimestamp(value string, record int) (int64, error) {
	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &SchemaError{Field: "timestamp", Value: value, Record: record}
	}
	return ts, nil
}
