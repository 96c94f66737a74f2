package source

import (
	"errors"
	"testing"
)

func TestParseRecordStringFields(t *testing.T) {
	ev, err := ParseRecord([]byte(`{"session_id":"s1","entity_id":"/checkout","timestamp":42,"user_id":"u7"}`), 1)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if ev.SessionID != "s1" || ev.EntityID != "/checkout" || ev.Timestamp != 42 || ev.UserID != "u7" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestParseRecordNumericIdentifiers(t *testing.T) {
	// Exported logs often carry numeric session/user ids.
	ev, err := ParseRecord([]byte(`{"session_id":12,"route":"/","timestamp":0,"user_id":3}`), 1)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if ev.SessionID != "12" || ev.UserID != "3" {
		t.Fatalf("expected numeric ids as strings, got %+v", ev)
	}
	if ev.EntityID != "/" {
		t.Fatalf("expected route column to supply entity, got %q", ev.EntityID)
	}
}

func TestParseRecordEntityColumnPrecedence(t *testing.T) {
	ev, err := ParseRecord([]byte(`{"session_id":"s","entity_id":"/a","route":"/b","page_id":"/c","timestamp":1}`), 1)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if ev.EntityID != "/a" {
		t.Fatalf("entity_id should win over route/page_id, got %q", ev.EntityID)
	}
}

func TestParseRecordMissingFields(t *testing.T) {
	cases := []struct {
		name  string
		data  string
		field string
	}{
		{"no session", `{"entity_id":"/a","timestamp":1}`, "session_id"},
		{"no entity", `{"session_id":"s","timestamp":1}`, "entity_id"},
		{"no timestamp", `{"session_id":"s","entity_id":"/a"}`, "timestamp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRecord([]byte(tc.data), 7)
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if se.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, se.Field)
			}
			if se.Record != 7 {
				t.Fatalf("expected record 7, got %d", se.Record)
			}
		})
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	_, err := ParseTimestamp("noon", 3)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Value != "noon" || se.Field != "timestamp" {
		t.Fatalf("unexpected schema error: %+v", se)
	}
}

func TestCanonicalNFC(t *testing.T) {
	// é as combining sequence (U+0065 U+0301) normalizes to precomposed U+00E9.
	decomposed := "/café"
	composed := "/café"
	if Canonical(decomposed) != composed {
		t.Fatalf("expected NFC form %q, got %q", composed, Canonical(decomposed))
	}
}
