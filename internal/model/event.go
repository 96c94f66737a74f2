package model

// Event is one observed interaction in a session log: which entity was
// touched, in which session, and when. Immutable once loaded.
type Event struct {
	SessionID string
	EntityID  string
	Timestamp int64
	UserID    string // optional
}

// Session is the ordered token stream of a single session: the entity
// identifiers of its events, sorted by timestamp ascending with ties kept
// in original input order.
type Session struct {
	ID     string
	Tokens []string
}
