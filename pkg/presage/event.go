package presage

// Event is one observed interaction in a session log.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Event struct {
	SessionID string `json:"session_id"`
	EntityID  string `json:"entity_id"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
}

// Window is one training example in dense-index form: WindowSize context
// indices and the index of the entity that immediately followed.
type Window struct {
	Context []int `json:"context"`
	Target  int   `json:"target"`
}

// Metrics maps metric names such as "precision@3" and "accuracy" to their
// values.
type Metrics map[string]float64
