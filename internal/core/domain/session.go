package domain

import "time"

// Turn is one completed question/answer exchange. Immutable once appended.
type Turn struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Query       string    `json:"query"`
	Response    string    `json:"response"`
	ResultCount int       `json:"result_count"`
}

// TurnContext is the slice of a prior turn handed to the composer as
// conversational context.
type TurnContext struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSummary describes a session after an append, for callers and logs.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	TurnCount    int       `json:"turn_count"`
	LastActivity time.Time `json:"last_activity"`
}
