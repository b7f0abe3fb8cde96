// Package domain defines the core domain models for the chat relay.
package domain

import "time"

// Stage describes where a user's conversation currently sits in the flow.
// It is an open string tag; new flow positions may add values.
type Stage string

const (
	StageIdle   Stage = "idle"
	StageActive Stage = "active"
)

// Direction tags a history entry as inbound or outbound.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// MaxHistory is the number of history entries retained per session.
// Older entries are dropped, not archived.
const MaxHistory = 5

// Message is one message payload exchanged with a user.
type Message struct {
	From string    `json:"from,omitempty"`
	To   string    `json:"to,omitempty"`
	Text string    `json:"text"`
	Type Direction `json:"type"`
}

// HistoryEntry is a timestamped message in a session's history.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   Message   `json:"message"`
}

// Session is the TTL-expiring record of one user's conversational state.
// The JSON field names are part of the stored blob format and must not change.
type Session struct {
	Stage          Stage          `json:"stage"`
	MessageHistory []HistoryEntry `json:"message_history"`
	CreatedAt      time.Time      `json:"created_at"`
	LastActivity   time.Time      `json:"last_activity"`
}

// NewSession returns a fresh session for a first-seen user.
func NewSession(now time.Time) *Session {
	return &Session{
		Stage:          StageIdle,
		MessageHistory: []HistoryEntry{},
		CreatedAt:      now,
		LastActivity:   now,
	}
}

// Append adds an entry to the history and truncates to the MaxHistory most
// recent entries, dropping from the front.
func (s *Session) Append(entry HistoryEntry) {
	s.MessageHistory = append(s.MessageHistory, entry)
	if len(s.MessageHistory) > MaxHistory {
		s.MessageHistory = s.MessageHistory[len(s.MessageHistory)-MaxHistory:]
	}
}

// History returns the last limit entries in chronological order, or all
// entries when limit is zero or negative.
func (s *Session) History(limit int) []HistoryEntry {
	if limit <= 0 || limit >= len(s.MessageHistory) {
		return s.MessageHistory
	}
	return s.MessageHistory[len(s.MessageHistory)-limit:]
}
