package model

import "time"

// Message is one entry of the conversation window
type Message struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// SessionState is the accumulated filter state of one conversation
type SessionState struct {
	ID        string    `json:"id"`
	Slots     Slots     `json:"slots"`
	TurnIndex int       `json:"turn_index"`
	History   []Message `json:"history,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState returns an empty state for id
func NewSessionState(id string) *SessionState {
	now := time.Now()
	return &SessionState{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Reset clears the slots, the turn counter and the conversation window
func (s *SessionState) Reset() {
	s.Slots = Slots{}
	s.TurnIndex = 0
	s.History = nil
}

// TurnLog is one row of the turn log
type TurnLog struct {
	SessionID   string    `db:"session_id"`
	TurnIndex   int       `db:"turn_index"`
	UserText    string    `db:"user_text"`
	Intent      string    `db:"intent"`
	Confidence  float64   `db:"confidence"`
	Slots       Slots     `db:"slots_json"`
	ReplyType   string    `db:"reply_type"`
	ResultCount int       `db:"result_count"`
	RelaxMode   string    `db:"relax_mode"`
	CreatedAt   time.Time `db:"created_at"`
}
