package domain

import (
	"encoding/json"
	"time"
)

// Session represents a conversation session with the agent
type Session struct {
	ID        string    `json:"id"`
	Directory string    `json:"directory"`
	ParentID  string    `json:"parentID,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Entry is an opaque application-level log record attached to a session.
// Extensions use entries to persist state that survives a resume.
type Entry struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionID"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}
