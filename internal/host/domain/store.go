package domain

import "context"

// SessionStore defines the interface for session persistence
// This interface lives in domain to satisfy Dependency Inversion Principle
type SessionStore interface {
	CreateSession(ctx context.Context, sess *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, directory string, limit int) ([]*Session, error)
	UpdateSession(ctx context.Context, sess *Session) error
	DeleteSession(ctx context.Context, id string) error
}

// MessageStore defines the interface for message persistence
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *Message) error
	GetMessages(ctx context.Context, sessionID string) ([]*Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// EntryStore persists opaque per-session log entries
type EntryStore interface {
	AppendEntry(ctx context.Context, entry *Entry) error
	ListEntries(ctx context.Context, sessionID, kind string, limit int) ([]*Entry, error)
}

// UsageStore handles per-turn usage persistence
type UsageStore interface {
	RecordTurnUsage(ctx context.Context, usage *TurnUsage) error
	LastTurnUsage(ctx context.Context, sessionID string) (*TurnUsage, error)
}

// Store combines session, message, entry, and usage storage
// Implementations can satisfy this or the individual interfaces
type Store interface {
	SessionStore
	MessageStore
	EntryStore
	UsageStore
}
