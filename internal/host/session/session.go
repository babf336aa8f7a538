// Package session manages the host's conversation sessions: creation,
// lookup, parent-linked forks, message append, and the opaque entry log
// extensions persist their state through.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/joss/piext/internal/host/domain"
)

// Manager handles session lifecycle
type Manager struct {
	store domain.Store
}

// NewManager creates a Manager with the given storage (accepts interface)
func NewManager(s domain.Store) *Manager {
	return &Manager{store: s}
}

// Create creates a new session for the given directory
func (m *Manager) Create(ctx context.Context, dir string) (*domain.Session, error) {
	sess := &domain.Session{
		ID:        ulid.Make().String(),
		Directory: dir,
		Title:     "New Session",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Get retrieves a session by ID
func (m *Manager) Get(ctx context.Context, id string) (*domain.Session, error) {
	return m.store.GetSession(ctx, id)
}

// Latest gets the most recent session for a directory
func (m *Manager) Latest(ctx context.Context, dir string) (*domain.Session, error) {
	sessions, err := m.store.ListSessions(ctx, dir, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

// GetOrCreate gets the latest session or creates a new one
func (m *Manager) GetOrCreate(ctx context.Context, dir string) (*domain.Session, error) {
	sess, err := m.Latest(ctx, dir)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	return m.Create(ctx, dir)
}

// List returns sessions for a directory
func (m *Manager) List(ctx context.Context, dir string, limit int) ([]*domain.Session, error) {
	return m.store.ListSessions(ctx, dir, limit)
}

// Fork creates a child session linked to its parent. Messages are not
// copied: a fork starts with a clean context, which is the whole point
// of a handoff.
func (m *Manager) Fork(ctx context.Context, parentID string) (*domain.Session, error) {
	parent, err := m.Get(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}

	sess := &domain.Session{
		ID:        ulid.Make().String(),
		Directory: parent.Directory,
		ParentID:  parent.ID,
		Title:     parent.Title + " (handoff)",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := m.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create fork: %w", err)
	}

	return sess, nil
}

// Append stores a message on the session's active branch, assigning an
// ID and timestamp when missing.
func (m *Manager) Append(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return m.store.CreateMessage(ctx, msg)
}

// Messages returns the ordered message log for the session's active branch.
func (m *Manager) Messages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	return m.store.GetMessages(ctx, sessionID)
}

// AppendEntry records an opaque log entry for the session.
func (m *Manager) AppendEntry(ctx context.Context, sessionID, kind string, payload []byte) error {
	entry := &domain.Entry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	return m.store.AppendEntry(ctx, entry)
}

// LatestEntry returns the most recent entry of the given kind, or nil.
func (m *Manager) LatestEntry(ctx context.Context, sessionID, kind string) (*domain.Entry, error) {
	entries, err := m.store.ListEntries(ctx, sessionID, kind, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// RecordUsage stores token usage for the most recent agent turn.
func (m *Manager) RecordUsage(ctx context.Context, usage *domain.TurnUsage) error {
	return m.store.RecordTurnUsage(ctx, usage)
}

// LastUsage returns the latest turn usage for the session, or nil.
func (m *Manager) LastUsage(ctx context.Context, sessionID string) (*domain.TurnUsage, error) {
	return m.store.LastTurnUsage(ctx, sessionID)
}
