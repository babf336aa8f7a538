// Package storage provides the sqlite-backed host store for sessions,
// messages, per-session log entries, and turn usage.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joss/piext/internal/host/domain"
)

type Storage struct {
	db   *sql.DB
	path string
}

// Verify Storage implements domain.Store
var _ domain.Store = (*Storage)(nil)

func New(dataDir string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "agent.db")
	return open(dbPath)
}

// NewMemory opens an in-memory store, used by tests.
func NewMemory() (*Storage, error) {
	return open(":memory:")
}

func open(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Storage{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		directory TEXT NOT NULL,
		parent_id TEXT,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_directory ON sessions(directory);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		parts_json TEXT NOT NULL,
		hidden INTEGER NOT NULL DEFAULT 0,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
	CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_entries_session_kind ON entries(session_id, kind, created_at DESC);

	CREATE TABLE IF NOT EXISTS turn_usage (
		session_id TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		cache_read INTEGER NOT NULL DEFAULT 0,
		cache_write INTEGER NOT NULL DEFAULT 0,
		recorded_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_turn_usage_session ON turn_usage(session_id, recorded_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Session operations

func (s *Storage) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, directory, parent_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.Directory, sess.ParentID, sess.Title, sess.CreatedAt, sess.UpdatedAt)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var sess domain.Session
	var parentID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, directory, parent_id, title, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Directory, &parentID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		sess.ParentID = parentID.String
	}
	return &sess, nil
}

func (s *Storage) ListSessions(ctx context.Context, directory string, limit int) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, directory, parent_id, title, created_at, updated_at
		FROM sessions WHERE directory = ? ORDER BY updated_at DESC LIMIT ?
	`, directory, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.Session
	for rows.Next() {
		var sess domain.Session
		var parentID sql.NullString

		if err := rows.Scan(&sess.ID, &sess.Directory, &parentID, &sess.Title, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}

		if parentID.Valid {
			sess.ParentID = parentID.String
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

func (s *Storage) UpdateSession(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?
	`, sess.Title, sess.UpdatedAt, sess.ID)
	return err
}

func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Message operations

func (s *Storage) CreateMessage(ctx context.Context, msg *domain.Message) error {
	partsJSON, err := domain.MarshalParts(msg.Parts)
	if err != nil {
		return fmt.Errorf("marshal parts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, session_id, role, parts_json, hidden, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.SessionID, msg.Role, partsJSON, msg.Hidden, msg.Timestamp)
	return err
}

func (s *Storage) GetMessages(ctx context.Context, sessionID string) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, parts_json, hidden, timestamp
		FROM messages WHERE session_id = ? ORDER BY timestamp ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var partsJSON string

		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role, &partsJSON, &msg.Hidden, &msg.Timestamp); err != nil {
			return nil, err
		}

		parts, err := domain.UnmarshalParts([]byte(partsJSON))
		if err != nil {
			return nil, fmt.Errorf("unmarshal parts: %w", err)
		}
		msg.Parts = parts
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func (s *Storage) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return err
}

// Entry operations

func (s *Storage) AppendEntry(ctx context.Context, entry *domain.Entry) error {
	payload := entry.Payload
	if payload == nil {
		payload = json.RawMessage("null")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, session_id, kind, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ID, entry.SessionID, entry.Kind, string(payload), entry.CreatedAt)
	return err
}

func (s *Storage) ListEntries(ctx context.Context, sessionID, kind string, limit int) ([]*domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, kind, payload_json, created_at
		FROM entries WHERE session_id = ? AND kind = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, sessionID, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var payload string

		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Usage operations

func (s *Storage) RecordTurnUsage(ctx context.Context, u *domain.TurnUsage) error {
	if u.RecordedAt.IsZero() {
		u.RecordedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turn_usage (session_id, input_tokens, output_tokens, cache_read, cache_write, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.SessionID, u.InputTokens, u.OutputTokens, u.CacheRead, u.CacheWrite, u.RecordedAt)
	return err
}

func (s *Storage) LastTurnUsage(ctx context.Context, sessionID string) (*domain.TurnUsage, error) {
	var u domain.TurnUsage
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, input_tokens, output_tokens, cache_read, cache_write, recorded_at
		FROM turn_usage WHERE session_id = ?
		ORDER BY recorded_at DESC, rowid DESC LIMIT 1
	`, sessionID).Scan(&u.SessionID, &u.InputTokens, &u.OutputTokens, &u.CacheRead, &u.CacheWrite, &u.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &u, err
}
