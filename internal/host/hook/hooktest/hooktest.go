// Package hooktest provides a scripted Capabilities implementation for
// extension tests.
package hooktest

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/hook"
)

// Sent records a message injected through SendMessage.
type Sent struct {
	Text string
	Opts hook.SendOptions
}

// Caps is an in-memory hook.Capabilities for tests.
type Caps struct {
	ID       string
	Log      []*domain.Message
	SentMsgs []Sent
	Entries  map[string][]*domain.Entry
	System   []string

	Model *domain.Model
	Usage *domain.TurnUsage

	Notices  []string
	Warnings []string

	ConfirmAnswer  bool
	ConfirmPrompts []string
	Forks          []*domain.Session
}

var _ hook.Capabilities = (*Caps)(nil)

// New creates a Caps with an active session id.
func New() *Caps {
	return &Caps{
		ID:      "sess-1",
		Entries: make(map[string][]*domain.Entry),
	}
}

func (c *Caps) SessionID() string { return c.ID }

func (c *Caps) Messages(ctx context.Context) ([]*domain.Message, error) {
	return c.Log, nil
}

// Append adds a message to the session log directly, as the host would
// after an agent turn.
func (c *Caps) Append(role domain.Role, text string) *domain.Message {
	msg := &domain.Message{
		ID:        ulid.Make().String(),
		SessionID: c.ID,
		Role:      role,
		Parts:     []domain.Part{domain.TextPart{Text: text}},
		Timestamp: time.Now(),
	}
	c.Log = append(c.Log, msg)
	return msg
}

func (c *Caps) SendMessage(ctx context.Context, text string, opts hook.SendOptions) error {
	c.SentMsgs = append(c.SentMsgs, Sent{Text: text, Opts: opts})
	role := opts.Role
	if role == "" {
		role = domain.RoleUser
	}
	msg := c.Append(role, text)
	msg.Hidden = opts.Hidden
	return nil
}

func (c *Caps) AppendSystemPrompt(text string) {
	c.System = append(c.System, text)
}

func (c *Caps) CreateLinkedSession(ctx context.Context) (*domain.Session, error) {
	sess := &domain.Session{
		ID:        ulid.Make().String(),
		ParentID:  c.ID,
		CreatedAt: time.Now(),
	}
	c.Forks = append(c.Forks, sess)
	c.ID = sess.ID
	c.Log = nil
	return sess, nil
}

func (c *Caps) LastUsage(ctx context.Context) (*domain.TurnUsage, error) {
	return c.Usage, nil
}

func (c *Caps) ActiveModel() *domain.Model { return c.Model }

func (c *Caps) AppendEntry(ctx context.Context, kind string, payload []byte) error {
	c.Entries[kind] = append(c.Entries[kind], &domain.Entry{
		ID:        ulid.Make().String(),
		SessionID: c.ID,
		Kind:      kind,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now(),
	})
	return nil
}

func (c *Caps) LatestEntry(ctx context.Context, kind string) (*domain.Entry, error) {
	entries := c.Entries[kind]
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[len(entries)-1], nil
}

func (c *Caps) Notify(format string, args ...any) {
	c.Notices = append(c.Notices, fmt.Sprintf(format, args...))
}

func (c *Caps) Warn(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Caps) Confirm(prompt string) bool {
	c.ConfirmPrompts = append(c.ConfirmPrompts, prompt)
	return c.ConfirmAnswer
}
