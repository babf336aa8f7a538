// Package host ties the reference host together: the session manager,
// the hook registry, and the capability surface handed to extensions.
package host

import (
	"context"

	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/host/session"
	"github.com/joss/piext/internal/ui"
)

// Runtime is the per-process host state: one active session, one hook
// registry, one capability object shared by all hooks.
type Runtime struct {
	sessions *session.Manager
	notifier ui.Notifier
	hooks    *hook.Registry
	model    *domain.Model

	active       *domain.Session
	systemPrompt []string
}

// Verify Runtime provides the uniform hook capability surface
var _ hook.Capabilities = (*Runtime)(nil)

// NewRuntime creates a Runtime. model may be nil when the active model
// is unknown; threshold checks then never fire.
func NewRuntime(sessions *session.Manager, notifier ui.Notifier, model *domain.Model) *Runtime {
	return &Runtime{
		sessions: sessions,
		notifier: notifier,
		hooks:    hook.NewRegistry(),
		model:    model,
	}
}

// Hooks returns the registry extensions register with.
func (r *Runtime) Hooks() *hook.Registry {
	return r.hooks
}

// Sessions returns the session manager.
func (r *Runtime) Sessions() *session.Manager {
	return r.sessions
}

// SetActiveSession switches the session the capability surface targets.
func (r *Runtime) SetActiveSession(sess *domain.Session) {
	r.active = sess
}

// ActiveSession returns the active session, or nil.
func (r *Runtime) ActiveSession() *domain.Session {
	return r.active
}

// Fire dispatches a lifecycle event to all registered hooks. msg is the
// most recent assistant message for turn-end events, nil otherwise.
func (r *Runtime) Fire(ctx context.Context, event hook.Event, msg *domain.Message) hook.Result {
	return r.hooks.Run(ctx, &hook.Context{
		Event:   event,
		Message: msg,
		Caps:    r,
	})
}

// SystemPromptAdditions drains the fragments queued for the next turn.
func (r *Runtime) SystemPromptAdditions() []string {
	out := r.systemPrompt
	r.systemPrompt = nil
	return out
}

// Capabilities implementation

func (r *Runtime) SessionID() string {
	if r.active == nil {
		return ""
	}
	return r.active.ID
}

func (r *Runtime) Messages(ctx context.Context) ([]*domain.Message, error) {
	return r.sessions.Messages(ctx, r.SessionID())
}

func (r *Runtime) SendMessage(ctx context.Context, text string, opts hook.SendOptions) error {
	role := opts.Role
	if role == "" {
		role = domain.RoleUser
	}
	return r.sessions.Append(ctx, &domain.Message{
		SessionID: r.SessionID(),
		Role:      role,
		Hidden:    opts.Hidden,
		Parts:     []domain.Part{domain.TextPart{Text: text}},
	})
}

func (r *Runtime) AppendSystemPrompt(text string) {
	r.systemPrompt = append(r.systemPrompt, text)
}

func (r *Runtime) CreateLinkedSession(ctx context.Context) (*domain.Session, error) {
	sess, err := r.sessions.Fork(ctx, r.SessionID())
	if err != nil {
		return nil, err
	}
	r.active = sess
	return sess, nil
}

func (r *Runtime) LastUsage(ctx context.Context) (*domain.TurnUsage, error) {
	return r.sessions.LastUsage(ctx, r.SessionID())
}

func (r *Runtime) ActiveModel() *domain.Model {
	return r.model
}

func (r *Runtime) AppendEntry(ctx context.Context, kind string, payload []byte) error {
	return r.sessions.AppendEntry(ctx, r.SessionID(), kind, payload)
}

func (r *Runtime) LatestEntry(ctx context.Context, kind string) (*domain.Entry, error) {
	return r.sessions.LatestEntry(ctx, r.SessionID(), kind)
}

func (r *Runtime) Notify(format string, args ...any) {
	r.notifier.Notify(format, args...)
}

func (r *Runtime) Warn(format string, args ...any) {
	r.notifier.Warn(format, args...)
}

func (r *Runtime) Confirm(prompt string) bool {
	return r.notifier.Confirm(prompt)
}
