// Package hook dispatches host lifecycle events to registered extensions.
//
// Every hook receives the same Capabilities interface, regardless of
// which event it handles. A hook that wants to create a linked session
// from a turn-end callback can, so extensions never need to smuggle
// privileged work into a different callback context.
package hook

import (
	"context"

	"github.com/joss/piext/internal/host/domain"
)

// Event identifies when a hook should be called
type Event string

const (
	EventSessionStart  Event = "session_start"
	EventSessionResume Event = "session_resume"
	EventBeforeTurn    Event = "before_turn"
	EventTurnEnd       Event = "turn_end"
	EventSessionEnd    Event = "session_end"
)

// SendOptions controls how a message injected by an extension behaves.
type SendOptions struct {
	// Role of the injected message; defaults to RoleUser.
	Role domain.Role
	// Hidden messages reach the model but are not displayed in the UI.
	Hidden bool
	// NoTurn appends the message without triggering a new agent turn.
	NoTurn bool
}

// Capabilities is the uniform host surface passed to every hook.
type Capabilities interface {
	// SessionID returns the active session.
	SessionID() string
	// Messages returns the ordered message log of the active branch.
	Messages(ctx context.Context) ([]*domain.Message, error)
	// SendMessage appends a message to the active session.
	SendMessage(ctx context.Context, text string, opts SendOptions) error
	// AppendSystemPrompt adds text to the system prompt for the next turn.
	AppendSystemPrompt(text string)
	// CreateLinkedSession forks a child session from the active one and
	// makes it the active session.
	CreateLinkedSession(ctx context.Context) (*domain.Session, error)
	// LastUsage returns token usage for the most recent agent turn, or nil.
	LastUsage(ctx context.Context) (*domain.TurnUsage, error)
	// ActiveModel returns the active model descriptor, or nil when unknown.
	ActiveModel() *domain.Model
	// AppendEntry persists an opaque log entry that survives resume.
	AppendEntry(ctx context.Context, kind string, payload []byte) error
	// LatestEntry returns the most recent entry of the given kind, or nil.
	LatestEntry(ctx context.Context, kind string) (*domain.Entry, error)
	// Notify displays an informational message to the user.
	Notify(format string, args ...any)
	// Warn displays a warning to the user.
	Warn(format string, args ...any)
	// Confirm asks the user a yes/no question; declining returns false.
	Confirm(prompt string) bool
}

// Context passed to hooks
type Context struct {
	Event Event
	// Message is the most recent assistant message for EventTurnEnd.
	Message *domain.Message
	Caps    Capabilities
}

// Result returned by hooks
type Result struct {
	Continue bool  // Whether to continue processing
	Error    error // Error to propagate
}

// Hook is a function called at specific points in the session lifecycle
type Hook func(ctx context.Context, hctx *Context) Result

// Registry manages hooks
type Registry struct {
	hooks map[Event][]Hook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		hooks: make(map[Event][]Hook),
	}
}

// Register adds a hook for a specific event
func (r *Registry) Register(event Event, hook Hook) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes all hooks registered for the context's event
func (r *Registry) Run(ctx context.Context, hctx *Context) Result {
	hooks, ok := r.hooks[hctx.Event]
	if !ok || len(hooks) == 0 {
		return Result{Continue: true}
	}

	for _, hook := range hooks {
		result := hook(ctx, hctx)
		if !result.Continue || result.Error != nil {
			return result
		}
	}

	return Result{Continue: true}
}

// Has checks if any hooks are registered for an event
func (r *Registry) Has(event Event) bool {
	hooks, ok := r.hooks[event]
	return ok && len(hooks) > 0
}

// Clear removes all hooks for an event
func (r *Registry) Clear(event Event) {
	delete(r.hooks, event)
}
