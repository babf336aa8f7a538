// Package command implements the in-session text command surface for
// the extensions ("checkpoint save", "ralph …", "ralph-status", …).
package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/joss/piext/internal/checkpoint"
	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/ralph"
)

// Env provides context for command execution
type Env struct {
	Caps        hook.Capabilities
	Checkpoints *checkpoint.Extension
	Ralph       *ralph.Controller
	Defaults    ralph.Defaults
	// Directory is the working directory recorded in checkpoints.
	Directory string
}

// Command is the interface for extension commands
type Command interface {
	Name() string
	Description() string
	// Execute runs the command; the returned string is displayed to
	// the user when non-empty.
	Execute(ctx context.Context, args string, env *Env) (string, error)
}

// Registry holds all available commands
type Registry struct {
	commands map[string]Command
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns all registered commands sorted by name
func (r *Registry) List() []Command {
	result := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Dispatch parses a free-form input line and executes the matching
// command. Unknown commands report the available surface.
func (r *Registry) Dispatch(ctx context.Context, input string, env *Env) (string, error) {
	name, args := Parse(input)
	if name == "" {
		return "", fmt.Errorf("empty command")
	}

	cmd, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("unknown command %q\n\n%s", name, r.usage())
	}
	return cmd.Execute(ctx, args, env)
}

// Parse splits an input line into a command name and its argument text.
func Parse(input string) (name string, args string) {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	name = strings.ToLower(parts[0])
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return name, args
}

func (r *Registry) usage() string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, cmd := range r.List() {
		fmt.Fprintf(&sb, "  %-14s %s\n", cmd.Name(), cmd.Description())
	}
	return sb.String()
}

// DefaultRegistry returns a registry with the extension commands.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CheckpointCommand{})
	r.Register(&RalphCommand{})
	r.Register(&CancelRalphCommand{})
	r.Register(&RalphStatusCommand{})
	r.Register(&RalphHandoffCommand{})
	return r
}
