package command

import (
	"context"
	"fmt"

	"github.com/joss/piext/internal/ralph"
)

// RalphCommand starts an iteration loop.
type RalphCommand struct{}

func (c *RalphCommand) Name() string        { return "ralph" }
func (c *RalphCommand) Description() string { return "Start a repeated-prompt iteration loop" }

func (c *RalphCommand) Execute(ctx context.Context, args string, env *Env) (string, error) {
	opts, err := ralph.Parse(ralph.SplitArgs(args), env.Defaults)
	if err != nil {
		return "", fmt.Errorf("%w\n\n%s", err, ralph.Usage)
	}

	if err := env.Ralph.Start(ctx, env.Caps, opts); err != nil {
		return "", err
	}
	return "", nil
}

// CancelRalphCommand stops an active loop.
type CancelRalphCommand struct{}

func (c *CancelRalphCommand) Name() string        { return "cancel-ralph" }
func (c *CancelRalphCommand) Description() string { return "Cancel the active iteration loop" }

func (c *CancelRalphCommand) Execute(ctx context.Context, args string, env *Env) (string, error) {
	return "", env.Ralph.Cancel(ctx, env.Caps)
}

// RalphStatusCommand shows loop progress.
type RalphStatusCommand struct{}

func (c *RalphStatusCommand) Name() string        { return "ralph-status" }
func (c *RalphStatusCommand) Description() string { return "Show iteration loop status" }

func (c *RalphStatusCommand) Execute(ctx context.Context, args string, env *Env) (string, error) {
	return env.Ralph.StatusText(ctx, env.Caps), nil
}

// RalphHandoffCommand executes a session handoff.
type RalphHandoffCommand struct{}

func (c *RalphHandoffCommand) Name() string        { return "ralph-handoff" }
func (c *RalphHandoffCommand) Description() string { return "Hand the loop off to a fresh session" }

func (c *RalphHandoffCommand) Execute(ctx context.Context, args string, env *Env) (string, error) {
	return "", env.Ralph.Handoff(ctx, env.Caps)
}
