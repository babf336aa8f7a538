package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joss/piext/internal/checkpoint"
)

const checkpointUsage = `usage: checkpoint <save|load|list|delete|show> [args]

  save [description]   Save the current conversation as a checkpoint
  load <id>            Restore a checkpoint into the next agent turn
  list                 List saved checkpoints, newest first
  delete <id>          Delete a checkpoint
  show <id>            Print a checkpoint transcript and stats`

// CheckpointCommand handles the "checkpoint" subcommand family.
type CheckpointCommand struct{}

func (c *CheckpointCommand) Name() string        { return "checkpoint" }
func (c *CheckpointCommand) Description() string { return "Save and restore conversation snapshots" }

func (c *CheckpointCommand) Execute(ctx context.Context, args string, env *Env) (string, error) {
	sub, rest := Parse(args)

	switch sub {
	case "save":
		return c.save(ctx, rest, env)
	case "load":
		return c.load(ctx, rest, env)
	case "list":
		return c.list(env), nil
	case "delete":
		return c.delete(rest, env)
	case "show":
		return c.show(rest, env)
	default:
		return "", fmt.Errorf("unknown checkpoint subcommand %q\n\n%s", sub, checkpointUsage)
	}
}

func (c *CheckpointCommand) save(ctx context.Context, description string, env *Env) (string, error) {
	messages, err := env.Caps.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("read session messages: %w", err)
	}

	cp, err := env.Checkpoints.Store().Save(messages, description, env.Directory)
	if errors.Is(err, checkpoint.ErrNoMessages) {
		env.Caps.Warn("Nothing to checkpoint: the session has no messages")
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Saved checkpoint %s (%d messages, %d tool calls)",
		cp.ID, cp.Stats.MessageCount, cp.Stats.ToolCalls), nil
}

func (c *CheckpointCommand) load(ctx context.Context, id string, env *Env) (string, error) {
	if id == "" {
		return "", fmt.Errorf("checkpoint load requires an id\n\n%s", checkpointUsage)
	}
	if !env.Checkpoints.QueueRestore(ctx, env.Caps, id) {
		env.Caps.Warn("Checkpoint %q not found", id)
		return "", nil
	}
	return fmt.Sprintf("Checkpoint %s will be restored on the next agent turn", id), nil
}

func (c *CheckpointCommand) list(env *Env) string {
	summaries := env.Checkpoints.Store().List()
	if len(summaries) == 0 {
		return "No checkpoints saved"
	}

	var sb strings.Builder
	for _, s := range summaries {
		desc := s.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Fprintf(&sb, "%s  %s  %3d msgs  %s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Stats.MessageCount, desc)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (c *CheckpointCommand) delete(id string, env *Env) (string, error) {
	if id == "" {
		return "", fmt.Errorf("checkpoint delete requires an id\n\n%s", checkpointUsage)
	}
	if !env.Checkpoints.Store().Delete(id) {
		env.Caps.Warn("Checkpoint %q not found", id)
		return "", nil
	}
	return fmt.Sprintf("Deleted checkpoint %s", id), nil
}

func (c *CheckpointCommand) show(id string, env *Env) (string, error) {
	if id == "" {
		return "", fmt.Errorf("checkpoint show requires an id\n\n%s", checkpointUsage)
	}
	cp, ok := env.Checkpoints.Store().Load(id)
	if !ok {
		env.Caps.Warn("Checkpoint %q not found", id)
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Checkpoint %s (saved %s)\n", cp.ID, cp.CreatedAt.Format("2006-01-02 15:04:05"))
	if cp.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", cp.Description)
	}
	fmt.Fprintf(&sb, "Directory: %s\n", cp.Directory)
	fmt.Fprintf(&sb, "Messages: %d (%d user, %d assistant), %d tool calls\n\n",
		cp.Stats.MessageCount, cp.Stats.UserMessages, cp.Stats.AssistantMessages, cp.Stats.ToolCalls)
	sb.WriteString(cp.Transcript)
	return sb.String(), nil
}
