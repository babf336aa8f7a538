package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joss/piext/internal/checkpoint"
	"github.com/joss/piext/internal/tui"
)

func checkpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checkpoint",
		Aliases: []string{"cp"},
		Short:   "Save and restore conversation snapshots",
		Long: `Checkpoints capture the active session's conversation as a single
JSON file under the checkpoint directory, keyed by a short random id.

Examples:
  piext checkpoint save "before the big refactor"
  piext checkpoint list
  piext checkpoint list --pick
  piext checkpoint show k3m9qw
  piext checkpoint load k3m9qw
  piext checkpoint delete k3m9qw`,
	}

	cmd.AddCommand(
		checkpointSaveCmd(),
		checkpointLoadCmd(),
		checkpointListCmd(),
		checkpointDeleteCmd(),
		checkpointShowCmd(),
	)

	return cmd
}

func checkpointSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [description]",
		Short: "Save the current conversation as a checkpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			messages, err := a.runtime.Messages(ctx)
			if err != nil {
				return fmt.Errorf("read session messages: %w", err)
			}

			cp, err := a.env.Checkpoints.Store().Save(messages, strings.Join(args, " "), a.env.Directory)
			if errors.Is(err, checkpoint.ErrNoMessages) {
				a.console.Warn("Nothing to checkpoint: the session has no messages")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Saved checkpoint %s (%d messages, %d tool calls)\n",
				cp.ID, cp.Stats.MessageCount, cp.Stats.ToolCalls)
			return nil
		},
	}
}

func checkpointLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Restore a checkpoint into the next agent turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.env.Checkpoints.QueueRestore(ctx, a.runtime, args[0]) {
				a.console.Warn("Checkpoint %q not found", args[0])
				return nil
			}
			fmt.Printf("Checkpoint %s will be restored on the next agent turn\n", args[0])
			return nil
		},
	}
}

func checkpointListCmd() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved checkpoints, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			summaries := a.env.Checkpoints.Store().List()
			if len(summaries) == 0 {
				fmt.Println("No checkpoints saved")
				return nil
			}

			if pick {
				id, err := tui.Pick(summaries)
				if err != nil {
					return err
				}
				if id == "" {
					return nil
				}
				fmt.Println(id)
				return nil
			}

			for _, s := range summaries {
				desc := s.Description
				if desc == "" {
					desc = "(no description)"
				}
				fmt.Printf("%s  %s  %3d msgs  %s\n",
					s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Stats.MessageCount, desc)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "select a checkpoint interactively and print its id")
	return cmd
}

func checkpointDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if !a.env.Checkpoints.Store().Delete(args[0]) {
				a.console.Warn("Checkpoint %q not found", args[0])
				return nil
			}
			fmt.Printf("Deleted checkpoint %s\n", args[0])
			return nil
		},
	}
}

func checkpointShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a checkpoint transcript and stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			cp, ok := a.env.Checkpoints.Store().Load(args[0])
			if !ok {
				a.console.Warn("Checkpoint %q not found", args[0])
				return nil
			}

			fmt.Printf("Checkpoint %s (saved %s)\n", cp.ID, cp.CreatedAt.Format("2006-01-02 15:04:05"))
			if cp.Description != "" {
				fmt.Printf("Description: %s\n", cp.Description)
			}
			fmt.Printf("Directory: %s\n", cp.Directory)
			fmt.Printf("Messages: %d (%d user, %d assistant), %d tool calls\n\n",
				cp.Stats.MessageCount, cp.Stats.UserMessages, cp.Stats.AssistantMessages, cp.Stats.ToolCalls)
			fmt.Println(cp.Transcript)
			return nil
		},
	}
}
