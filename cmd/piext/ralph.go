package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joss/piext/internal/ralph"
)

func ralphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ralph",
		Short: "Repeated-prompt iteration loops (Ralph Wiggum technique)",
		Long: `The ralph loop resubmits the same prompt to the agent after every
turn until a stop condition fires: an iteration budget, a completion
promise in the assistant's output, or an explicit cancel. When context
usage crosses the threshold, the loop hands off to a fresh session
linked to the current one.

Examples:
  piext ralph start "make all tests pass" --max-iterations 20
  piext ralph start "port the parser" --completion-promise DONE --plan-file PLAN.md
  piext ralph status
  piext ralph handoff
  piext ralph cancel`,
	}

	cmd.AddCommand(
		ralphStartCmd(),
		ralphCancelCmd(),
		ralphStatusCmd(),
		ralphHandoffCmd(),
	)

	return cmd
}

func ralphStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <prompt> [flags]",
		Short: "Start a loop with the given prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			opts, err := ralph.Parse(args, ralph.Defaults{ContextThreshold: a.cfg.ContextThreshold})
			if err != nil {
				return fmt.Errorf("%w\n\n%s", err, ralph.Usage)
			}

			return a.env.Ralph.Start(ctx, a.runtime, opts)
		},
	}

	// Loop flags are parsed by ralph.Parse so the free-form in-session
	// surface and the CLI agree on semantics and error messages.
	cmd.DisableFlagParsing = true
	return cmd
}

func ralphCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			return a.env.Ralph.Cancel(ctx, a.runtime)
		},
	}
}

func ralphStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show loop status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Println(a.env.Ralph.StatusText(ctx, a.runtime))
			return nil
		},
	}
}

func ralphHandoffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handoff",
		Short: "Hand the loop off to a fresh linked session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			return a.env.Ralph.Handoff(ctx, a.runtime)
		},
	}
}
