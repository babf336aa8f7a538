// Package main provides the pi extensions CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joss/piext/internal/checkpoint"
	"github.com/joss/piext/internal/command"
	"github.com/joss/piext/internal/config"
	"github.com/joss/piext/internal/host"
	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/host/session"
	"github.com/joss/piext/internal/host/storage"
	"github.com/joss/piext/internal/ralph"
	"github.com/joss/piext/internal/ui"
)

var version = "0.1.0"

var (
	flagSession           string
	flagRestoreCheckpoint string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "piext",
		Short: "pi agent extensions: checkpoints, ralph loops, input history",
		Long: `piext bundles the example extensions for the pi coding agent:

  checkpoint  Save and restore conversation snapshots
  ralph       Repeated-prompt iteration loops with context handoff
  history     Persisted input history

State lives under ~/.pi/agent (override with PI_AGENT_DIR).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagSession, "session", "", "session id (default: latest session for the current directory)")
	rootCmd.PersistentFlags().StringVar(&flagRestoreCheckpoint, "restore-checkpoint", "", "restore the named checkpoint at session start")

	rootCmd.AddCommand(
		checkpointCmd(),
		ralphCmd(),
		historyCmd(),
		execCmd(),
		sessionsCmd(),
		promptCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		ui.NewConsole().Error("%v", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs once the host is up.
type app struct {
	cfg     *config.Config
	store   *storage.Storage
	runtime *host.Runtime
	env     *command.Env
	console *ui.Console
}

func (a *app) close() {
	a.store.Close()
}

// setup opens the host store, resolves the active session, restores
// extension state, and applies the startup restore flag.
func setup(ctx context.Context) (*app, error) {
	cfg := config.Load()
	console := ui.NewConsole()

	store, err := storage.New(cfg.AgentDir)
	if err != nil {
		return nil, fmt.Errorf("open host store: %w", err)
	}

	sessions := session.NewManager(store)
	runtime := host.NewRuntime(sessions, console, modelFromEnv())

	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}

	sess, err := resolveSession(ctx, sessions, dir)
	if err != nil {
		store.Close()
		return nil, err
	}
	runtime.SetActiveSession(sess)

	checkpoints := checkpoint.NewExtension(checkpoint.NewStore(cfg.CheckpointDir))
	controller := ralph.NewController()
	checkpoints.Register(runtime.Hooks())
	controller.Register(runtime.Hooks())

	// Each CLI invocation is a resume from the host's point of view.
	if res := runtime.Fire(ctx, hook.EventSessionResume, nil); res.Error != nil {
		console.Warn("resume: %v", res.Error)
	}

	if flagRestoreCheckpoint != "" {
		if !checkpoints.QueueRestore(ctx, runtime, flagRestoreCheckpoint) {
			console.Warn("Checkpoint %q not found", flagRestoreCheckpoint)
		}
	}

	return &app{
		cfg:     cfg,
		store:   store,
		runtime: runtime,
		console: console,
		env: &command.Env{
			Caps:        runtime,
			Checkpoints: checkpoints,
			Ralph:       controller,
			Defaults:    ralph.Defaults{ContextThreshold: cfg.ContextThreshold},
			Directory:   dir,
		},
	}, nil
}

func resolveSession(ctx context.Context, sessions *session.Manager, dir string) (*domain.Session, error) {
	if flagSession != "" {
		sess, err := sessions.Get(ctx, flagSession)
		if err != nil {
			return nil, fmt.Errorf("session %q not found", flagSession)
		}
		return sess, nil
	}
	return sessions.GetOrCreate(ctx, dir)
}

// modelFromEnv reads the active model descriptor the host would know.
// Without a window size, context-threshold handoffs stay disarmed.
func modelFromEnv() *domain.Model {
	id := os.Getenv("PI_MODEL")
	window, _ := strconv.Atoi(os.Getenv("PI_MODEL_CONTEXT_WINDOW"))
	if id == "" && window == 0 {
		return nil
	}
	return &domain.Model{ID: id, ContextWindow: window}
}

// execCmd dispatches a free-form extension command line, the same
// surface the in-session slash handler uses.
func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command line>",
		Short: "Run a free-form extension command (e.g. \"checkpoint save fix auth\")",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			input := ""
			for i, arg := range args {
				if i > 0 {
					input += " "
				}
				input += arg
			}

			out, err := command.DefaultRegistry().Dispatch(ctx, input, a.env)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Println(out)
			}
			return nil
		},
	}
}

// promptCmd is the host's per-turn integration point: it fires the
// before-turn hooks and prints any queued system-prompt additions
// (queued checkpoint restores included) for the host to append before
// sending the turn to the model.
func promptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Emit system-prompt additions for the next agent turn",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if res := a.runtime.Fire(ctx, hook.EventBeforeTurn, nil); res.Error != nil {
				return res.Error
			}
			for _, fragment := range a.runtime.SystemPromptAdditions() {
				fmt.Println(fragment)
			}
			return nil
		},
	}
}

func sessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List sessions for the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			dir := a.env.Directory
			sessions, err := a.runtime.Sessions().List(ctx, dir, 20)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions")
				return nil
			}
			for _, s := range sessions {
				marker := " "
				if s.ID == a.runtime.SessionID() {
					marker = "*"
				}
				parent := ""
				if s.ParentID != "" {
					parent = " ← " + s.ParentID
				}
				fmt.Printf("%s %s  %s  %s%s\n", marker, s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), s.Title, parent)
			}
			return nil
		},
	}
}
