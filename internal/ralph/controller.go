// Package ralph implements the iteration-loop controller: the same
// prompt is resubmitted to the agent after every turn until a stop
// condition fires, with a session handoff when context usage crosses a
// threshold.
package ralph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/logging"
)

var (
	// ErrAlreadyActive is returned when a loop start is attempted
	// while one is running.
	ErrAlreadyActive = errors.New("a ralph loop is already active")
	// ErrNotActive is returned for loop operations with no loop running.
	ErrNotActive = errors.New("no active ralph loop")
)

// Controller is the session-scoped loop state machine. The host creates
// one per session and drives it through lifecycle hooks.
type Controller struct {
	state *State
	log   *logging.Logger
}

// NewController creates an idle controller.
func NewController() *Controller {
	return &Controller{log: logging.New("ralph")}
}

// Register attaches the controller's hooks to the registry.
func (c *Controller) Register(reg *hook.Registry) {
	reg.Register(hook.EventSessionResume, c.onResume)
	reg.Register(hook.EventBeforeTurn, c.beforeTurn)
	reg.Register(hook.EventTurnEnd, c.onTurnEnd)
}

// State returns a copy of the current loop state, or nil when idle.
func (c *Controller) State() *State {
	if c.state == nil {
		return nil
	}
	s := *c.state
	return &s
}

// Start begins a new loop and submits the first iteration.
func (c *Controller) Start(ctx context.Context, caps hook.Capabilities, opts Options) error {
	if c.state != nil && c.state.Active {
		return ErrAlreadyActive
	}

	c.state = &State{
		Active:            true,
		Prompt:            opts.Prompt,
		Iteration:         1,
		TotalIterations:   1,
		MaxIterations:     opts.MaxIterations,
		CompletionPromise: opts.CompletionPromise,
		PlanFile:          opts.PlanFile,
		ContextThreshold:  opts.ContextThreshold,
		StartedAt:         time.Now(),
		SessionCount:      1,
	}
	c.persist(ctx, caps)

	caps.Notify("Ralph loop started%s", limitText(c.state.MaxIterations))
	return caps.SendMessage(ctx, c.iterationMessage(), hook.SendOptions{})
}

// Cancel stops an active loop.
func (c *Controller) Cancel(ctx context.Context, caps hook.Capabilities) error {
	if c.state == nil || !c.state.Active {
		return ErrNotActive
	}
	c.stop(ctx, caps, fmt.Sprintf("cancelled after %d iteration(s)", c.state.TotalIterations))
	return nil
}

// Handoff discards the current session's remaining context and continues
// the loop in a fresh session linked to this one as parent.
//
// When the controller itself requested the handoff (pending flag set,
// plan file already refreshed by the agent) no confirmation is needed.
// A manual handoff asks first, since the discard is irreversible.
func (c *Controller) Handoff(ctx context.Context, caps hook.Capabilities) error {
	if c.state == nil || !c.state.Active {
		return ErrNotActive
	}

	if !c.state.PendingHandoff {
		if !caps.Confirm("Hand off to a new session? Remaining context in the current session is discarded.") {
			caps.Notify("Handoff cancelled")
			return nil
		}
	}

	sess, err := caps.CreateLinkedSession(ctx)
	if err != nil {
		return fmt.Errorf("create handoff session: %w", err)
	}

	c.state.Iteration = 0
	c.state.SessionCount++
	c.state.PendingHandoff = false
	c.persist(ctx, caps)

	caps.Notify("Handed off to session %s (session %d of this loop)", sess.ID, c.state.SessionCount)
	return c.resubmit(ctx, caps)
}

// onTurnEnd runs the ordered stop/handoff/continue checks after every
// agent turn. First match wins.
func (c *Controller) onTurnEnd(ctx context.Context, hctx *hook.Context) hook.Result {
	if c.state == nil || !c.state.Active {
		return hook.Result{Continue: true}
	}
	s := c.state
	caps := hctx.Caps

	// 1. A pending handoff freezes the loop until it is executed.
	if s.PendingHandoff {
		return hook.Result{Continue: true}
	}

	// 2. Iteration budget exhausted.
	if s.MaxIterations > 0 && s.TotalIterations >= s.MaxIterations {
		c.stop(ctx, caps, fmt.Sprintf("max iterations (%d) reached", s.MaxIterations))
		return hook.Result{Continue: true}
	}

	// 3. Completion promise detected in the assistant's output.
	if s.CompletionPromise != "" {
		if text, ok := lastAssistantText(ctx, hctx); ok && promiseMatches(text, s.CompletionPromise) {
			c.stop(ctx, caps, fmt.Sprintf("completion promise %q detected after %d iteration(s)",
				s.CompletionPromise, s.TotalIterations))
			return hook.Result{Continue: true}
		}
	}

	// 4. Context threshold breached. Without a plan file the breach is
	// warned once and the warning re-arms when usage drops back under.
	pct := c.contextPercent(ctx, caps)
	if pct >= 0 && pct >= s.ContextThreshold {
		if s.PlanFile != "" {
			s.PendingHandoff = true
			c.persist(ctx, caps)
			caps.Warn("Context at %d%% (threshold %d%%): preparing handoff, run ralph-handoff when ready", pct, s.ContextThreshold)
			if err := caps.SendMessage(ctx, c.planUpdateRequest(), hook.SendOptions{}); err != nil {
				return hook.Result{Continue: true, Error: err}
			}
			return hook.Result{Continue: true}
		}
		if !s.ThresholdWarned {
			s.ThresholdWarned = true
			c.persist(ctx, caps)
			caps.Warn("Context at %d%% (threshold %d%%): no plan file configured, continuing", pct, s.ContextThreshold)
		}
	} else if pct >= 0 && s.ThresholdWarned {
		s.ThresholdWarned = false
		c.persist(ctx, caps)
	}

	// 5. Keep looping.
	if err := c.resubmit(ctx, caps); err != nil {
		return hook.Result{Continue: true, Error: err}
	}
	return hook.Result{Continue: true}
}

// beforeTurn injects a hidden context note so the agent knows where in
// the loop it is.
func (c *Controller) beforeTurn(ctx context.Context, hctx *hook.Context) hook.Result {
	if c.state == nil || !c.state.Active {
		return hook.Result{Continue: true}
	}
	s := c.state

	var sb strings.Builder
	fmt.Fprintf(&sb, "Ralph loop: iteration %d", s.TotalIterations)
	if s.MaxIterations > 0 {
		fmt.Fprintf(&sb, " of %d", s.MaxIterations)
	}
	fmt.Fprintf(&sb, ", session %d.", s.SessionCount)
	sb.WriteString(" Work from previous iterations persists in files; check before redoing anything.")
	if s.CompletionPromise != "" {
		fmt.Fprintf(&sb, " When the task is fully complete, output <promise>%s</promise> to end the loop. Do not output it otherwise.", s.CompletionPromise)
	}
	if s.PendingHandoff {
		sb.WriteString(" A session handoff is pending: record all progress in the plan file now.")
	}

	err := hctx.Caps.SendMessage(ctx, sb.String(), hook.SendOptions{Hidden: true, NoTurn: true})
	return hook.Result{Continue: true, Error: err}
}

// onResume restores loop state from the session's entry log.
func (c *Controller) onResume(ctx context.Context, hctx *hook.Context) hook.Result {
	entry, err := hctx.Caps.LatestEntry(ctx, EntryKind)
	if err != nil || entry == nil {
		return hook.Result{Continue: true}
	}

	state, ok := unmarshalState(entry.Payload)
	if !ok || !state.Active {
		return hook.Result{Continue: true}
	}

	c.state = state
	hctx.Caps.Notify("Ralph loop resumed: iteration %d, session %d", state.TotalIterations, state.SessionCount)
	if state.PendingHandoff {
		hctx.Caps.Warn("A session handoff is still pending, run ralph-handoff to continue")
	}
	return hook.Result{Continue: true}
}

// resubmit advances the counters and sends the original prompt again.
func (c *Controller) resubmit(ctx context.Context, caps hook.Capabilities) error {
	c.state.Iteration++
	c.state.TotalIterations++
	c.persist(ctx, caps)
	return caps.SendMessage(ctx, c.iterationMessage(), hook.SendOptions{})
}

// stop ends the loop: the final inactive state is persisted so a resume
// does not revive it.
func (c *Controller) stop(ctx context.Context, caps hook.Capabilities, reason string) {
	c.state.Active = false
	c.state.PendingHandoff = false
	c.persist(ctx, caps)
	caps.Notify("Ralph loop stopped: %s", reason)
	c.state = nil
}

func (c *Controller) persist(ctx context.Context, caps hook.Capabilities) {
	if err := caps.AppendEntry(ctx, EntryKind, c.state.marshal()); err != nil {
		c.log.Warn("persist_state", map[string]interface{}{"iteration": c.state.TotalIterations}, err)
	}
}

func (c *Controller) iterationMessage() string {
	return fmt.Sprintf("[ralph iteration %d]\n\n%s", c.state.TotalIterations, c.state.Prompt)
}

func (c *Controller) planUpdateRequest() string {
	return fmt.Sprintf(
		"The context window is nearly full and this session will be handed off. Update %s now with: what has been completed, what remains, and anything the next session must know to continue without losing progress.",
		c.state.PlanFile)
}

// contextPercent computes context usage from the last turn's figures.
// Returns -1 when usage or model data is unavailable; an unknown
// percentage never triggers a handoff.
func (c *Controller) contextPercent(ctx context.Context, caps hook.Capabilities) int {
	usage, err := caps.LastUsage(ctx)
	if err != nil {
		return -1
	}
	return domain.ContextPercent(usage, caps.ActiveModel())
}

// lastAssistantText finds the most recent assistant message, preferring
// the one delivered with the event.
func lastAssistantText(ctx context.Context, hctx *hook.Context) (string, bool) {
	if hctx.Message != nil && hctx.Message.Role == domain.RoleAssistant {
		return hctx.Message.Text(), true
	}

	messages, err := hctx.Caps.Messages(ctx)
	if err != nil {
		return "", false
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleAssistant {
			return messages[i].Text(), true
		}
	}
	return "", false
}

func limitText(max int) string {
	if max <= 0 {
		return " (unlimited iterations)"
	}
	return fmt.Sprintf(" (max %d iterations)", max)
}
