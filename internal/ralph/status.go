package ralph

import (
	"context"
	"fmt"
	"time"

	"github.com/joss/piext/internal/host/hook"
	"github.com/joss/piext/internal/ui"
)

// StatusText renders the loop status as a panel for display.
func (c *Controller) StatusText(ctx context.Context, caps hook.Capabilities) string {
	if c.state == nil || !c.state.Active {
		return "No active ralph loop"
	}
	s := c.state

	iteration := fmt.Sprintf("%d", s.TotalIterations)
	if s.MaxIterations > 0 {
		iteration = fmt.Sprintf("%d / %d", s.TotalIterations, s.MaxIterations)
	}

	usage := "unknown"
	if pct := c.contextPercent(ctx, caps); pct >= 0 {
		usage = fmt.Sprintf("%d%%", pct)
	}

	rows := []ui.Row{
		{Key: "Prompt", Value: truncatePrompt(s.Prompt, 60)},
		{Key: "Iteration", Value: iteration},
		{Key: "Session", Value: fmt.Sprintf("%d (iteration %d here)", s.SessionCount, s.Iteration)},
		{Key: "Elapsed", Value: time.Since(s.StartedAt).Round(time.Second).String()},
		{Key: "Context", Value: fmt.Sprintf("%s (handoff at %d%%)", usage, s.ContextThreshold)},
	}
	if s.CompletionPromise != "" {
		rows = append(rows, ui.Row{Key: "Promise", Value: s.CompletionPromise})
	}
	if s.PlanFile != "" {
		rows = append(rows, ui.Row{Key: "Plan file", Value: s.PlanFile})
	}
	if s.PendingHandoff {
		rows = append(rows, ui.Row{Key: "Handoff", Value: "pending, run ralph-handoff"})
	}

	return ui.Panel("Ralph loop", rows)
}

func truncatePrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
