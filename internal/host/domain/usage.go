package domain

import (
	"fmt"
	"time"
)

// TurnUsage records token accounting for a single agent turn.
type TurnUsage struct {
	SessionID    string    `json:"sessionID"`
	InputTokens  int       `json:"inputTokens"`
	OutputTokens int       `json:"outputTokens"`
	CacheRead    int       `json:"cacheRead,omitempty"`
	CacheWrite   int       `json:"cacheWrite,omitempty"`
	RecordedAt   time.Time `json:"recordedAt"`
}

// ContextTokens returns the tokens occupying the model context after the
// turn: everything the model read plus everything it produced.
func (u *TurnUsage) ContextTokens() int {
	return u.InputTokens + u.CacheRead + u.CacheWrite + u.OutputTokens
}

// Model describes the active model as far as the extensions care:
// an identifier and a context-window size in tokens.
type Model struct {
	ID            string `json:"id"`
	ContextWindow int    `json:"contextWindow"`
}

// ContextPercent computes the rounded percentage of the model context
// consumed by the given usage. Returns -1 when either side is unknown,
// so callers can distinguish "unknown" from "0%". Values above 100 are
// possible and intentionally not clamped.
func ContextPercent(usage *TurnUsage, model *Model) int {
	if usage == nil || model == nil || model.ContextWindow <= 0 {
		return -1
	}
	used := usage.ContextTokens()
	if used <= 0 {
		return -1
	}
	return int(float64(used)/float64(model.ContextWindow)*100 + 0.5)
}

// FormatTokens returns a human-readable token count
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}
