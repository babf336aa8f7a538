package checkpoint

import (
	"fmt"
	"strings"

	"github.com/joss/piext/internal/host/domain"
)

// Transcript renders messages into an LLM-consumable textual form:
// role-labelled text blocks with one-line tool-call summaries.
func Transcript(messages []*domain.Message) string {
	var sb strings.Builder

	for i, msg := range messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(string(msg.Role))
		sb.WriteString(":\n")

		first := true
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case domain.TextPart:
				if !first {
					sb.WriteString("\n")
				}
				sb.WriteString(p.Text)
				first = false
			case domain.ToolCallPart:
				if !first {
					sb.WriteString("\n")
				}
				sb.WriteString(toolCallLine(p))
				first = false
			}
			// Reasoning parts are model-internal and not replayed.
		}
	}

	return sb.String()
}

func toolCallLine(p domain.ToolCallPart) string {
	line := fmt.Sprintf("[tool: %s]", p.Name)
	if p.Error != "" {
		return line + " error: " + firstLine(p.Error)
	}
	if p.Result != "" {
		return line + " " + firstLine(p.Result)
	}
	return line
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	if len(s) > 200 {
		s = s[:200] + "…"
	}
	return s
}
