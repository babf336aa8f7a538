package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63")).
			Bold(true)

	panelKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Row is a single key/value line in a status panel.
type Row struct {
	Key   string
	Value string
}

// Panel renders a bordered key/value status panel.
func Panel(title string, rows []Row) string {
	keyWidth := 0
	for _, r := range rows {
		if len(r.Key) > keyWidth {
			keyWidth = len(r.Key)
		}
	}

	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render(title))
	for _, r := range rows {
		sb.WriteString("\n")
		sb.WriteString(panelKeyStyle.Render(pad(r.Key, keyWidth)))
		sb.WriteString("  ")
		sb.WriteString(r.Value)
	}

	return panelStyle.Render(sb.String())
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
