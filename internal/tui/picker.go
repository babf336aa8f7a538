// Package tui provides the Bubble Tea interactive checkpoint picker.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/piext/internal/checkpoint"
)

// checkpointItem implements list.Item for the picker
type checkpointItem struct {
	summary checkpoint.Summary
}

func (i checkpointItem) Title() string {
	desc := i.summary.Description
	if desc == "" {
		desc = "(no description)"
	}
	return fmt.Sprintf("%s  %s", i.summary.ID, desc)
}

func (i checkpointItem) Description() string {
	return fmt.Sprintf("%s · %d messages · %d tool calls",
		i.summary.CreatedAt.Format("2006-01-02 15:04"),
		i.summary.Stats.MessageCount,
		i.summary.Stats.ToolCalls)
}

func (i checkpointItem) FilterValue() string {
	return i.summary.ID + " " + i.summary.Description
}

// Picker is the interactive checkpoint selector
type Picker struct {
	list     list.Model
	selected *checkpoint.Summary
	quitting bool
}

// NewPicker creates a picker over the given summaries.
func NewPicker(summaries []checkpoint.Summary) *Picker {
	items := make([]list.Item, len(summaries))
	for i, s := range summaries {
		items[i] = checkpointItem{summary: s}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("205")).
		BorderForeground(lipgloss.Color("205"))

	l := list.New(items, delegate, 72, 18)
	l.Title = "Select checkpoint"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	return &Picker{list: l}
}

func (p *Picker) Init() tea.Cmd {
	return nil
}

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.list.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := p.list.SelectedItem().(checkpointItem); ok {
				s := item.summary
				p.selected = &s
			}
			p.quitting = true
			return p, tea.Quit
		case "esc", "q", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p *Picker) View() string {
	if p.quitting {
		return ""
	}
	return p.list.View()
}

// Selected returns the chosen checkpoint, or nil when cancelled.
func (p *Picker) Selected() *checkpoint.Summary {
	return p.selected
}

// Pick runs the picker and returns the selected checkpoint id, or ""
// when the user cancels.
func Pick(summaries []checkpoint.Summary) (string, error) {
	picker := NewPicker(summaries)
	model, err := tea.NewProgram(picker).Run()
	if err != nil {
		return "", fmt.Errorf("run picker: %w", err)
	}

	p, ok := model.(*Picker)
	if !ok || p.Selected() == nil {
		return "", nil
	}
	return p.Selected().ID, nil
}
