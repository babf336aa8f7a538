// Package ui provides user-facing notification and confirmation for the
// extensions.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Notifier is what the extensions need for user-facing output.
type Notifier interface {
	Notify(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	// Confirm asks a yes/no question. Returns false when the user
	// declines or when no interactive terminal is attached.
	Confirm(prompt string) bool
}

// Console writes notifications to a terminal.
type Console struct {
	out io.Writer
	in  io.Reader
}

// NewConsole creates a Console writing to stderr and reading from stdin.
func NewConsole() *Console {
	return &Console{out: os.Stderr, in: os.Stdin}
}

// NewConsoleWriter creates a Console with explicit streams.
func NewConsoleWriter(out io.Writer, in io.Reader) *Console {
	return &Console{out: out, in: in}
}

func (c *Console) Notify(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", color.CyanString("•"), fmt.Sprintf(format, args...))
}

func (c *Console) Warn(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", color.YellowString("!"), fmt.Sprintf(format, args...))
}

func (c *Console) Error(format string, args ...any) {
	fmt.Fprintf(c.out, "%s %s\n", color.RedString("✗"), fmt.Sprintf(format, args...))
}

func (c *Console) Confirm(prompt string) bool {
	if f, ok := c.in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false
	}

	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// Recorder captures notifications for tests and scripts confirmations.
type Recorder struct {
	mu       sync.Mutex
	Notices  []string
	Warnings []string
	Errors   []string
	// ConfirmAnswer is returned by Confirm; ConfirmPrompts records the
	// prompts asked.
	ConfirmAnswer  bool
	ConfirmPrompts []string
}

func (r *Recorder) Notify(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, fmt.Sprintf(format, args...))
}

func (r *Recorder) Warn(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Recorder) Error(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Recorder) Confirm(prompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ConfirmPrompts = append(r.ConfirmPrompts, prompt)
	return r.ConfirmAnswer
}
