package ralph

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Threshold bounds: a handoff below 10% would thrash, above 95% would
// fire after the context is already blown.
const (
	MinContextThreshold = 10
	MaxContextThreshold = 95
)

// Options is the validated configuration for a loop.
type Options struct {
	// Prompt is the text resubmitted every iteration. Required.
	Prompt string
	// MaxIterations stops the loop after N cumulative iterations.
	// 0 means unlimited.
	MaxIterations int
	// CompletionPromise, when set, stops the loop when the assistant
	// emits <promise>CompletionPromise</promise>.
	CompletionPromise string
	// PlanFile is the progress file the agent is asked to update
	// before a context handoff.
	PlanFile string
	// ContextThreshold is the context-usage percentage that triggers
	// a handoff, clamped to [MinContextThreshold, MaxContextThreshold].
	ContextThreshold int
}

// Defaults supplies configurable option defaults.
type Defaults struct {
	ContextThreshold int
}

// Usage describes the start-command argument surface.
const Usage = `ralph <prompt> [--max-iterations N] [--completion-promise "TEXT"] [--plan-file PATH] [--context-threshold N]`

// Parse builds Options from free-form arguments. All validation errors
// are collected and reported together, one per malformed flag.
func Parse(args []string, defaults Defaults) (Options, error) {
	opts := Options{ContextThreshold: defaults.ContextThreshold}
	if opts.ContextThreshold == 0 {
		opts.ContextThreshold = 70
	}

	var errs []error
	var promptParts []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			promptParts = append(promptParts, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg, "=")
		if !hasValue {
			// A following flag is not a value; leave hasValue false so
			// the flag reports its own missing-value error.
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
				i++
				value = args[i]
				hasValue = true
			}
		}

		switch name {
		case "--max-iterations":
			n, err := flagInt(name, value, hasValue)
			if err != nil {
				errs = append(errs, err)
			} else if n < 0 {
				errs = append(errs, fmt.Errorf("%s must not be negative, got %d", name, n))
			} else {
				opts.MaxIterations = n
			}
		case "--completion-promise":
			if !hasValue {
				errs = append(errs, fmt.Errorf("%s requires a value", name))
			} else {
				opts.CompletionPromise = value
			}
		case "--plan-file":
			if !hasValue {
				errs = append(errs, fmt.Errorf("%s requires a value", name))
			} else {
				opts.PlanFile = value
			}
		case "--context-threshold":
			n, err := flagInt(name, value, hasValue)
			if err != nil {
				errs = append(errs, err)
			} else {
				opts.ContextThreshold = clampThreshold(n)
			}
		default:
			errs = append(errs, fmt.Errorf("unknown flag %s", name))
		}
	}

	opts.Prompt = strings.TrimSpace(strings.Join(promptParts, " "))
	if opts.Prompt == "" {
		errs = append(errs, errors.New("prompt is required"))
	}

	if len(errs) > 0 {
		return Options{}, errors.Join(errs...)
	}
	return opts, nil
}

func flagInt(name, value string, hasValue bool) (int, error) {
	if !hasValue {
		return 0, fmt.Errorf("%s requires a value", name)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s expects an integer, got %q", name, value)
	}
	return n, nil
}

func clampThreshold(n int) int {
	if n < MinContextThreshold {
		return MinContextThreshold
	}
	if n > MaxContextThreshold {
		return MaxContextThreshold
	}
	return n
}

// SplitArgs tokenizes a free-form command line, honoring single and
// double quotes so promise texts with spaces survive intact.
func SplitArgs(s string) []string {
	var args []string
	var cur strings.Builder
	var quote byte
	inToken := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inToken = true
		case c == ' ' || c == '\t' || c == '\n':
			if inToken {
				args = append(args, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteByte(c)
			inToken = true
		}
	}
	if inToken {
		args = append(args, cur.String())
	}
	return args
}
