package domain

import (
	"time"
)

// Message represents a single message in a session
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionID"`
	Role      Role      `json:"role"`
	Parts     []Part    `json:"parts"`
	Hidden    bool      `json:"hidden,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Text returns the concatenated text content of the message.
func (m *Message) Text() string {
	var out string
	for _, part := range m.Parts {
		if p, ok := part.(TextPart); ok {
			if out != "" {
				out += "\n"
			}
			out += p.Text
		}
	}
	return out
}

// ToolCalls counts the tool invocation parts in the message.
func (m *Message) ToolCalls() int {
	n := 0
	for _, part := range m.Parts {
		if _, ok := part.(ToolCallPart); ok {
			n++
		}
	}
	return n
}

// Part represents content within a message
type Part interface {
	PartType() string
}

type TextPart struct {
	Text string `json:"text"`
}

func (p TextPart) PartType() string { return "text" }

type ReasoningPart struct {
	Text string `json:"text"`
}

func (p ReasoningPart) PartType() string { return "reasoning" }

type ToolCallPart struct {
	ToolID   string         `json:"toolID"`
	Name     string         `json:"name"`
	Args     map[string]any `json:"args"`
	Result   string         `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
}

func (p ToolCallPart) PartType() string { return "tool_call" }
