// Package history keeps a bounded, deduplicating buffer of past user
// inputs, persisted as a JSON array (most-recent-first).
//
// History is best-effort: persistence failures are swallowed and a
// missing or corrupt file just means starting empty.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joss/piext/internal/logging"
)

// MaxEntries caps the buffer; the oldest entries are dropped first.
const MaxEntries = 150

// Buffer is an ordered input history, index 0 being the most recent.
type Buffer struct {
	entries []string
	path    string // empty for in-memory buffers
	log     *logging.Logger
}

// NewMemory creates a transient in-memory buffer with no persistence.
func NewMemory() *Buffer {
	return &Buffer{log: logging.New("history")}
}

// NewFile creates a file-backed buffer, loading any existing history.
// A missing or unreadable file starts the buffer empty; non-string
// elements in the stored array are dropped.
func NewFile(path string) *Buffer {
	b := &Buffer{path: path, log: logging.New("history")}
	b.load()
	return b
}

func (b *Buffer) load() {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		b.log.Warn("history_corrupt", map[string]interface{}{"path": b.path}, err)
		return
	}

	for _, v := range raw {
		if s, ok := v.(string); ok {
			b.entries = append(b.entries, s)
		}
	}
	if len(b.entries) > MaxEntries {
		b.entries = b.entries[:MaxEntries]
	}
}

// Add records an input. Empty (after trimming) inputs and inputs equal
// to the current most-recent entry are ignored.
func (b *Buffer) Add(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if len(b.entries) > 0 && b.entries[0] == text {
		return
	}

	b.entries = append([]string{text}, b.entries...)
	if len(b.entries) > MaxEntries {
		b.entries = b.entries[:MaxEntries]
	}

	b.persist()
}

// All returns a copy of the history, most recent first.
func (b *Buffer) All() []string {
	out := make([]string, len(b.entries))
	copy(out, b.entries)
	return out
}

// Get returns the entry at index (0 = most recent) and whether it exists.
func (b *Buffer) Get(index int) (string, bool) {
	if index < 0 || index >= len(b.entries) {
		return "", false
	}
	return b.entries[index], true
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Clear empties the buffer and persists the empty state.
func (b *Buffer) Clear() {
	b.entries = nil
	b.persist()
}

// persist writes the buffer to disk. Failures are logged and otherwise
// ignored; history is never a correctness requirement.
func (b *Buffer) persist() {
	if b.path == "" {
		return
	}

	data, err := json.Marshal(b.entriesOrEmpty())
	if err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		b.log.Warn("history_persist", map[string]interface{}{"path": b.path}, err)
		return
	}
	if err := os.WriteFile(b.path, data, 0644); err != nil {
		b.log.Warn("history_persist", map[string]interface{}{"path": b.path}, err)
	}
}

// entriesOrEmpty keeps the persisted form a JSON array, never null.
func (b *Buffer) entriesOrEmpty() []string {
	if b.entries == nil {
		return []string{}
	}
	return b.entries
}
