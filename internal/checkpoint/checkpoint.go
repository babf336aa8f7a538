// Package checkpoint persists and restores conversation snapshots as
// one human-inspectable JSON file per checkpoint.
//
// Checkpoints are deliberately append-only and file-per-id, optimized
// for manual recovery and sharing rather than high-volume storage.
package checkpoint

import (
	"crypto/rand"
	"errors"
	"time"
)

// ErrNoMessages is returned when a save is attempted on an empty session.
var ErrNoMessages = errors.New("no messages to checkpoint")

// Checkpoint is a saved snapshot of a conversation.
type Checkpoint struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Directory   string    `json:"directory"`
	CreatedAt   time.Time `json:"createdAt"`
	Transcript  string    `json:"transcript"`
	Stats       Stats     `json:"stats"`
}

// Stats summarizes the checkpointed conversation.
type Stats struct {
	MessageCount      int `json:"messageCount"`
	UserMessages      int `json:"userMessages"`
	AssistantMessages int `json:"assistantMessages"`
	ToolCalls         int `json:"toolCalls"`
	TokenEstimate     int `json:"tokenEstimate,omitempty"`
}

// Summary is the listing view of a checkpoint, without the transcript.
type Summary struct {
	ID          string    `json:"id"`
	Description string    `json:"description,omitempty"`
	Directory   string    `json:"directory"`
	CreatedAt   time.Time `json:"createdAt"`
	Stats       Stats     `json:"stats"`
}

// idAlphabet excludes visually ambiguous characters (0/O, 1/l/I).
const idAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ"

const idLength = 6

// newID generates a random 6-character checkpoint id. Collisions are
// not retried; the id space (54^6) makes them astronomically unlikely
// at human checkpoint volumes.
func newID() string {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken anyway;
		// fall back to a time-derived id rather than crashing the host.
		return fallbackID(uint64(time.Now().UnixNano()))
	}
	for i := range buf {
		buf[i] = idAlphabet[int(buf[i])%len(idAlphabet)]
	}
	return string(buf)
}

// fallbackID derives an id from a seed. The seed stays unsigned all
// the way through so the modulo can never produce a negative index.
func fallbackID(seed uint64) string {
	buf := make([]byte, idLength)
	for i := range buf {
		buf[i] = idAlphabet[(seed>>uint(i*8))%uint64(len(idAlphabet))]
	}
	return string(buf)
}

// sanitizeID keeps ids filesystem-safe: anything outside [A-Za-z0-9_-]
// becomes an underscore.
func sanitizeID(id string) string {
	out := []byte(id)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
