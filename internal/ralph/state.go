package ralph

import (
	"encoding/json"
	"regexp"
	"time"
)

// EntryKind is the kind under which loop state is persisted in the
// host's session entry log.
const EntryKind = "ralph-state"

// State is the loop controller's persistent state. It is written to the
// session entry log after every mutation so a resumed session picks the
// loop back up.
type State struct {
	Active            bool      `json:"active"`
	Prompt            string    `json:"prompt"`
	Iteration         int       `json:"iteration"`       // within the current session
	TotalIterations   int       `json:"totalIterations"` // across handoffs
	MaxIterations     int       `json:"maxIterations"`   // 0 = unlimited
	CompletionPromise string    `json:"completionPromise,omitempty"`
	PlanFile          string    `json:"planFile,omitempty"`
	ContextThreshold  int       `json:"contextThreshold"`
	StartedAt         time.Time `json:"startedAt"`
	SessionCount      int       `json:"sessionCount"`
	PendingHandoff    bool      `json:"pendingHandoff"`
	// ThresholdWarned suppresses repeat warnings while usage stays
	// above the threshold with no plan file configured.
	ThresholdWarned bool `json:"thresholdWarned,omitempty"`
}

func (s *State) marshal() []byte {
	data, _ := json.Marshal(s)
	return data
}

func unmarshalState(data []byte) (*State, bool) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return &s, true
}

var promisePattern = regexp.MustCompile(`<promise>(.*?)</promise>`)

// promiseMatches reports whether the text contains a promise marker
// whose enclosed text exactly equals the configured promise. Markers
// are scanned last-to-first so the assistant's final word wins.
func promiseMatches(text, promise string) bool {
	if promise == "" {
		return false
	}
	matches := promisePattern.FindAllStringSubmatch(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if matches[i][1] == promise {
			return true
		}
	}
	return false
}
