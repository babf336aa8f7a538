package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joss/piext/internal/host/domain"
	"github.com/joss/piext/internal/host/tokens"
	"github.com/joss/piext/internal/logging"
)

// Store reads and writes checkpoint files in a single directory.
type Store struct {
	dir string
	log *logging.Logger
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, log: logging.New("checkpoint")}
}

// Dir returns the checkpoint directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save serializes the conversation into a new checkpoint file and
// returns the checkpoint. Hidden messages (injected context) are
// excluded. Returns ErrNoMessages when nothing remains to save.
func (s *Store) Save(messages []*domain.Message, description, directory string) (*Checkpoint, error) {
	visible := make([]*domain.Message, 0, len(messages))
	for _, msg := range messages {
		if !msg.Hidden {
			visible = append(visible, msg)
		}
	}
	if len(visible) == 0 {
		return nil, ErrNoMessages
	}

	cp := &Checkpoint{
		ID:          newID(),
		Description: description,
		Directory:   directory,
		CreatedAt:   time.Now(),
		Transcript:  Transcript(visible),
		Stats:       collectStats(visible),
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}

	if err := os.WriteFile(s.path(cp.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("write checkpoint: %w", err)
	}

	s.log.Info("checkpoint_saved", map[string]interface{}{
		"id":       cp.ID,
		"messages": cp.Stats.MessageCount,
	})
	return cp, nil
}

// Load reads a checkpoint by id. A missing file or malformed JSON both
// report not-found rather than an error.
func (s *Store) Load(id string) (*Checkpoint, bool) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, false
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		s.log.Warn("checkpoint_corrupt", map[string]interface{}{"id": id}, err)
		return nil, false
	}
	return &cp, true
}

// List returns summaries of all checkpoints, newest first. Unparseable
// files are skipped.
func (s *Store) List() []Summary {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var out []Summary
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(de.Name(), ".json")
		cp, ok := s.Load(id)
		if !ok {
			continue
		}
		out = append(out, Summary{
			ID:          cp.ID,
			Description: cp.Description,
			Directory:   cp.Directory,
			CreatedAt:   cp.CreatedAt,
			Stats:       cp.Stats,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete removes a checkpoint file, reporting whether one was removed.
func (s *Store) Delete(id string) bool {
	err := os.Remove(s.path(id))
	return err == nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, sanitizeID(id)+".json")
}

func collectStats(messages []*domain.Message) Stats {
	stats := Stats{MessageCount: len(messages)}
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			stats.UserMessages++
		case domain.RoleAssistant:
			stats.AssistantMessages++
			stats.ToolCalls += msg.ToolCalls()
		}
	}
	stats.TokenEstimate = tokens.CountMessages(messages)
	return stats
}
