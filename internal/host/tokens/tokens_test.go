package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joss/piext/internal/host/domain"
)

// Exact counts depend on whether the encoding is available, so the
// tests assert ordering properties that hold for both the encoder and
// the character fallback.

func TestCountScalesWithLength(t *testing.T) {
	assert.Equal(t, 0, Count(""))

	short := Count("hello world")
	long := Count(strings.Repeat("hello world ", 50))
	assert.Greater(t, long, short)
}

func TestCountMessageIncludesOverhead(t *testing.T) {
	empty := &domain.Message{Role: domain.RoleUser}
	assert.Equal(t, 4, defaultCounter.CountMessage(empty))

	withText := &domain.Message{
		Role:  domain.RoleUser,
		Parts: []domain.Part{domain.TextPart{Text: strings.Repeat("words and more words ", 20)}},
	}
	assert.Greater(t, defaultCounter.CountMessage(withText), 4)
}

func TestCountMessagesSums(t *testing.T) {
	msg := &domain.Message{
		Role:  domain.RoleAssistant,
		Parts: []domain.Part{domain.TextPart{Text: "some assistant output here"}},
	}
	one := CountMessages([]*domain.Message{msg})
	two := CountMessages([]*domain.Message{msg, msg})
	assert.Equal(t, 2*one, two)
}

func TestToolCallPartsCounted(t *testing.T) {
	bare := &domain.Message{
		Role:  domain.RoleAssistant,
		Parts: []domain.Part{domain.ToolCallPart{Name: "bash"}},
	}
	withResult := &domain.Message{
		Role: domain.RoleAssistant,
		Parts: []domain.Part{domain.ToolCallPart{
			Name:   "bash",
			Args:   map[string]any{"command": "ls -la /some/long/path"},
			Result: strings.Repeat("file.txt\n", 30),
		}},
	}
	assert.Greater(t, defaultCounter.CountMessage(withResult), defaultCounter.CountMessage(bare))
}
