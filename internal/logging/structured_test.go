package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarnEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("checkpoint").WithSession("sess-9").WithOutput(&buf)

	log.Warn("persist_failed", map[string]interface{}{"path": "/tmp/x"}, errors.New("disk full"))

	var e Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.Equal(t, LevelWarn, e.Level)
	assert.Equal(t, "checkpoint", e.Component)
	assert.Equal(t, "persist_failed", e.Event)
	assert.Equal(t, "sess-9", e.Session)
	assert.Equal(t, "disk full", e.Error)
	assert.Equal(t, "/tmp/x", e.Extra["path"])
	assert.NotEmpty(t, e.Timestamp)
}

func TestLevelFiltering(t *testing.T) {
	t.Setenv("PI_LOG_LEVEL", "error")
	var buf bytes.Buffer
	log := New("ralph").WithOutput(&buf)

	log.Debug("ignored", nil)
	log.Info("ignored", nil)
	log.Warn("ignored", nil, nil)
	assert.Zero(t, buf.Len())

	log.Error("kept", nil, errors.New("boom"))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestUnknownLevelDefaultsToWarn(t *testing.T) {
	t.Setenv("PI_LOG_LEVEL", "chatty")
	var buf bytes.Buffer
	log := New("history").WithOutput(&buf)

	log.Info("ignored", nil)
	assert.Zero(t, buf.Len())
	log.Warn("kept", nil, nil)
	assert.NotZero(t, buf.Len())
}
