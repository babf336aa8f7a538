package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFresh(t *testing.T) *Config {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	return Load()
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PI_AGENT_DIR", dir)
	t.Setenv("PI_CONTEXT_THRESHOLD", "")
	t.Setenv("PI_LOG_LEVEL", "")

	c := loadFresh(t)
	assert.Equal(t, dir, c.AgentDir)
	assert.Equal(t, filepath.Join(dir, "checkpoints"), c.CheckpointDir)
	assert.Equal(t, filepath.Join(dir, "input-history.json"), c.HistoryFile)
	assert.Equal(t, DefaultContextThreshold, c.ContextThreshold)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestFileOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PI_AGENT_DIR", dir)
	t.Setenv("PI_CONTEXT_THRESHOLD", "")

	yaml := "checkpoint_dir: /var/checkpoints\nralph:\n  context_threshold: 55\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	c := loadFresh(t)
	assert.Equal(t, "/var/checkpoints", c.CheckpointDir)
	assert.Equal(t, 55, c.ContextThreshold)
}

func TestEnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PI_AGENT_DIR", dir)
	t.Setenv("PI_CONTEXT_THRESHOLD", "85")

	yaml := "ralph:\n  context_threshold: 55\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	c := loadFresh(t)
	assert.Equal(t, 85, c.ContextThreshold)
}

func TestMalformedFileIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PI_AGENT_DIR", dir)
	t.Setenv("PI_CONTEXT_THRESHOLD", "")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0o644))

	c := loadFresh(t)
	assert.Equal(t, DefaultContextThreshold, c.ContextThreshold)
	assert.Equal(t, filepath.Join(dir, "checkpoints"), c.CheckpointDir)
}

func TestBadThresholdEnvIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PI_AGENT_DIR", dir)
	t.Setenv("PI_CONTEXT_THRESHOLD", "lots")

	c := loadFresh(t)
	assert.Equal(t, DefaultContextThreshold, c.ContextThreshold)
}

func TestLoadIsCached(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PI_AGENT_DIR", dir)

	c := loadFresh(t)
	assert.Same(t, c, Load())
}
