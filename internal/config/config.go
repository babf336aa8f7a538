// Package config provides centralized configuration for the extensions.
// Environment variables win over the optional YAML file, which wins over
// built-in defaults.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither environment nor file specify a value.
const (
	DefaultContextThreshold = 70
	DefaultHistoryLimit     = 150
)

// File is the YAML configuration shape at <agent-dir>/config.yaml.
type File struct {
	// AgentDir overrides the agent home directory.
	AgentDir string `yaml:"agent_dir,omitempty"`

	// CheckpointDir overrides where checkpoint files live.
	CheckpointDir string `yaml:"checkpoint_dir,omitempty"`

	Ralph struct {
		// ContextThreshold is the default handoff threshold percentage.
		ContextThreshold int `yaml:"context_threshold,omitempty"`
	} `yaml:"ralph,omitempty"`
}

// Config holds resolved configuration values.
type Config struct {
	// AgentDir is the agent home directory (~/.pi/agent)
	AgentDir string

	// CheckpointDir holds one JSON file per checkpoint
	CheckpointDir string

	// HistoryFile is the persisted input-history path
	HistoryFile string

	// ContextThreshold is the default ralph handoff threshold percentage
	ContextThreshold int

	// LogLevel filters structured log output (PI_LOG_LEVEL)
	LogLevel string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Load returns the singleton configuration.
// Thread-safe, loads once on first call.
func Load() *Config {
	cfgOnce.Do(func() {
		cfg = load()
	})
	return cfg
}

// Reset clears the cached configuration (for testing).
func Reset() {
	cfgOnce = sync.Once{}
	cfg = nil
}

func load() *Config {
	agentDir := os.Getenv("PI_AGENT_DIR")
	if agentDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		agentDir = filepath.Join(home, ".pi", "agent")
	}

	file := readFile(filepath.Join(agentDir, "config.yaml"))
	if file.AgentDir != "" && os.Getenv("PI_AGENT_DIR") == "" {
		agentDir = file.AgentDir
	}

	c := &Config{
		AgentDir:         agentDir,
		CheckpointDir:    filepath.Join(agentDir, "checkpoints"),
		HistoryFile:      filepath.Join(agentDir, "input-history.json"),
		ContextThreshold: DefaultContextThreshold,
		LogLevel:         getEnvDefault("PI_LOG_LEVEL", "warn"),
	}

	if file.CheckpointDir != "" {
		c.CheckpointDir = file.CheckpointDir
	}
	if file.Ralph.ContextThreshold > 0 {
		c.ContextThreshold = file.Ralph.ContextThreshold
	}
	if v := os.Getenv("PI_CONTEXT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ContextThreshold = n
		}
	}

	return c
}

// readFile parses the YAML config file; a missing or malformed file
// yields zero values.
func readFile(path string) File {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}
	}
	return f
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
