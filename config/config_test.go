package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2*time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, 120*time.Second, cfg.Scheduler.MaxProcessing)
	assert.Equal(t, 0, cfg.Scheduler.MaxAttempts, "default policy retries forever")
	assert.Equal(t, 256, cfg.Engine.InboxSize)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
agent:
  address: buyer-1
scheduler:
  tick_interval: 500ms
  max_processing: 10s
  max_attempts: 3
logging:
  level: debug
  format: text
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", cfg.Agent.Address)
	assert.Equal(t, 500*time.Millisecond, cfg.Scheduler.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.MaxProcessing)
	assert.Equal(t, 3, cfg.Scheduler.MaxAttempts)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 256, cfg.Engine.InboxSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIALOGUEMESH_ADDRESS", "env-agent")
	t.Setenv("DIALOGUEMESH_TICK_INTERVAL", "250ms")
	t.Setenv("DIALOGUEMESH_MAX_ATTEMPTS", "5")

	cfg := LoadEnv()
	assert.Equal(t, "env-agent", cfg.Agent.Address)
	assert.Equal(t, 250*time.Millisecond, cfg.Scheduler.TickInterval)
	assert.Equal(t, 5, cfg.Scheduler.MaxAttempts)
}
