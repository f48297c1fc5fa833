// Package config loads DialogueMesh settings from a YAML file with optional
// environment overrides. A .env file is honoured when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AgentConfig identifies the local agent.
type AgentConfig struct {
	Address string `yaml:"address"`
}

// EngineConfig tunes the control loop.
type EngineConfig struct {
	// InboxSize is the buffer of the inbound envelope channel a transport
	// should allocate for the engine.
	InboxSize int `yaml:"inbox_size"`
}

// SchedulerConfig tunes the request scheduler.
type SchedulerConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	MaxProcessing time.Duration `yaml:"max_processing"`
	// MaxAttempts caps submission attempts per request; 0 retries forever.
	MaxAttempts int `yaml:"max_attempts"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root configuration structure.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Engine    EngineConfig    `yaml:"engine"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{InboxSize: 256},
		Scheduler: SchedulerConfig{
			TickInterval:  2 * time.Second,
			MaxProcessing: 120 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadEnv returns the defaults with environment overrides only, for
// deployments that configure everything through the environment.
func LoadEnv() Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// applyEnv overlays DIALOGUEMESH_* environment variables. A .env file is
// loaded first if present; a missing file is not an error.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("DIALOGUEMESH_ADDRESS"); v != "" {
		c.Agent.Address = v
	}
	if v := os.Getenv("DIALOGUEMESH_INBOX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Engine.InboxSize = n
		}
	}
	if v := os.Getenv("DIALOGUEMESH_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Scheduler.TickInterval = d
		}
	}
	if v := os.Getenv("DIALOGUEMESH_MAX_PROCESSING"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Scheduler.MaxProcessing = d
		}
	}
	if v := os.Getenv("DIALOGUEMESH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Scheduler.MaxAttempts = n
		}
	}
	if v := os.Getenv("DIALOGUEMESH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DIALOGUEMESH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}
