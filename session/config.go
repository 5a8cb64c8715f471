package session

import (
	"fmt"
	"time"

	"github.com/tailored-agentic-units/chat/core/config"
	"github.com/tailored-agentic-units/chat/memory"
)

const (
	DefaultMaxHistory     = 20
	DefaultTimeoutSeconds = 60

	// Temperature is the sampling temperature sent with every request.
	Temperature = 0.7
)

// Config holds session initialization parameters. It is copied by New and
// never consulted again, so a Session's configuration is fixed for its
// lifetime.
type Config struct {
	Agent          config.AgentConfig `json:"agent" yaml:"agent"`
	MaxHistory     int                `json:"max_history,omitempty" yaml:"max_history,omitempty"`
	TimeoutSeconds int                `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	SystemPrompt   string             `json:"system_prompt,omitempty" yaml:"system_prompt,omitempty"`
	Memory         memory.Config      `json:"memory" yaml:"memory"`
	// Observer names a registered observer; empty uses the default logger.
	Observer string `json:"observer,omitempty" yaml:"observer,omitempty"`
}

// DefaultConfig returns a Config with the default history bound, timeout,
// and agent environment names.
func DefaultConfig() Config {
	return Config{
		Agent:          config.DefaultAgentConfig(),
		MaxHistory:     DefaultMaxHistory,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Memory:         memory.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
	c.Memory.Merge(&source.Memory)

	if source.MaxHistory > 0 {
		c.MaxHistory = source.MaxHistory
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate reports non-positive bounds.
func (c *Config) Validate() error {
	if c.MaxHistory <= 0 {
		return fmt.Errorf("%w: max_history must be positive, got %d", ErrConfiguration, c.MaxHistory)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: timeout_seconds must be positive, got %d", ErrConfiguration, c.TimeoutSeconds)
	}
	return nil
}

// LoadConfig reads a config file (see config.ReadFile), merges it with
// defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	var loaded Config
	if err := config.ReadFile(filename, &loaded); err != nil {
		return nil, err
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
