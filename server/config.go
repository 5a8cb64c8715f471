package server

import (
	"github.com/tailored-agentic-units/chat/core/config"
	"github.com/tailored-agentic-units/chat/session"
)

const (
	DefaultAddr        = "127.0.0.1:8080"
	DefaultMaxSessions = 1000
)

// Config holds server parameters. Session is the template every new session
// is built from; Agents registers additional named agents clients may pick.
type Config struct {
	Addr        string                        `json:"addr,omitempty" yaml:"addr,omitempty"`
	MaxSessions int                           `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"`
	EventsDB    string                        `json:"events_db,omitempty" yaml:"events_db,omitempty"`
	Session     session.Config                `json:"session" yaml:"session"`
	Agents      map[string]config.AgentConfig `json:"agents,omitempty" yaml:"agents,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        DefaultAddr,
		MaxSessions: DefaultMaxSessions,
		Session:     session.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Session.Merge(&source.Session)

	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.MaxSessions > 0 {
		c.MaxSessions = source.MaxSessions
	}
	if source.EventsDB != "" {
		c.EventsDB = source.EventsDB
	}
	if len(source.Agents) > 0 {
		c.Agents = source.Agents
	}
}

// LoadConfig reads a config file, merges it with defaults, and returns the
// resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	var loaded Config
	if err := config.ReadFile(filename, &loaded); err != nil {
		return nil, err
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
