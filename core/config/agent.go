// Package config holds the agent configuration shared by the session, agent,
// and server packages. Credentials are never stored in configuration files;
// the config names the environment variables they are read from.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Default environment variable names for provider credentials.
const (
	DefaultAPIKeyEnv  = "CHAT_API_KEY"
	DefaultBaseURLEnv = "CHAT_BASE_URL"
	DefaultModelEnv   = "CHAT_MODEL"
)

// DefaultProvider is the provider used when none is configured.
const DefaultProvider = "openai"

// ErrMissingCredential is returned by Resolve when a required environment
// value is unset or blank.
var ErrMissingCredential = errors.New("missing required environment value")

// LookupFunc reads a value from the execution environment. It matches the
// signature of os.LookupEnv so tests can substitute a map.
type LookupFunc func(key string) (string, bool)

// EnvConfig names the environment variables that hold provider credentials.
type EnvConfig struct {
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
}

// AgentConfig selects a completion provider and where its credentials live.
type AgentConfig struct {
	Provider string    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Env      EnvConfig `json:"env" yaml:"env"`
}

// Credentials are the resolved values required to reach a provider.
type Credentials struct {
	APIKey  string
	BaseURL string
	Model   string
}

// DefaultAgentConfig returns an AgentConfig for an OpenAI-compatible provider
// reading the CHAT_* environment variables.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Provider: DefaultProvider,
		Env: EnvConfig{
			APIKey:  DefaultAPIKeyEnv,
			BaseURL: DefaultBaseURLEnv,
			Model:   DefaultModelEnv,
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *AgentConfig) Merge(source *AgentConfig) {
	if source.Provider != "" {
		c.Provider = source.Provider
	}
	if source.Env.APIKey != "" {
		c.Env.APIKey = source.Env.APIKey
	}
	if source.Env.BaseURL != "" {
		c.Env.BaseURL = source.Env.BaseURL
	}
	if source.Env.Model != "" {
		c.Env.Model = source.Env.Model
	}
}

// Resolve reads all three credentials through lookup. A nil lookup reads the
// process environment. Every missing value is reported in the returned error.
func (c *EnvConfig) Resolve(lookup LookupFunc) (Credentials, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	get := func(key string) string {
		if key == "" {
			missing = append(missing, "(unnamed)")
			return ""
		}
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			missing = append(missing, key)
		}
		return value
	}

	creds := Credentials{
		APIKey:  get(c.APIKey),
		BaseURL: get(c.BaseURL),
		Model:   get(c.Model),
	}

	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s", ErrMissingCredential, strings.Join(missing, ", "))
	}
	return creds, nil
}
