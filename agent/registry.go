package agent

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tailored-agentic-units/chat/core/config"
)

// AgentInfo describes a registered agent's name and provider.
type AgentInfo struct {
	Name     string
	Provider string
}

// Registry manages named agent configurations with lazy instantiation.
// Configs are stored at registration time; credentials are resolved and
// agents created on first Get call. Thread-safe for concurrent access.
type Registry struct {
	mu      sync.RWMutex
	lookup  config.LookupFunc
	timeout time.Duration
	configs map[string]config.AgentConfig
	agents  map[string]Agent
}

// NewRegistry creates an empty Registry. Credentials are read through lookup
// (nil reads the process environment) and every agent uses timeout.
func NewRegistry(lookup config.LookupFunc, timeout time.Duration) *Registry {
	return &Registry{
		lookup:  lookup,
		timeout: timeout,
		configs: make(map[string]config.AgentConfig),
		agents:  make(map[string]Agent),
	}
}

// Get retrieves a named agent, instantiating it lazily on first access.
func (r *Registry) Get(name string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, registered := r.configs[name]
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	if a, exists := r.agents[name]; exists {
		return a, nil
	}

	creds, err := cfg.Env.Resolve(r.lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve credentials for agent %q: %w", name, err)
	}

	a, err := New(&cfg, creds, r.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent %q: %w", name, err)
	}

	r.agents[name] = a
	return a, nil
}

// List returns information about all registered agents, sorted by name.
func (r *Registry) List() []AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]AgentInfo, 0, len(r.configs))
	for name, cfg := range r.configs {
		provider := cfg.Provider
		if provider == "" {
			provider = config.DefaultProvider
		}
		infos = append(infos, AgentInfo{Name: name, Provider: provider})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos
}

// Register adds a named agent configuration to the registry.
// The agent is not instantiated until Get is called.
func (r *Registry) Register(name string, cfg config.AgentConfig) error {
	if name == "" {
		return ErrEmptyAgentName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; exists {
		return fmt.Errorf("%w: %s", ErrAgentExists, name)
	}

	r.configs[name] = cfg
	return nil
}

// Replace updates the configuration for an existing named agent.
// Any cached agent instance is invalidated; the next Get re-instantiates.
func (r *Registry) Replace(name string, cfg config.AgentConfig) error {
	if name == "" {
		return ErrEmptyAgentName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; !exists {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	r.configs[name] = cfg
	delete(r.agents, name)
	return nil
}

// Unregister removes a named agent from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.configs[name]; !exists {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	delete(r.configs, name)
	delete(r.agents, name)
	return nil
}
