package agent

import "errors"

// Sentinel errors for agent construction and the registry.
var (
	ErrAgentNotFound   = errors.New("agent not found")
	ErrAgentExists     = errors.New("agent already registered")
	ErrEmptyAgentName  = errors.New("agent name is empty")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidTimeout  = errors.New("timeout must be positive")
)
