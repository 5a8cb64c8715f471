// Package agent binds a completion provider to a model and credentials.
// An Agent is the single point through which a session reaches the remote
// completion endpoint.
//
//	a, err := agent.New(&cfg, creds, 60*time.Second)
//	resp, err := a.Chat(ctx, messages, map[string]any{"temperature": 0.7})
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/chat/agent/providers"
	"github.com/tailored-agentic-units/chat/core/config"
	"github.com/tailored-agentic-units/chat/core/protocol"
	"github.com/tailored-agentic-units/chat/core/response"
)

// Agent sends conversation context to a completion endpoint.
type Agent interface {
	// ID returns the unique agent identifier.
	ID() string
	// Provider returns the provider name.
	Provider() string
	// Model returns the model identifier sent with each request.
	Model() string
	// Chat issues one completion request for messages. Options are merged
	// into the request body (temperature, max_tokens, ...).
	Chat(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*response.ChatResponse, error)
}

type agent struct {
	id       string
	model    string
	provider providers.Provider
}

// New creates an Agent for the configured provider using resolved
// credentials. Requests are bounded by timeout.
func New(cfg *config.AgentConfig, creds config.Credentials, timeout time.Duration) (Agent, error) {
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}

	var p providers.Provider
	switch cfg.Provider {
	case "", "openai":
		p = providers.NewOpenAI(creds.BaseURL, creds.APIKey, timeout)
	case "azure":
		az, err := providers.NewAzure(creds.BaseURL, creds.APIKey, timeout)
		if err != nil {
			return nil, err
		}
		p = az
	case "mock":
		p = providers.NewEcho()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	return NewWithProvider(p, creds.Model), nil
}

// NewWithProvider creates an Agent around an existing provider.
func NewWithProvider(p providers.Provider, model string) Agent {
	return &agent{
		id:       uuid.Must(uuid.NewV7()).String(),
		model:    model,
		provider: p,
	}
}

func (a *agent) ID() string {
	return a.id
}

func (a *agent) Provider() string {
	return a.provider.Name()
}

func (a *agent) Model() string {
	return a.model
}

func (a *agent) Chat(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*response.ChatResponse, error) {
	options := make(map[string]any)
	for _, o := range opts {
		for k, v := range o {
			options[k] = v
		}
	}

	return a.provider.Chat(ctx, &providers.ChatData{
		Model:    a.model,
		Messages: messages,
		Options:  options,
	})
}
