// Package providers implements the wire clients for chat-completion backends.
// Every provider accepts a ChatData and returns a response.ChatResponse so the
// agent layer stays provider-agnostic.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/chat/core/response"
)

// Provider is the interface implemented by every completion backend.
type Provider interface {
	// Name returns the provider identifier ("openai", "azure", ...).
	Name() string
	// BaseURL returns the endpoint root requests are sent to.
	BaseURL() string
	// Chat sends one completion request and blocks until the response
	// arrives, the context ends, or the provider timeout elapses.
	Chat(ctx context.Context, data *ChatData) (*response.ChatResponse, error)
}

// BaseProvider carries the fields shared by all providers.
type BaseProvider struct {
	name    string
	baseURL string
}

// NewBaseProvider creates a BaseProvider. Trailing slashes on baseURL are
// trimmed so endpoint paths can be appended directly.
func NewBaseProvider(name, baseURL string) *BaseProvider {
	return &BaseProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *BaseProvider) Name() string {
	return p.name
}

func (p *BaseProvider) BaseURL() string {
	return p.baseURL
}

// Marshal converts chat data to the OpenAI chat completions request body.
// Options are flattened into the top-level object; model and messages always
// take precedence over same-named options.
func (p *BaseProvider) Marshal(data *ChatData) ([]byte, error) {
	body := make(map[string]any, len(data.Options)+2)
	for k, v := range data.Options {
		body[k] = v
	}
	body["model"] = data.Model
	body["messages"] = data.Messages

	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	return out, nil
}
