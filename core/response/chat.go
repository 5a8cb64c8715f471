// Package response holds the wire types returned by chat-completion providers.
package response

import (
	"encoding/json"
	"fmt"

	"github.com/tailored-agentic-units/chat/core/protocol"
)

// ChatResponse represents the response from an OpenAI-compatible chat
// completions request.
type ChatResponse struct {
	ID      string      `json:"id,omitempty"`
	Object  string      `json:"object,omitempty"`
	Created int64       `json:"created,omitempty"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Choice is a single completion candidate.
type Choice struct {
	Index        int              `json:"index"`
	Message      protocol.Message `json:"message"`
	FinishReason string           `json:"finish_reason,omitempty"`
}

// TokenUsage reports token consumption for a request.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Content returns the content of the first choice, or an empty string when
// the response carries no choices.
func (r *ChatResponse) Content() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// NewChatResponse builds a single-choice assistant response.
func NewChatResponse(model, content string) *ChatResponse {
	return &ChatResponse{
		Model: model,
		Choices: []Choice{{
			Message:      protocol.NewMessage(protocol.RoleAssistant, content),
			FinishReason: "stop",
		}},
	}
}

// ParseChat parses a chat response from JSON bytes.
func ParseChat(body []byte) (*ChatResponse, error) {
	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse chat response: %w", err)
	}
	return &response, nil
}
