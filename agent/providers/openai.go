package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tailored-agentic-units/chat/core/response"
)

// OpenAI implements Provider for any API that speaks the OpenAI chat
// completions wire format (OpenAI, DeepSeek, Qwen, vLLM, Ollama, ...).
type OpenAI struct {
	*BaseProvider
	apiKey     string
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider. Requests are sent to
// {baseURL}/chat/completions and bounded by timeout.
func NewOpenAI(baseURL, apiKey string, timeout time.Duration) *OpenAI {
	return &OpenAI{
		BaseProvider: NewBaseProvider("openai", baseURL),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (p *OpenAI) Chat(ctx context.Context, data *ChatData) (*response.ChatResponse, error) {
	body, err := p.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %w: %w", ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, readStatusError(p.Name(), resp)
	}

	var result response.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("openai: decoding response: %w", err)
	}
	return &result, nil
}
