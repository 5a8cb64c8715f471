package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	"github.com/tailored-agentic-units/chat/core/protocol"
	"github.com/tailored-agentic-units/chat/core/response"
)

// Azure implements Provider with the Azure SDK OpenAI client in
// OpenAI-compatible mode, authenticating with an API key.
type Azure struct {
	*BaseProvider
	client *azopenai.Client
}

// NewAzure creates an Azure SDK backed provider. The model from ChatData is
// sent as the deployment name. Each Chat makes exactly one request; the SDK
// retry policy is disabled.
func NewAzure(baseURL, apiKey string, timeout time.Duration) (*Azure, error) {
	return newAzure(baseURL, apiKey, &http.Client{Timeout: timeout})
}

func newAzure(baseURL, apiKey string, httpClient *http.Client) (*Azure, error) {
	base := NewBaseProvider("azure", baseURL)

	client, err := azopenai.NewClientForOpenAI(base.BaseURL(), azcore.NewKeyCredential(apiKey), &azopenai.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: httpClient,
			Retry:     policy.RetryOptions{MaxRetries: -1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("azure: creating client: %w", err)
	}

	return &Azure{BaseProvider: base, client: client}, nil
}

func (p *Azure) Chat(ctx context.Context, data *ChatData) (*response.ChatResponse, error) {
	opts := azopenai.ChatCompletionsOptions{
		Messages:       toAzureMessages(data.Messages),
		DeploymentName: to.Ptr(data.Model),
		N:              to.Ptr(int32(1)),
	}
	if temperature, ok := data.Temperature(); ok {
		opts.Temperature = to.Ptr(float32(temperature))
	}

	resp, err := p.client.GetChatCompletions(ctx, opts, nil)
	if err != nil {
		return nil, fromAzureError(err)
	}

	return fromAzureCompletions(data.Model, resp.ChatCompletions), nil
}

func toAzureMessages(messages []protocol.Message) []azopenai.ChatRequestMessageClassification {
	out := make([]azopenai.ChatRequestMessageClassification, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case protocol.RoleSystem:
			out = append(out, &azopenai.ChatRequestSystemMessage{Content: to.Ptr(m.Content)})
		case protocol.RoleAssistant:
			out = append(out, &azopenai.ChatRequestAssistantMessage{Content: to.Ptr(m.Content)})
		default:
			out = append(out, &azopenai.ChatRequestUserMessage{Content: azopenai.NewChatRequestUserMessageContent(m.Content)})
		}
	}
	return out
}

func fromAzureCompletions(model string, completions azopenai.ChatCompletions) *response.ChatResponse {
	result := &response.ChatResponse{Model: model}
	if completions.ID != nil {
		result.ID = *completions.ID
	}

	for i, choice := range completions.Choices {
		if choice.Message == nil || choice.Message.Content == nil {
			continue
		}
		c := response.Choice{
			Index:   i,
			Message: protocol.NewMessage(protocol.RoleAssistant, *choice.Message.Content),
		}
		if choice.FinishReason != nil {
			c.FinishReason = string(*choice.FinishReason)
		}
		result.Choices = append(result.Choices, c)
	}

	if u := completions.Usage; u != nil {
		result.Usage = &response.TokenUsage{
			PromptTokens:     int(deref(u.PromptTokens)),
			CompletionTokens: int(deref(u.CompletionTokens)),
			TotalTokens:      int(deref(u.TotalTokens)),
		}
	}
	return result
}

func fromAzureError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return azureStatusError(respErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("azure: %w: %w", ErrConnection, err)
	}
	return fmt.Errorf("azure: %w", err)
}

// azureStatusError keeps only the provider's error message from the body.
// The SDK's own error text includes the request URL and the raw response.
func azureStatusError(respErr *azcore.ResponseError) *StatusError {
	statusErr := &StatusError{
		Provider:   "azure",
		StatusCode: respErr.StatusCode,
		Message:    http.StatusText(respErr.StatusCode),
	}

	if respErr.RawResponse != nil {
		if body, err := runtime.Payload(respErr.RawResponse); err == nil {
			if parsed := parseStatusError("azure", respErr.StatusCode, body); parsed != nil {
				statusErr = parsed
			}
		}
	}

	if respErr.ErrorCode != "" {
		statusErr.Type = respErr.ErrorCode
	}
	return statusErr
}

func deref(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
