package providers

import (
	"context"
	"fmt"

	"github.com/tailored-agentic-units/chat/core/protocol"
	"github.com/tailored-agentic-units/chat/core/response"
)

// Echo is an offline provider that answers with the last user message and
// the size of the context it was given. Useful for demos without network
// access.
type Echo struct {
	*BaseProvider
}

// NewEcho creates an Echo provider.
func NewEcho() *Echo {
	return &Echo{BaseProvider: NewBaseProvider("mock", "")}
}

func (p *Echo) Chat(ctx context.Context, data *ChatData) (*response.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mock: %w: %w", ErrConnection, err)
	}

	var last string
	for i := len(data.Messages) - 1; i >= 0; i-- {
		if data.Messages[i].Role == protocol.RoleUser {
			last = data.Messages[i].Content
			break
		}
	}

	content := fmt.Sprintf("echo: %s (context: %d messages)", last, len(data.Messages))
	return response.NewChatResponse(data.Model, content), nil
}
