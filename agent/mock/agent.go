// Package mock provides a scriptable Agent for tests.
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/chat/agent"
	"github.com/tailored-agentic-units/chat/core/protocol"
	"github.com/tailored-agentic-units/chat/core/response"
)

var _ agent.Agent = (*MockAgent)(nil)

// Reply is one scripted outcome: a response or an error.
type Reply struct {
	Response *response.ChatResponse
	Err      error
}

// Call records the arguments of one Chat invocation.
type Call struct {
	Messages []protocol.Message
	Options  map[string]any
}

// MockAgent returns scripted replies in order. Once the script is exhausted
// it answers with the default response.
type MockAgent struct {
	id       string
	provider string
	model    string
	replies  []Reply
	contents []string
	fallback Reply
	hook     func(ctx context.Context)

	mu    sync.Mutex
	calls []Call
}

// Option configures a MockAgent.
type Option func(*MockAgent)

// WithID sets the agent ID.
func WithID(id string) Option {
	return func(m *MockAgent) { m.id = id }
}

// WithModel sets the reported model.
func WithModel(model string) Option {
	return func(m *MockAgent) { m.model = model }
}

// WithReplies scripts successive replies. They are answered before any
// WithContent replies.
func WithReplies(replies ...Reply) Option {
	return func(m *MockAgent) { m.replies = append(m.replies, replies...) }
}

// WithContent scripts successive successful text replies, stamped with the
// agent's final model.
func WithContent(contents ...string) Option {
	return func(m *MockAgent) { m.contents = append(m.contents, contents...) }
}

// WithError makes every unscripted call fail with err.
func WithError(err error) Option {
	return func(m *MockAgent) { m.fallback = Reply{Err: err} }
}

// WithHook runs fn at the start of every Chat call, before a reply is chosen.
func WithHook(fn func(ctx context.Context)) Option {
	return func(m *MockAgent) { m.hook = fn }
}

// NewMockAgent creates a MockAgent. Without scripted replies it answers
// "mock response".
func NewMockAgent(opts ...Option) *MockAgent {
	m := &MockAgent{
		id:       "mock-agent",
		provider: "mock",
		model:    "mock-model",
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, c := range m.contents {
		m.replies = append(m.replies, Reply{Response: response.NewChatResponse(m.model, c)})
	}
	if m.fallback.Response == nil && m.fallback.Err == nil {
		m.fallback = Reply{Response: response.NewChatResponse(m.model, "mock response")}
	}
	return m
}

func (m *MockAgent) ID() string       { return m.id }
func (m *MockAgent) Provider() string { return m.provider }
func (m *MockAgent) Model() string    { return m.model }

func (m *MockAgent) Chat(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*response.ChatResponse, error) {
	if m.hook != nil {
		m.hook(ctx)
	}

	options := make(map[string]any)
	for _, o := range opts {
		for k, v := range o {
			options[k] = v
		}
	}

	m.mu.Lock()
	i := len(m.calls)
	m.calls = append(m.calls, Call{Messages: slices.Clone(messages), Options: options})
	reply := m.fallback
	if i < len(m.replies) {
		reply = m.replies[i]
	}
	m.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.Response, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockAgent) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}
