// Package session implements a bounded-history chat session: a rolling
// message log of fixed capacity mediated through one remote completion call
// per turn.
//
// A Session is built from configuration by New. Credentials are read from
// the environment variables the configuration names, and construction fails
// before any remote call if one is missing.
//
//	s, err := session.New(&cfg)
//	out, err := s.Chat(ctx, "Who was Ada Lovelace?")
//	fmt.Println(out.Text())
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/chat/agent"
	"github.com/tailored-agentic-units/chat/core/config"
	"github.com/tailored-agentic-units/chat/core/protocol"
	"github.com/tailored-agentic-units/chat/history"
	"github.com/tailored-agentic-units/chat/memory"
	"github.com/tailored-agentic-units/chat/observability"
	"github.com/tailored-agentic-units/chat/tokens"
)

// State is the position of a Session in its turn cycle.
type State int32

const (
	Idle State = iota
	AwaitingCompletion
)

func (s State) String() string {
	if s == AwaitingCompletion {
		return "awaiting_completion"
	}
	return "idle"
}

// Option supplies a subsystem New would otherwise build from configuration.
type Option func(*Session)

// WithAgent uses a instead of creating one from the configured provider.
// Credentials are not read from the environment.
func WithAgent(a agent.Agent) Option {
	return func(s *Session) { s.agent = a }
}

// WithHistory replaces the bounded in-memory history. Its capacity takes the
// place of Config.MaxHistory.
func WithHistory(h history.History) Option {
	return func(s *Session) { s.history = h }
}

// WithObserver overrides the configured observer.
func WithObserver(o observability.Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithMemoryStore overrides the config-created prompt store.
func WithMemoryStore(m memory.Store) Option {
	return func(s *Session) { s.store = m }
}

// WithTokenCounter sets the counter used by Stats.
func WithTokenCounter(c tokens.Counter) Option {
	return func(s *Session) { s.counter = c }
}

// WithLookup reads credentials through lookup instead of the process
// environment.
func WithLookup(lookup config.LookupFunc) Option {
	return func(s *Session) { s.lookup = lookup }
}

// Session is one logical chat thread. Turns on the same Session are
// serialized; distinct Sessions share nothing.
type Session struct {
	id       string
	agent    agent.Agent
	history  history.History
	store    memory.Store
	observer observability.Observer
	counter  tokens.Counter
	lookup   config.LookupFunc
	timeout  time.Duration
	system   string

	mu          sync.Mutex
	state       atomic.Int32
	counterOnce sync.Once
}

// New creates a Session from configuration. Bounds are validated, the
// system prompt is composed from Config.SystemPrompt and the prompt store,
// and the agent is created from credentials found in the environment.
// Every failure wraps ErrConfiguration.
func New(cfg *Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		id:      uuid.Must(uuid.NewV7()).String(),
		timeout: cfg.Timeout(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.observer == nil {
		if cfg.Observer != "" {
			obs, err := observability.GetObserver(cfg.Observer)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
			}
			s.observer = obs
		} else {
			s.observer = observability.NewSlogObserver(slog.Default())
		}
	}

	if s.history == nil {
		s.history = history.NewBounded(cfg.MaxHistory)
	}

	if s.store == nil {
		store, err := memory.NewStore(&cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create memory store: %v", ErrConfiguration, err)
		}
		s.store = store
	}

	system, err := memory.Compose(context.Background(), s.store, cfg.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	s.system = system

	if s.agent == nil {
		creds, err := cfg.Agent.Env.Resolve(s.lookup)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}

		a, err := agent.New(&cfg.Agent, creds, s.timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create agent: %w", ErrConfiguration, err)
		}
		s.agent = a
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Model returns the model identifier sent with each request.
func (s *Session) Model() string {
	return s.agent.Model()
}

// SystemPrompt returns the composed system prompt, or "" when none is set.
func (s *Session) SystemPrompt() string {
	return s.system
}

// State reports whether a turn is in flight.
func (s *Session) State() State {
	return State(s.state.Load())
}

// History returns a copy of the retained messages, oldest first.
func (s *Session) History() []protocol.Message {
	return s.history.Messages()
}

// Len returns the number of retained messages.
func (s *Session) Len() int {
	return s.history.Len()
}

// Chat runs one turn. The trimmed input is appended to history, the oldest
// entries beyond capacity are evicted, and the retained history is sent to
// the completion endpoint. On success the reply is appended and returned as
// a KindOK Outcome. A failed remote call yields a categorized Outcome with a
// nil error; the user message stays in history and nothing else is appended.
//
// The returned error is non-nil only for invalid input, which leaves history
// untouched. The request is bounded by the configured timeout and by ctx.
func (s *Session) Chat(ctx context.Context, input string) (Outcome, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Outcome{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(int32(AwaitingCompletion))
	defer s.state.Store(int32(Idle))

	s.emit(ctx, EventTurnStart, observability.LevelInfo, "session.Chat", map[string]any{
		"session_id":     s.id,
		"input_length":   len(text),
		"history_length": s.history.Len(),
	})

	s.append(ctx, protocol.NewMessage(protocol.RoleUser, text))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.agent.Chat(callCtx, s.buildMessages(), map[string]any{
		"temperature": Temperature,
	})
	if err == nil && (resp == nil || len(resp.Choices) == 0) {
		err = ErrEmptyResponse
	}
	if err != nil {
		out := classify(err)
		s.emit(ctx, EventTurnFailed, observability.LevelWarning, "session.Chat", map[string]any{
			"session_id":     s.id,
			"kind":           out.Kind.String(),
			"error":          err.Error(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"history_length": s.history.Len(),
		})
		return out, nil
	}

	content := resp.Content()
	s.append(ctx, protocol.NewMessage(protocol.RoleAssistant, content))

	data := map[string]any{
		"session_id":      s.id,
		"response_length": len(content),
		"duration_ms":     time.Since(start).Milliseconds(),
		"history_length":  s.history.Len(),
	}
	if resp.Usage != nil {
		data["total_tokens"] = resp.Usage.TotalTokens
	}
	s.emit(ctx, EventTurnComplete, observability.LevelInfo, "session.Chat", data)

	return Outcome{Kind: KindOK, Content: content}, nil
}

// ClearHistory empties the history. It waits for an in-flight turn.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := s.history.Len()
	s.history.Clear()

	s.emit(context.Background(), EventHistoryCleared, observability.LevelVerbose, "session.ClearHistory", map[string]any{
		"session_id": s.id,
		"cleared":    cleared,
	})
}

// Stats summarizes a session's retained context.
type Stats struct {
	SessionID string
	Model     string
	Messages  int
	Capacity  int
	// PromptTokens estimates the size of the next request's context,
	// system prompt included.
	PromptTokens int
}

// Stats reports the current history size and its estimated token count.
func (s *Session) Stats() Stats {
	s.counterOnce.Do(func() {
		if s.counter == nil {
			s.counter = tokens.Default(s.agent.Model())
		}
	})

	return Stats{
		SessionID:    s.id,
		Model:        s.agent.Model(),
		Messages:     s.history.Len(),
		Capacity:     s.history.Capacity(),
		PromptTokens: tokens.CountMessages(s.counter, s.buildMessages()),
	}
}

func (s *Session) append(ctx context.Context, msg protocol.Message) {
	evicted := s.history.Append(msg)
	if evicted == 0 {
		return
	}

	s.emit(ctx, EventHistoryTruncated, observability.LevelVerbose, "session.Chat", map[string]any{
		"session_id": s.id,
		"evicted":    evicted,
		"role":       string(msg.Role),
		"capacity":   s.history.Capacity(),
	})
}

func (s *Session) buildMessages() []protocol.Message {
	retained := s.history.Messages()

	if s.system == "" {
		return retained
	}

	messages := make([]protocol.Message, 0, len(retained)+1)
	messages = append(messages, protocol.NewMessage(protocol.RoleSystem, s.system))
	messages = append(messages, retained...)
	return messages
}

func (s *Session) emit(ctx context.Context, t observability.EventType, level observability.Level, source string, data map[string]any) {
	s.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
