// Package server exposes chat sessions over Connect RPC. Messages are plain
// Go structs carried as JSON, so any Connect or plain HTTP client can call
// the service:
//
//	curl -H 'Content-Type: application/json' \
//	  -d '{"session_id":"...","input":"Hello"}' \
//	  http://localhost:8080/chat.v1.ChatService/Chat
//
// Sessions live in memory for the lifetime of the Service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/chat/agent"
	"github.com/tailored-agentic-units/chat/core/config"
	"github.com/tailored-agentic-units/chat/observability"
	"github.com/tailored-agentic-units/chat/session"
)

// Server event types.
const (
	EventSessionCreated observability.EventType = "server.session.created"
	EventSessionDeleted observability.EventType = "server.session.deleted"
)

// Option configures a Service after config-driven initialization.
type Option func(*Service)

// WithObserver overrides the default SlogObserver. It is passed on to every
// session.
func WithObserver(o observability.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLookup reads credentials through lookup instead of the process
// environment.
func WithLookup(lookup config.LookupFunc) Option {
	return func(s *Service) { s.lookup = lookup }
}

// WithSessionOptions appends options applied to every new session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Service) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// Service implements chat.v1.ChatService.
type Service struct {
	cfg         session.Config
	maxSessions int
	registry    *agent.Registry
	observer    observability.Observer
	lookup      config.LookupFunc
	sessionOpts []session.Option

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// New creates a Service from configuration. Named agents are registered but
// not instantiated until a session asks for them.
func New(cfg *Config, opts ...Option) (*Service, error) {
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:         cfg.Session,
		maxSessions: cfg.MaxSessions,
		observer:    observability.NewSlogObserver(slog.Default()),
		sessions:    make(map[string]*session.Session),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registry = agent.NewRegistry(s.lookup, cfg.Session.Timeout())
	for name, agentCfg := range cfg.Agents {
		if err := s.registry.Register(name, agentCfg); err != nil {
			return nil, fmt.Errorf("failed to register agent %q: %w", name, err)
		}
	}

	return s, nil
}

// Registry returns the service's named agents.
func (s *Service) Registry() *agent.Registry {
	return s.registry
}

// Handler returns the mount path and HTTP handler for every procedure.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, s.CreateSession, opts...))
	mux.Handle(ChatProcedure, connect.NewUnaryHandler(ChatProcedure, s.Chat, opts...))
	mux.Handle(ClearHistoryProcedure, connect.NewUnaryHandler(ClearHistoryProcedure, s.ClearHistory, opts...))
	mux.Handle(HistoryProcedure, connect.NewUnaryHandler(HistoryProcedure, s.History, opts...))
	mux.Handle(StatsProcedure, connect.NewUnaryHandler(StatsProcedure, s.Stats, opts...))
	mux.Handle(DeleteSessionProcedure, connect.NewUnaryHandler(DeleteSessionProcedure, s.DeleteSession, opts...))

	return "/" + ServiceName + "/", mux
}

func (s *Service) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	cfg := s.cfg
	if req.Msg.SystemPrompt != "" {
		cfg.SystemPrompt = req.Msg.SystemPrompt
	}

	opts := []session.Option{session.WithObserver(s.observer), session.WithLookup(s.lookup)}
	if req.Msg.Agent != "" {
		a, err := s.registry.Get(req.Msg.Agent)
		if err != nil {
			if errors.Is(err, agent.ErrAgentNotFound) {
				return nil, connect.NewError(connect.CodeNotFound, err)
			}
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		opts = append(opts, session.WithAgent(a))
	}
	opts = append(opts, s.sessionOpts...)

	sess, err := session.New(&cfg, opts...)
	if err != nil {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}

	s.mu.Lock()
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.mu.Unlock()
		return nil, connect.NewError(connect.CodeResourceExhausted, ErrSessionLimit)
	}
	s.sessions[sess.ID()] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.emit(ctx, EventSessionCreated, sess.ID(), map[string]any{
		"agent":    req.Msg.Agent,
		"model":    sess.Model(),
		"sessions": count,
	})

	return connect.NewResponse(&CreateSessionResponse{
		SessionID: sess.ID(),
		Model:     sess.Model(),
	}), nil
}

func (s *Service) Chat(ctx context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
	sess, err := s.lookupSession(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	out, err := sess.Chat(ctx, req.Msg.Input)
	if err != nil {
		if errors.Is(err, session.ErrInvalidInput) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &ChatResponse{
		OK:            out.OK(),
		Kind:          out.Kind.String(),
		Content:       out.Content,
		HistoryLength: sess.Len(),
	}
	if !out.OK() {
		resp.Error = out.Text()
	}
	return connect.NewResponse(resp), nil
}

func (s *Service) ClearHistory(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[Empty], error) {
	sess, err := s.lookupSession(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	sess.ClearHistory()
	return connect.NewResponse(&Empty{}), nil
}

func (s *Service) History(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[HistoryResponse], error) {
	sess, err := s.lookupSession(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&HistoryResponse{Messages: sess.History()}), nil
}

func (s *Service) Stats(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[StatsResponse], error) {
	sess, err := s.lookupSession(req.Msg.SessionID)
	if err != nil {
		return nil, err
	}

	st := sess.Stats()
	return connect.NewResponse(&StatsResponse{
		SessionID:    st.SessionID,
		Model:        st.Model,
		Messages:     st.Messages,
		Capacity:     st.Capacity,
		PromptTokens: st.PromptTokens,
	}), nil
}

func (s *Service) DeleteSession(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[Empty], error) {
	if req.Msg.SessionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrMissingSession)
	}

	s.mu.Lock()
	_, exists := s.sessions[req.Msg.SessionID]
	delete(s.sessions, req.Msg.SessionID)
	count := len(s.sessions)
	s.mu.Unlock()

	if !exists {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s", ErrSessionNotFound, req.Msg.SessionID))
	}

	s.emit(ctx, EventSessionDeleted, req.Msg.SessionID, map[string]any{"sessions": count})
	return connect.NewResponse(&Empty{}), nil
}

// Sessions returns the number of live sessions.
func (s *Service) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) lookupSession(id string) (*session.Session, error) {
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrMissingSession)
	}

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s", ErrSessionNotFound, id))
	}
	return sess, nil
}

func (s *Service) emit(ctx context.Context, t observability.EventType, sessionID string, data map[string]any) {
	data["session_id"] = sessionID
	s.observer.OnEvent(ctx, observability.Event{
		Type:      t,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "server.Service",
		Data:      data,
	})
}
