package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/chat/agent/mock"
	"github.com/tailored-agentic-units/chat/core/config"
	"github.com/tailored-agentic-units/chat/core/protocol"
	"github.com/tailored-agentic-units/chat/observability"
	"github.com/tailored-agentic-units/chat/server"
	"github.com/tailored-agentic-units/chat/session"
)

func env(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func startServer(t *testing.T, cfg *server.Config, opts ...server.Option) (*server.Service, *server.Client) {
	t.Helper()

	opts = append([]server.Option{server.WithObserver(observability.NoOpObserver{})}, opts...)
	svc, err := server.New(cfg, opts...)
	if err != nil {
		t.Fatalf("server.New failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle(svc.Handler())

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return svc, server.NewClient(ts.Client(), ts.URL)
}

func mockServer(t *testing.T, a *mock.MockAgent) (*server.Service, *server.Client) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.Session.MaxHistory = 4
	return startServer(t, &cfg, server.WithSessionOptions(session.WithAgent(a)))
}

func codeOf(t *testing.T, err error) connect.Code {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	return connect.CodeOf(err)
}

func TestService_ChatRoundTrip(t *testing.T) {
	a := mock.NewMockAgent(mock.WithContent("Hello!", "Fine, thanks."))
	svc, client := mockServer(t, a)
	ctx := context.Background()

	created, err := client.CreateSession(ctx, &server.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("empty session ID")
	}
	if created.Model != "mock-model" {
		t.Errorf("got model %q, want %q", created.Model, "mock-model")
	}
	if svc.Sessions() != 1 {
		t.Errorf("got %d sessions, want 1", svc.Sessions())
	}

	resp, err := client.Chat(ctx, created.SessionID, " Hi ")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !resp.OK || resp.Kind != "ok" || resp.Content != "Hello!" {
		t.Errorf("got %+v, want ok reply %q", resp, "Hello!")
	}
	if resp.HistoryLength != 2 {
		t.Errorf("got history length %d, want 2", resp.HistoryLength)
	}

	if _, err := client.Chat(ctx, created.SessionID, "How are you?"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	hist, err := client.History(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	want := []protocol.Message{
		protocol.NewMessage(protocol.RoleUser, "Hi"),
		protocol.NewMessage(protocol.RoleAssistant, "Hello!"),
		protocol.NewMessage(protocol.RoleUser, "How are you?"),
		protocol.NewMessage(protocol.RoleAssistant, "Fine, thanks."),
	}
	if len(hist.Messages) != len(want) {
		t.Fatalf("got %d messages, want %d", len(hist.Messages), len(want))
	}
	for i := range want {
		if hist.Messages[i] != want[i] {
			t.Errorf("message %d: got %+v, want %+v", i, hist.Messages[i], want[i])
		}
	}

	stats, err := client.Stats(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Messages != 4 || stats.Capacity != 4 {
		t.Errorf("got stats %+v, want 4 of 4 messages", stats)
	}

	if err := client.ClearHistory(ctx, created.SessionID); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	hist, err = client.History(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Errorf("got %d messages after clear, want 0", len(hist.Messages))
	}

	if err := client.DeleteSession(ctx, created.SessionID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if svc.Sessions() != 0 {
		t.Errorf("got %d sessions after delete, want 0", svc.Sessions())
	}
}

func TestService_ChatFailureOutcome(t *testing.T) {
	a := mock.NewMockAgent(mock.WithError(errors.New("upstream exploded")))
	_, client := mockServer(t, a)
	ctx := context.Background()

	created, err := client.CreateSession(ctx, &server.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	resp, err := client.Chat(ctx, created.SessionID, "hello")
	if err != nil {
		t.Fatalf("Chat returned RPC error %v, want failed outcome", err)
	}
	if resp.OK {
		t.Error("got OK, want failure")
	}
	if resp.Kind != "unknown" {
		t.Errorf("got kind %q, want %q", resp.Kind, "unknown")
	}
	if resp.Error != "An unexpected error occurred: upstream exploded" {
		t.Errorf("got error %q", resp.Error)
	}
	if resp.HistoryLength != 1 {
		t.Errorf("got history length %d, want 1 (user turn retained)", resp.HistoryLength)
	}
}

func TestService_ErrorCodes(t *testing.T) {
	_, client := mockServer(t, mock.NewMockAgent())
	ctx := context.Background()

	created, err := client.CreateSession(ctx, &server.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "empty input",
			call: func() error { _, err := client.Chat(ctx, created.SessionID, "   "); return err },
			want: connect.CodeInvalidArgument,
		},
		{
			name: "missing session id",
			call: func() error { _, err := client.Chat(ctx, "", "hi"); return err },
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown session chat",
			call: func() error { _, err := client.Chat(ctx, "nope", "hi"); return err },
			want: connect.CodeNotFound,
		},
		{
			name: "unknown session history",
			call: func() error { _, err := client.History(ctx, "nope"); return err },
			want: connect.CodeNotFound,
		},
		{
			name: "unknown session clear",
			call: func() error { return client.ClearHistory(ctx, "nope") },
			want: connect.CodeNotFound,
		},
		{
			name: "unknown session delete",
			call: func() error { return client.DeleteSession(ctx, "nope") },
			want: connect.CodeNotFound,
		},
		{
			name: "unknown agent",
			call: func() error {
				_, err := client.CreateSession(ctx, &server.CreateSessionRequest{Agent: "nope"})
				return err
			},
			want: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codeOf(t, tt.call()); got != tt.want {
				t.Errorf("got code %v, want %v", got, tt.want)
			}
		})
	}

	hist, err := client.History(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(hist.Messages) != 0 {
		t.Errorf("rejected input changed history: %+v", hist.Messages)
	}
}

func TestService_CreateSession_MissingCredentials(t *testing.T) {
	cfg := server.DefaultConfig()
	_, client := startServer(t, &cfg, server.WithLookup(env(nil)))

	_, err := client.CreateSession(context.Background(), &server.CreateSessionRequest{})
	if got := codeOf(t, err); got != connect.CodeFailedPrecondition {
		t.Errorf("got code %v, want %v", got, connect.CodeFailedPrecondition)
	}
}

func TestService_NamedAgents(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.Agents = map[string]config.AgentConfig{
		"echo": {
			Provider: "mock",
			Env:      config.EnvConfig{APIKey: "ECHO_KEY", BaseURL: "ECHO_URL", Model: "ECHO_MODEL"},
		},
	}
	svc, client := startServer(t, &cfg, server.WithLookup(env(map[string]string{
		"ECHO_KEY":   "k",
		"ECHO_URL":   "http://unused",
		"ECHO_MODEL": "echo-1",
	})))

	if infos := svc.Registry().List(); len(infos) != 1 || infos[0].Name != "echo" {
		t.Fatalf("got registry %+v, want [echo]", infos)
	}

	ctx := context.Background()
	created, err := client.CreateSession(ctx, &server.CreateSessionRequest{Agent: "echo", SystemPrompt: "Be terse."})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Model != "echo-1" {
		t.Errorf("got model %q, want %q", created.Model, "echo-1")
	}

	resp, err := client.Chat(ctx, created.SessionID, "ping")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if !strings.HasPrefix(resp.Content, "echo: ping") {
		t.Errorf("got content %q, want echo of input", resp.Content)
	}
}

func TestService_SessionLimit(t *testing.T) {
	cfg := server.DefaultConfig()
	cfg.MaxSessions = 1
	_, client := startServer(t, &cfg, server.WithSessionOptions(session.WithAgent(mock.NewMockAgent())))
	ctx := context.Background()

	if _, err := client.CreateSession(ctx, &server.CreateSessionRequest{}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	_, err := client.CreateSession(ctx, &server.CreateSessionRequest{})
	if got := codeOf(t, err); got != connect.CodeResourceExhausted {
		t.Errorf("got code %v, want %v", got, connect.CodeResourceExhausted)
	}
}

func TestService_SessionsAreIndependent(t *testing.T) {
	_, client := mockServer(t, mock.NewMockAgent())
	ctx := context.Background()

	a, _ := client.CreateSession(ctx, &server.CreateSessionRequest{})
	b, _ := client.CreateSession(ctx, &server.CreateSessionRequest{})

	var wg sync.WaitGroup
	for _, id := range []string{a.SessionID, b.SessionID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 3 {
				client.Chat(ctx, id, "hi")
			}
		}()
	}
	wg.Wait()

	client.ClearHistory(ctx, a.SessionID)

	histA, _ := client.History(ctx, a.SessionID)
	histB, _ := client.History(ctx, b.SessionID)
	if len(histA.Messages) != 0 {
		t.Errorf("session A has %d messages, want 0", len(histA.Messages))
	}
	if len(histB.Messages) != 4 {
		t.Errorf("session B has %d messages, want 4", len(histB.Messages))
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := `
addr: ":9090"
events_db: /tmp/events.db
session:
  max_history: 10
  system_prompt: Be kind.
agents:
  qwen:
    provider: openai
    env:
      api_key: QWEN_KEY
      base_url: QWEN_URL
      model: QWEN_MODEL
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := server.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Errorf("got addr %q, want %q", cfg.Addr, ":9090")
	}
	if cfg.MaxSessions != server.DefaultMaxSessions {
		t.Errorf("got max sessions %d, want default %d", cfg.MaxSessions, server.DefaultMaxSessions)
	}
	if cfg.Session.MaxHistory != 10 {
		t.Errorf("got max history %d, want 10", cfg.Session.MaxHistory)
	}
	if cfg.Session.TimeoutSeconds != session.DefaultTimeoutSeconds {
		t.Errorf("got timeout %d, want default", cfg.Session.TimeoutSeconds)
	}
	if cfg.Agents["qwen"].Env.Model != "QWEN_MODEL" {
		t.Errorf("got agents %+v", cfg.Agents)
	}
}
