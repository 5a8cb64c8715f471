package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tailored-agentic-units/chat/agent/providers"
	"github.com/tailored-agentic-units/chat/core/protocol"
)

func TestOpenAI_Chat(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "deepseek-chat",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`))
	}))
	defer server.Close()

	provider := providers.NewOpenAI(server.URL+"/v1/", "sk-test", 5*time.Second)

	resp, err := provider.Chat(context.Background(), &providers.ChatData{
		Model: "deepseek-chat",
		Messages: []protocol.Message{
			protocol.NewMessage(protocol.RoleUser, "hi"),
		},
		Options: map[string]any{"temperature": 0.7},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if gotPath != "/v1/chat/completions" {
		t.Errorf("got path %q, want %q", gotPath, "/v1/chat/completions")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("got Authorization %q, want %q", gotAuth, "Bearer sk-test")
	}
	if gotBody["model"] != "deepseek-chat" {
		t.Errorf("got model %v, want deepseek-chat", gotBody["model"])
	}
	if gotBody["temperature"] != 0.7 {
		t.Errorf("got temperature %v, want 0.7", gotBody["temperature"])
	}
	if resp.Content() != "Hello!" {
		t.Errorf("got content %q, want %q", resp.Content(), "Hello!")
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 5 {
		t.Errorf("got usage %+v, want total 5", resp.Usage)
	}
}

func TestOpenAI_Chat_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantType    string
		wantMessage string
		wantAuth    bool
		wantRate    bool
	}{
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			body:        `{"error":{"type":"authentication_error","message":"invalid api key"}}`,
			wantType:    "authentication_error",
			wantMessage: "invalid api key",
			wantAuth:    true,
		},
		{
			name:        "rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{"error":{"type":"rate_limit_error","message":"slow down","code":"rate_limit"}}`,
			wantType:    "rate_limit_error",
			wantMessage: "slow down",
			wantRate:    true,
		},
		{
			name:        "server error with raw body",
			status:      http.StatusInternalServerError,
			body:        `upstream exploded`,
			wantMessage: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := providers.NewOpenAI(server.URL, "sk", time.Second)
			_, err := provider.Chat(context.Background(), &providers.ChatData{Model: "m"})

			var statusErr *providers.StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("got error %v, want *StatusError", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("got status %d, want %d", statusErr.StatusCode, tt.status)
			}
			if statusErr.Type != tt.wantType {
				t.Errorf("got type %q, want %q", statusErr.Type, tt.wantType)
			}
			if statusErr.Message != tt.wantMessage {
				t.Errorf("got message %q, want %q", statusErr.Message, tt.wantMessage)
			}
			if statusErr.IsAuthentication() != tt.wantAuth {
				t.Errorf("IsAuthentication() = %v, want %v", statusErr.IsAuthentication(), tt.wantAuth)
			}
			if statusErr.IsRateLimited() != tt.wantRate {
				t.Errorf("IsRateLimited() = %v, want %v", statusErr.IsRateLimited(), tt.wantRate)
			}
		})
	}
}

func TestOpenAI_Chat_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := providers.NewOpenAI(url, "sk", time.Second)
	_, err := provider.Chat(context.Background(), &providers.ChatData{Model: "m"})

	if !errors.Is(err, providers.ErrConnection) {
		t.Errorf("got error %v, want ErrConnection", err)
	}
}

func TestOpenAI_Chat_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	provider := providers.NewOpenAI(server.URL, "sk", 50*time.Millisecond)
	_, err := provider.Chat(context.Background(), &providers.ChatData{Model: "m"})

	if !errors.Is(err, providers.ErrConnection) {
		t.Errorf("got error %v, want ErrConnection", err)
	}
}

func TestOpenAI_Chat_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	provider := providers.NewOpenAI(server.URL, "sk", time.Second)
	_, err := provider.Chat(context.Background(), &providers.ChatData{Model: "m"})

	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if errors.Is(err, providers.ErrConnection) {
		t.Errorf("decode failure should not be classified as a connection error: %v", err)
	}
}
