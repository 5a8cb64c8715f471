package server

import "github.com/tailored-agentic-units/chat/core/protocol"

// ServiceName is the fully-qualified name of the chat service.
const ServiceName = "chat.v1.ChatService"

// Procedure paths.
const (
	CreateSessionProcedure = "/" + ServiceName + "/CreateSession"
	ChatProcedure          = "/" + ServiceName + "/Chat"
	ClearHistoryProcedure  = "/" + ServiceName + "/ClearHistory"
	HistoryProcedure       = "/" + ServiceName + "/History"
	StatsProcedure         = "/" + ServiceName + "/Stats"
	DeleteSessionProcedure = "/" + ServiceName + "/DeleteSession"
)

type CreateSessionRequest struct {
	// Agent names a registered agent; empty uses the default configuration.
	Agent string `json:"agent,omitempty"`
	// SystemPrompt replaces the configured system prompt for this session.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// ChatResponse reports one turn. A failed remote call is not an RPC error:
// OK is false, Kind names the failure and Error carries its text.
type ChatResponse struct {
	OK            bool   `json:"ok"`
	Kind          string `json:"kind"`
	Content       string `json:"content,omitempty"`
	Error         string `json:"error,omitempty"`
	HistoryLength int    `json:"history_length"`
}

// SessionRequest addresses an existing session.
type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type HistoryResponse struct {
	Messages []protocol.Message `json:"messages"`
}

type StatsResponse struct {
	SessionID    string `json:"session_id"`
	Model        string `json:"model"`
	Messages     int    `json:"messages"`
	Capacity     int    `json:"capacity"`
	PromptTokens int    `json:"prompt_tokens"`
}

type Empty struct{}
