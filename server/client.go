package server

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a chat service over Connect.
type Client struct {
	createSession *connect.Client[CreateSessionRequest, CreateSessionResponse]
	chat          *connect.Client[ChatRequest, ChatResponse]
	clearHistory  *connect.Client[SessionRequest, Empty]
	history       *connect.Client[SessionRequest, HistoryResponse]
	stats         *connect.Client[SessionRequest, StatsResponse]
	deleteSession *connect.Client[SessionRequest, Empty]
}

// NewClient creates a Client for the service at baseURL
// (e.g. "http://localhost:8080").
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &Client{
		createSession: connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, opts...),
		chat:          connect.NewClient[ChatRequest, ChatResponse](httpClient, baseURL+ChatProcedure, opts...),
		clearHistory:  connect.NewClient[SessionRequest, Empty](httpClient, baseURL+ClearHistoryProcedure, opts...),
		history:       connect.NewClient[SessionRequest, HistoryResponse](httpClient, baseURL+HistoryProcedure, opts...),
		stats:         connect.NewClient[SessionRequest, StatsResponse](httpClient, baseURL+StatsProcedure, opts...),
		deleteSession: connect.NewClient[SessionRequest, Empty](httpClient, baseURL+DeleteSessionProcedure, opts...),
	}
}

func (c *Client) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	return call(ctx, c.createSession, req)
}

func (c *Client) Chat(ctx context.Context, sessionID, input string) (*ChatResponse, error) {
	return call(ctx, c.chat, &ChatRequest{SessionID: sessionID, Input: input})
}

func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	_, err := call(ctx, c.clearHistory, &SessionRequest{SessionID: sessionID})
	return err
}

func (c *Client) History(ctx context.Context, sessionID string) (*HistoryResponse, error) {
	return call(ctx, c.history, &SessionRequest{SessionID: sessionID})
}

func (c *Client) Stats(ctx context.Context, sessionID string) (*StatsResponse, error) {
	return call(ctx, c.stats, &SessionRequest{SessionID: sessionID})
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := call(ctx, c.deleteSession, &SessionRequest{SessionID: sessionID})
	return err
}

func call[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
