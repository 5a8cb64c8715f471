package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrConnection marks failures to reach the provider: DNS, refused
// connections, TLS, and timeouts.
var ErrConnection = errors.New("connection failed")

// StatusError is returned when the provider answers with a non-success status.
type StatusError struct {
	Provider   string
	StatusCode int
	// Type is the provider error type ("invalid_request_error", ...), if any.
	Type    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: HTTP %d: %s: %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsAuthentication reports whether the status rejects the credentials.
func (e *StatusError) IsAuthentication() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited reports whether the status is HTTP 429.
func (e *StatusError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// readStatusError parses an error body in the common
// {"error":{"type":"...","message":"..."}} format. Falls back to the raw
// (truncated) body.
func readStatusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if err := parseStatusError(provider, resp.StatusCode, body); err != nil {
		return err
	}

	return &StatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    truncate(string(body), 400),
	}
}

// parseStatusError returns nil when body carries no error message.
func parseStatusError(provider string, status int, body []byte) *StatusError {
	var wire struct {
		Error struct {
			Type    string `json:"type"`
			Code    any    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wire) != nil || wire.Error.Message == "" {
		return nil
	}
	return &StatusError{
		Provider:   provider,
		StatusCode: status,
		Type:       wire.Error.Type,
		Message:    wire.Error.Message,
	}
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
