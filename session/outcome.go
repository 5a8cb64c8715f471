package session

import (
	"context"
	"errors"
	"net"

	"github.com/tailored-agentic-units/chat/agent/providers"
)

// Kind classifies the result of one turn.
type Kind int

const (
	KindOK Kind = iota
	KindAuthentication
	KindConnection
	KindRateLimited
	KindProvider
	KindUnknown
)

var kindNames = map[Kind]string{
	KindOK:             "ok",
	KindAuthentication: "authentication",
	KindConnection:     "connection",
	KindRateLimited:    "rate_limited",
	KindProvider:       "provider",
	KindUnknown:        "unknown",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind maps a Kind name back to its value. Unrecognized names map to
// KindUnknown.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// Outcome is the tagged result of a turn: either the assistant's reply or a
// categorized failure of the remote call.
type Outcome struct {
	Kind    Kind
	Content string // Assistant reply; empty on failure.
	Err     error  // Underlying failure; nil on success.
}

// OK reports whether the turn produced a reply.
func (o Outcome) OK() bool {
	return o.Kind == KindOK
}

// Text renders the outcome for display: the reply on success, otherwise a
// message prefixed with the failure category.
func (o Outcome) Text() string {
	var detail string
	if o.Err != nil {
		detail = o.Err.Error()
	}

	switch o.Kind {
	case KindOK:
		return o.Content
	case KindAuthentication:
		return "Authentication Error: " + detail
	case KindConnection:
		return "API Connection Error: " + detail
	case KindRateLimited:
		return "Rate Limit Error: " + detail
	case KindProvider:
		return "API Error: " + detail
	default:
		return "An unexpected error occurred: " + detail
	}
}

// classify maps a remote call failure to an Outcome.
func classify(err error) Outcome {
	var statusErr *providers.StatusError
	var netErr net.Error

	switch {
	case errors.As(err, &statusErr):
		switch {
		case statusErr.IsAuthentication():
			return Outcome{Kind: KindAuthentication, Err: err}
		case statusErr.IsRateLimited():
			return Outcome{Kind: KindRateLimited, Err: err}
		default:
			return Outcome{Kind: KindProvider, Err: err}
		}
	case errors.Is(err, ErrEmptyResponse):
		return Outcome{Kind: KindProvider, Err: err}
	case errors.Is(err, providers.ErrConnection),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return Outcome{Kind: KindConnection, Err: err}
	default:
		return Outcome{Kind: KindUnknown, Err: err}
	}
}
