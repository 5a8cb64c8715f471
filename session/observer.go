package session

import "github.com/tailored-agentic-units/chat/observability"

// Session event types. Payloads carry sizes and kinds, never message text.
const (
	EventTurnStart        observability.EventType = "session.turn.start"
	EventTurnComplete     observability.EventType = "session.turn.complete"
	EventTurnFailed       observability.EventType = "session.turn.failed"
	EventHistoryTruncated observability.EventType = "session.history.truncated"
	EventHistoryCleared   observability.EventType = "session.history.cleared"
)
