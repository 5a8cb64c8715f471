// Package history provides the capacity-bounded message log owned by a chat
// session.
package history

import (
	"github.com/tailored-agentic-units/chat/core/protocol"
)

// History holds an ordered sequence of conversation messages, oldest first.
// Implementations must be safe for concurrent use.
type History interface {
	// Append adds a message and evicts the oldest entries until the log is
	// within capacity. Returns the number of evicted messages.
	Append(msg protocol.Message) int
	// Messages returns a copy of the log, oldest first.
	Messages() []protocol.Message
	// Len returns the number of stored messages.
	Len() int
	// Capacity returns the maximum number of retained messages.
	Capacity() int
	// Clear resets the log to empty.
	Clear()
}
