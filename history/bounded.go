package history

import (
	"sync"

	"github.com/tailored-agentic-units/chat/core/protocol"
)

type bounded struct {
	capacity int
	messages []protocol.Message
	mu       sync.RWMutex
}

// NewBounded creates an in-memory History that retains at most capacity
// messages. Eviction is strictly oldest-first regardless of role, so a window
// may begin with an assistant message whose user turn was dropped.
// Panics if capacity is not positive.
func NewBounded(capacity int) History {
	if capacity <= 0 {
		panic("history: capacity must be positive")
	}
	return &bounded{capacity: capacity}
}

func (h *bounded) Append(msg protocol.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)

	excess := len(h.messages) - h.capacity
	if excess <= 0 {
		return 0
	}

	kept := make([]protocol.Message, h.capacity)
	copy(kept, h.messages[excess:])
	h.messages = kept
	return excess
}

func (h *bounded) Messages() []protocol.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	copied := make([]protocol.Message, len(h.messages))
	copy(copied, h.messages)
	return copied
}

func (h *bounded) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

func (h *bounded) Capacity() int {
	return h.capacity
}

func (h *bounded) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}
