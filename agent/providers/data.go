package providers

import "github.com/tailored-agentic-units/chat/core/protocol"

// ChatData contains the data needed to marshal a chat request.
type ChatData struct {
	Model    string
	Messages []protocol.Message
	Options  map[string]any
}

// Temperature returns the "temperature" option as a float, if present.
func (d *ChatData) Temperature() (float64, bool) {
	switch v := d.Options["temperature"].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
