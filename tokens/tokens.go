// Package tokens estimates prompt sizes for conversation messages.
package tokens

import (
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/tailored-agentic-units/chat/core/protocol"
)

const (
	// fallbackEncoding is used for models tiktoken does not recognize.
	fallbackEncoding = "cl100k_base"

	perMessage  = 4
	replyPrimer = 3
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter counts the tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// Tiktoken counts tokens with a BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken returns a Counter using the encoding for model, falling back to
// cl100k_base. Encodings are embedded, so no network access is needed.
func NewTiktoken(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Estimator approximates four characters per token. It needs no encoding
// data.
type Estimator struct{}

func (Estimator) Count(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}

// Default returns a tiktoken Counter for model, or an Estimator if no
// encoding can be loaded.
func Default(model string) Counter {
	if t, err := NewTiktoken(model); err == nil {
		return t
	}
	return Estimator{}
}

// CountMessages returns the prompt size of messages including per-message
// framing and the assistant reply primer.
func CountMessages(c Counter, messages []protocol.Message) int {
	if len(messages) == 0 {
		return 0
	}

	total := replyPrimer
	for _, m := range messages {
		total += perMessage + c.Count(string(m.Role)) + c.Count(m.Content)
	}
	return total
}
