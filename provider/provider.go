// Package provider defines the text completion service boundary used by the
// answer pipeline. Concrete providers live under contrib/provider.
package provider

import (
	"context"

	"github.com/tomenglish23/healthcare-certs-rag/message"
)

// Completer is the minimal contract a completion backend must satisfy.
// Implementations must be safe for concurrent use; callers attach deadlines
// through the context.
type Completer interface {
	// Generate produces the assistant reply for the given conversation.
	Generate(ctx context.Context, messages []*message.Message) (*message.Message, error)
}

// Config holds the common provider knobs shared by all backends.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int64
	Temperature float64
}
