package interfaces

import "context"

// Message represents a single message in a model conversation.
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the language model boundary: embeddings in, vectors out;
// prompt in, text out. The model is treated as an opaque function with
// latency and failure modes, not a deterministic procedure.
type LLMService interface {
	// EmbedBatch generates one fixed-dimension embedding vector per input
	// text, preserving input order. A partial failure fails the whole
	// batch; implementations never silently drop an input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Chat generates a completion for the conversation history. The
	// messages slice contains system prompt and user messages in
	// chronological order.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Dimension returns the embedding dimension this service produces.
	Dimension() int

	// Close releases underlying clients.
	Close() error
}
