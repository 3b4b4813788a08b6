package interfaces

import "context"

// EmbeddingService converts text into fixed-dimension vectors. It batches
// outbound calls and retries transient failures; order and 1:1 input/output
// correspondence are guaranteed on success.
type EmbeddingService interface {
	// EmbedTexts returns one vector per input, preserving input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimension returns the fixed vector dimension.
	Dimension() int
}
