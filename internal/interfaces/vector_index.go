package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// VectorIndex stores (chunk, vector) pairs for exactly one document run and
// answers nearest-neighbor queries by cosine similarity. Implementations are
// selected once at construction; nothing else branches on backend type.
type VectorIndex interface {
	// Upsert adds or replaces entries. Chunks and vectors correspond by
	// position; a dimension mismatch is an integrity violation.
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error

	// Query returns at most k entries ranked by descending similarity.
	// Ties break by ascending chunk sequence index so rankings are
	// reproducible across backends.
	Query(ctx context.Context, vector []float32, k int) ([]models.RetrievedChunk, error)

	// Clear removes all entries for the current document scope.
	Clear(ctx context.Context) error

	// Backend names the active backend ("local" or "managed").
	Backend() string
}

// IndexProvider builds a fresh VectorIndex per pipeline run, scoped to the
// given namespace so concurrent runs never cross-contaminate.
type IndexProvider interface {
	NewIndex(ctx context.Context, namespace string, dimension int) (VectorIndex, error)
}
