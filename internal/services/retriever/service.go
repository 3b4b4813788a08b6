package retriever

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// Service embeds a question and pulls the closest chunks from a vector
// index. Query embedding is a single call into the embedding service, which
// carries its own retry policy; wrapping it again here would multiply the
// attempts against an already rate-limited endpoint.
type Service struct {
	embeddings interfaces.EmbeddingService
	topK       int
	logger     arbor.ILogger
}

var _ interfaces.Retriever = (*Service)(nil)

func NewService(embeddings interfaces.EmbeddingService, topK int, logger arbor.ILogger) *Service {
	return &Service{
		embeddings: embeddings,
		topK:       topK,
		logger:     logger,
	}
}

func (s *Service) Retrieve(ctx context.Context, index interfaces.VectorIndex, query string) ([]models.RetrievedChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("retrieval query must not be empty")
	}

	vector, err := s.embeddings.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	retrieved, err := index.Query(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	s.logger.Debug().
		Str("backend", index.Backend()).
		Int("requested", s.topK).
		Int("retrieved", len(retrieved)).
		Msg("Chunks retrieved for question")

	return retrieved, nil
}
