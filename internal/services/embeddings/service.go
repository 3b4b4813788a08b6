package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/llm"
)

// Service implements interfaces.EmbeddingService on top of an LLM service.
// It batches requests, retries transient failures with the shared policy,
// and fails the whole call on any partial batch failure: a misaligned
// vector-to-chunk correspondence is a correctness hazard, never tolerated.
type Service struct {
	llmService interfaces.LLMService
	retry      *common.RetryPolicy
	batchSize  int
	dimension  int
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates a new embedding service.
func NewService(llmService interfaces.LLMService, retry *common.RetryPolicy, config *common.EmbeddingConfig, logger arbor.ILogger) *Service {
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Service{
		llmService: llmService,
		retry:      retry,
		batchSize:  batchSize,
		dimension:  config.Dimension,
		logger:     logger,
	}
}

// EmbedTexts returns one vector per input, preserving input order. Inputs
// are split into bounded batches per external call; each batch is retried
// on transient failure and any final batch failure fails the whole call.
func (s *Service) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", models.ErrEmbeddingService)
	}

	start := time.Now()
	vectors := make([][]float32, 0, len(texts))

	for offset := 0; offset < len(texts); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[offset:end]

		var batchVectors [][]float32
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			var embedErr error
			batchVectors, embedErr = s.llmService.EmbedBatch(ctx, batch)
			return embedErr
		}, llm.Transient)
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d-%d: %v", models.ErrEmbeddingService, offset, end, err)
		}

		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("%w: batch %d-%d returned %d vectors for %d inputs",
				models.ErrEmbeddingService, offset, end, len(batchVectors), len(batch))
		}
		for i, vector := range batchVectors {
			if len(vector) != s.dimension {
				return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d",
					models.ErrEmbeddingService, offset+i, len(vector), s.dimension)
			}
		}

		vectors = append(vectors, batchVectors...)
	}

	s.logger.Debug().
		Int("texts", len(texts)).
		Int("batch_size", s.batchSize).
		Int("dimension", s.dimension).
		Dur("duration", time.Since(start)).
		Msg("Embedded texts")

	return vectors, nil
}

// EmbedQuery generates an embedding for a search query.
func (s *Service) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension returns the fixed vector dimension.
func (s *Service) Dimension() int {
	return s.dimension
}
