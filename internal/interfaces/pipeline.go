package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// QueryPipeline processes one document and answers a batch of questions
// against it. The response always carries exactly one answer per question in
// the order the questions were submitted, or the run fails as a whole.
type QueryPipeline interface {
	Run(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
}

// Retriever embeds a query and selects the top-matching chunks from an index.
type Retriever interface {
	Retrieve(ctx context.Context, index VectorIndex, query string) ([]models.RetrievedChunk, error)
}

// AnswerSynthesizer builds a grounding prompt from retrieved chunks and the
// question, invokes the language model, and returns an answer. A failed or
// declined model call degrades to a deterministic fallback answer.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, context []models.RetrievedChunk) models.Answer
}
