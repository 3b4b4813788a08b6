package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/synthesizer"
)

// FetcherFactory builds a fresh fetcher, and with it a fresh scratch
// directory, for each pipeline run.
type FetcherFactory func() (interfaces.DocumentFetcher, error)

// ChunkSplitter cuts extracted text into overlapping chunks.
type ChunkSplitter interface {
	Split(documentID, text string) []models.Chunk
}

// Service orchestrates one run: fetch, extract, chunk, embed and index the
// document sequentially, then answer all questions concurrently. Document
// stage failures abort the run; per-question failures degrade to fallback
// answers so the response always carries one answer per question.
type Service struct {
	config      *common.Config
	newFetcher  FetcherFactory
	extractor   interfaces.TextExtractor
	chunker     ChunkSplitter
	embeddings  interfaces.EmbeddingService
	indexes     interfaces.IndexProvider
	retriever   interfaces.Retriever
	synthesizer interfaces.AnswerSynthesizer
	storage     interfaces.QueryLogStorage // optional, may be nil
	logger      arbor.ILogger
}

var _ interfaces.QueryPipeline = (*Service)(nil)

func NewService(
	config *common.Config,
	newFetcher FetcherFactory,
	extractor interfaces.TextExtractor,
	chunker ChunkSplitter,
	embeddings interfaces.EmbeddingService,
	indexes interfaces.IndexProvider,
	retriever interfaces.Retriever,
	synth interfaces.AnswerSynthesizer,
	storage interfaces.QueryLogStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:      config,
		newFetcher:  newFetcher,
		extractor:   extractor,
		chunker:     chunker,
		embeddings:  embeddings,
		indexes:     indexes,
		retriever:   retriever,
		synthesizer: synth,
		storage:     storage,
		logger:      logger,
	}
}

// Run executes the full pipeline for one request. Scratch files and index
// contents are released on every exit path.
func (s *Service) Run(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	runID := uuid.New().String()
	started := time.Now()
	s.logger.Info().
		Str("run_id", runID).
		Str("document", req.Documents).
		Int("questions", len(req.Questions)).
		Msg("Pipeline run started")

	fetcher, err := s.newFetcher()
	if err != nil {
		return nil, fmt.Errorf("prepare fetcher: %w", err)
	}
	defer func() {
		if cleanupErr := fetcher.Cleanup(); cleanupErr != nil {
			s.logger.Warn().Err(cleanupErr).Str("run_id", runID).Msg("Scratch cleanup failed")
		}
	}()

	fetched, err := fetcher.Fetch(ctx, req.Documents)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, fetched.Data, fetched.Kind)
	if err != nil {
		return nil, err
	}

	chunks := s.chunker.Split(runID, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", models.ErrCorruptDocument)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embeddings.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}

	index, err := s.indexes.NewIndex(ctx, runID, s.embeddings.Dimension())
	if err != nil {
		return nil, err
	}
	defer func() {
		// Clear with a fresh context so cancellation cannot leak entries.
		clearCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if clearErr := index.Clear(clearCtx); clearErr != nil {
			s.logger.Warn().Err(clearErr).Str("run_id", runID).Msg("Index cleanup failed")
		}
	}()

	if err := index.Upsert(ctx, chunks, vectors); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("kind", string(fetched.Kind)).
		Str("backend", index.Backend()).
		Int("chunks", len(chunks)).
		Msg("Document indexed")

	timings, err := s.answerAll(ctx, index, req.Questions)
	if err != nil {
		return nil, err
	}

	answers := make([]string, len(timings))
	for i, timing := range timings {
		answers[i] = timing.Answer
	}

	s.saveRecord(runID, req, fetched.Kind, len(chunks), index.Backend(), timings, time.Since(started))

	s.logger.Info().
		Str("run_id", runID).
		Dur("duration", time.Since(started)).
		Msg("Pipeline run complete")

	return &models.QueryResponse{Answers: answers}, nil
}

// answerAll fans questions out over a bounded worker pool. Results land at
// the question's own position so answer order always matches question order.
// A cancelled context discards all partial results.
func (s *Service) answerAll(ctx context.Context, index interfaces.VectorIndex, questions []string) ([]models.QuestionTiming, error) {
	concurrency := s.config.Pipeline.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	timings := make([]models.QuestionTiming, len(questions))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, question := range questions {
		wg.Add(1)
		go func(pos int, question string) {
			defer wg.Done()
			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}
			timings[pos] = s.answerOne(ctx, index, question)
		}(i, question)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return timings, nil
}

func (s *Service) answerOne(ctx context.Context, index interfaces.VectorIndex, question string) models.QuestionTiming {
	questionCtx := ctx
	if timeout := common.Duration(s.config.Pipeline.QuestionTimeout, 0); timeout > 0 {
		var cancel context.CancelFunc
		questionCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	timing := models.QuestionTiming{Question: question}

	retrievalStart := time.Now()
	retrieved, err := s.retriever.Retrieve(questionCtx, index, question)
	timing.Retrieval = time.Since(retrievalStart)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Retrieval failed, returning fallback answer")
		fallback := synthesizer.FallbackAnswer()
		timing.Answer = fallback.Text
		timing.Fallback = true
		return timing
	}

	synthesisStart := time.Now()
	answer := s.synthesizer.Synthesize(questionCtx, question, retrieved)
	timing.Synthesis = time.Since(synthesisStart)
	timing.Answer = answer.Text
	timing.Fallback = answer.Fallback
	return timing
}

// saveRecord writes the optional run trace. Storage is a sink; failures are
// logged and swallowed.
func (s *Service) saveRecord(runID string, req *models.QueryRequest, kind models.DocumentKind, chunkCount int, backend string, timings []models.QuestionTiming, duration time.Duration) {
	if s.storage == nil {
		return
	}

	record := &models.QueryRecord{
		ID:          runID,
		DocumentURL: req.Documents,
		Kind:        kind,
		ChunkCount:  chunkCount,
		Backend:     backend,
		Questions:   timings,
		Duration:    duration,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.storage.SaveRecord(record); err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("Query record not saved")
	}
}
