package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/handlers"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/chunker"
	"github.com/ternarybob/respondeo/internal/services/embeddings"
	"github.com/ternarybob/respondeo/internal/services/extractor"
	"github.com/ternarybob/respondeo/internal/services/fetcher"
	"github.com/ternarybob/respondeo/internal/services/llm"
	"github.com/ternarybob/respondeo/internal/services/pipeline"
	"github.com/ternarybob/respondeo/internal/services/retriever"
	"github.com/ternarybob/respondeo/internal/services/synthesizer"
	"github.com/ternarybob/respondeo/internal/services/vectorindex"
	storagebadger "github.com/ternarybob/respondeo/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Core services
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService
	Extractor        interfaces.TextExtractor
	Chunker          *chunker.Service
	IndexProvider    *vectorindex.Provider
	Retriever        interfaces.Retriever
	Synthesizer      interfaces.AnswerSynthesizer
	Pipeline         interfaces.QueryPipeline

	// Optional query log sink
	Storage interfaces.QueryLogStorage

	// HTTP handlers
	APIHandler     *handlers.APIHandler
	QueryHandler   *handlers.QueryHandler
	RecordsHandler *handlers.RecordsHandler
}

// New builds the full service graph from configuration.
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	llmService, err := llm.NewService(ctx, config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM service: %w", err)
	}
	a.LLMService = llmService

	retry := common.NewRetryPolicy(config.Retry)
	a.EmbeddingService = embeddings.NewService(llmService, retry, &config.Embedding, logger)
	a.Extractor = extractor.NewService(logger)

	chunkService, err := chunker.NewService(
		config.Chunking.Size,
		config.Chunking.Overlap,
		config.Chunking.BoundaryTolerance,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chunker: %w", err)
	}
	a.Chunker = chunkService

	a.IndexProvider = vectorindex.NewProvider(config, logger)
	a.Retriever = retriever.NewService(a.EmbeddingService, config.Index.TopK, logger)
	a.Synthesizer = synthesizer.NewService(llmService, retry, config.Synthesis.ContextBudget, logger)

	if config.Storage.Enabled {
		db, err := storagebadger.NewBadgerDB(&config.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize query log storage: %w", err)
		}
		a.Storage = storagebadger.NewQueryLogStorage(db, logger)
	}

	newFetcher := func() (interfaces.DocumentFetcher, error) {
		return fetcher.NewService(&config.Fetcher, logger)
	}

	a.Pipeline = pipeline.NewService(
		config,
		newFetcher,
		a.Extractor,
		a.Chunker,
		a.EmbeddingService,
		a.IndexProvider,
		a.Retriever,
		a.Synthesizer,
		a.Storage,
		logger,
	)

	a.APIHandler = handlers.NewAPIHandler(logger)
	a.QueryHandler = handlers.NewQueryHandler(a.Pipeline, logger)
	a.RecordsHandler = handlers.NewRecordsHandler(a.Storage, logger)

	logger.Info().
		Str("chunking", chunkService.Describe()).
		Int("top_k", config.Index.TopK).
		Str("chat_provider", config.LLM.DefaultProvider).
		Msg("Application initialized")

	return a, nil
}

// Close releases all held resources.
func (a *App) Close() {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close query log storage")
		}
	}
	if a.IndexProvider != nil {
		if err := a.IndexProvider.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close index backend connection")
		}
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
}
