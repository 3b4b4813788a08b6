package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
)

// Service composes the configured providers behind interfaces.LLMService.
// Embeddings always go through Gemini; chat goes to the default provider.
// The provider is selected once at construction, never per call.
type Service struct {
	gemini   *GeminiService
	claude   *ClaudeService
	provider ProviderType
	logger   arbor.ILogger
}

// Compile-time assertion
var _ interfaces.LLMService = (*Service)(nil)

// NewService wires providers from configuration. Gemini is required (it is
// the only embedding provider); Claude is initialized only when it is the
// default chat provider.
func NewService(ctx context.Context, config *common.Config, logger arbor.ILogger) (*Service, error) {
	gemini, err := NewGeminiService(ctx, &config.Gemini, &config.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini service: %w", err)
	}

	service := &Service{
		gemini:   gemini,
		provider: ProviderType(config.LLM.DefaultProvider),
		logger:   logger,
	}

	if service.provider == ProviderClaude {
		claude, err := NewClaudeService(&config.Claude, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Claude service: %w", err)
		}
		service.claude = claude
	}

	logger.Info().
		Str("chat_provider", string(service.provider)).
		Str("embed_model", config.Embedding.Model).
		Msg("LLM provider service initialized")

	return service, nil
}

// EmbedBatch generates embeddings via Gemini.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return s.gemini.EmbedBatch(ctx, texts)
}

// Chat routes the completion to the default provider.
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	switch s.provider {
	case ProviderClaude:
		return s.claude.Chat(ctx, messages)
	default:
		return s.gemini.Chat(ctx, messages)
	}
}

// Dimension returns the embedding dimension.
func (s *Service) Dimension() int {
	return s.gemini.Dimension()
}

// Close releases all provider clients.
func (s *Service) Close() error {
	if s.claude != nil {
		if err := s.claude.Close(); err != nil {
			return err
		}
	}
	return s.gemini.Close()
}
