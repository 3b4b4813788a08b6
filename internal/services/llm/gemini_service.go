package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GeminiService provides embeddings and chat completions through the Google
// Gemini API. It is the only provider that serves embeddings; chat may also
// be routed to Claude by the provider service.
type GeminiService struct {
	client      *genai.Client
	chatModel   string
	embedModel  string
	dimension   int
	temperature float32
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      arbor.ILogger
}

// NewGeminiService creates a Gemini-backed LLM service.
func NewGeminiService(ctx context.Context, geminiConfig *common.GeminiConfig, embedConfig *common.EmbeddingConfig, logger arbor.ILogger) (*GeminiService, error) {
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	interval := common.Duration(geminiConfig.RateLimit, 4*time.Second)

	service := &GeminiService{
		client:      client,
		chatModel:   geminiConfig.Model,
		embedModel:  embedConfig.Model,
		dimension:   embedConfig.Dimension,
		temperature: geminiConfig.Temperature,
		timeout:     common.Duration(geminiConfig.Timeout, 2*time.Minute),
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		logger:      logger,
	}

	logger.Debug().
		Str("chat_model", service.chatModel).
		Str("embed_model", service.embedModel).
		Int("embed_dimension", service.dimension).
		Dur("timeout", service.timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// EmbedBatch generates one embedding per input text in a single API call,
// preserving input order. The response is rejected when the vector count or
// any dimension does not match, so a chunk can never be paired with the
// wrong vector.
func (s *GeminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty for embedding generation")
	}
	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("text at index %d is empty", i)
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	outputDim := int32(s.dimension)
	start := time.Now()
	result, err := s.client.Models.EmbedContent(timeoutCtx, s.embedModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		if len(embedding.Values) != s.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch at input %d: expected %d, got %d",
				i, s.dimension, len(embedding.Values))
		}
		vectors[i] = embedding.Values
	}

	s.logger.Debug().
		Int("batch_size", len(texts)).
		Int("embedding_dim", s.dimension).
		Dur("duration", time.Since(start)).
		Msg("Generated embeddings")

	return vectors, nil
}

// Chat generates a completion for the conversation history.
func (s *GeminiService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(timeoutCtx, s.chatModel, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: Gemini API call failed: %w", models.ErrModelService, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: empty response from Gemini API", models.ErrModelService)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty text in Gemini response", models.ErrModelService)
	}

	s.logger.Debug().
		Int("message_count", len(messages)).
		Int("response_length", len(text)).
		Dur("duration", time.Since(start)).
		Msg("Chat completion generated")

	return text, nil
}

// Dimension returns the configured embedding dimension.
func (s *GeminiService) Dimension() int {
	return s.dimension
}

// Close releases the client.
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format. System messages are extracted separately for SystemInstruction;
// the first one wins.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			geminiRole = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}
