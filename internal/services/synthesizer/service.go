package synthesizer

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/llm"
)

// Service turns retrieved chunks and a question into a grounded answer via
// the chat model. Synthesis never fails the pipeline: transient model errors
// are retried, and anything unrecoverable degrades to the fallback answer.
type Service struct {
	llmService    interfaces.LLMService
	retry         *common.RetryPolicy
	contextBudget int
	logger        arbor.ILogger
}

var _ interfaces.AnswerSynthesizer = (*Service)(nil)

func NewService(llmService interfaces.LLMService, retry *common.RetryPolicy, contextBudget int, logger arbor.ILogger) *Service {
	return &Service{
		llmService:    llmService,
		retry:         retry,
		contextBudget: contextBudget,
		logger:        logger,
	}
}

func (s *Service) Synthesize(ctx context.Context, question string, chunks []models.RetrievedChunk) models.Answer {
	if len(chunks) == 0 {
		s.logger.Warn().Str("question", truncateForLog(question)).Msg("No chunks retrieved, returning fallback answer")
		return FallbackAnswer()
	}

	prompt, sources := buildPrompt(question, chunks, s.contextBudget)
	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}

	var reply string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var chatErr error
		reply, chatErr = s.llmService.Chat(ctx, messages)
		return chatErr
	}, llm.Transient)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("question", truncateForLog(question)).
			Msg("Answer synthesis failed, returning fallback answer")
		return FallbackAnswer()
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		s.logger.Warn().Str("question", truncateForLog(question)).Msg("Model returned empty answer, returning fallback")
		return FallbackAnswer()
	}
	if isNoAnswer(reply) {
		s.logger.Debug().Str("question", truncateForLog(question)).Msg("Excerpts do not answer the question, returning fallback")
		return FallbackAnswer()
	}

	return models.Answer{
		Text:    reply,
		Sources: sources,
	}
}

func truncateForLog(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
