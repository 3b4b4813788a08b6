package synthesizer

import (
	"strings"

	"github.com/ternarybob/respondeo/internal/models"
)

const systemPrompt = `You are a precise document analyst. Answer the question using ONLY the provided document excerpts.

Rules:
- Base the answer strictly on the excerpts; never use outside knowledge.
- If the excerpts do not contain the information needed, reply with exactly NO_ANSWER and nothing else.
- Answer in one or two complete sentences, directly and specifically.
- Quote figures, dates, names and conditions exactly as the excerpts state them.`

const excerptSeparator = "\n---\n"

// noAnswerSentinel is the reply the model is instructed to emit when the
// excerpts cannot answer the question. Synthesize maps it to FallbackAnswer
// so unanswerable questions produce the same deterministic text as model
// failures.
const noAnswerSentinel = "NO_ANSWER"

func isNoAnswer(reply string) bool {
	return strings.HasPrefix(strings.TrimSpace(reply), noAnswerSentinel)
}

// buildPrompt assembles the user message from the retrieved excerpts and the
// question, returning the sequence indexes of the excerpts that made it in.
// When the excerpts exceed the character budget, the lowest-ranked ones are
// dropped whole; a partially included excerpt would misquote the document.
func buildPrompt(question string, chunks []models.RetrievedChunk, contextBudget int) (string, []int) {
	var included []string
	var sources []int
	used := 0
	for _, chunk := range chunks {
		cost := len(chunk.Text) + len(excerptSeparator)
		if contextBudget > 0 && used+cost > contextBudget && len(included) > 0 {
			break
		}
		included = append(included, chunk.Text)
		sources = append(sources, chunk.Seq)
		used += cost
	}

	var builder strings.Builder
	builder.WriteString("Document excerpts:\n\n")
	builder.WriteString(strings.Join(included, excerptSeparator))
	builder.WriteString("\n\nQuestion: ")
	builder.WriteString(question)
	builder.WriteString("\n\nAnswer:")
	return builder.String(), sources
}

// FallbackAnswer is the deterministic answer used when the model cannot
// produce one. It is honest about the failure without exposing internals.
func FallbackAnswer() models.Answer {
	return models.Answer{
		Text:     "Unable to generate an answer for this question from the provided document.",
		Fallback: true,
	}
}
