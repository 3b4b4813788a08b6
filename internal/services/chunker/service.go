package chunker

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/models"
)

// Service splits extracted document text into overlapping fixed-size chunks.
// Chunk boundaries snap to natural break points (paragraph, sentence, word)
// when one exists within the boundary tolerance; otherwise a hard cut at the
// size limit is taken.
type Service struct {
	size      int
	overlap   int
	tolerance int
	logger    arbor.ILogger
}

func NewService(size, overlap, tolerance int, logger arbor.ILogger) (*Service, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", models.ErrInvalidChunkConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", models.ErrInvalidChunkConfig, overlap, size)
	}
	if tolerance < 0 || tolerance >= size {
		tolerance = 0
	}

	return &Service{
		size:      size,
		overlap:   overlap,
		tolerance: tolerance,
		logger:    logger,
	}, nil
}

// Split cuts text into sequential chunks. Every rune of the input appears in
// at least one chunk; consecutive chunks share the configured overlap. Offsets
// are rune positions into the original text.
func (s *Service) Split(documentID, text string) []models.Chunk {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}

	if total <= s.size {
		return []models.Chunk{{
			DocumentID: documentID,
			Seq:        0,
			Start:      0,
			End:        total,
			Text:       text,
		}}
	}

	var chunks []models.Chunk
	start := 0
	seq := 0
	for start < total {
		end := start + s.size
		if end >= total {
			end = total
		} else {
			end = s.snapToBoundary(runes, start, end)
		}

		chunks = append(chunks, models.Chunk{
			DocumentID: documentID,
			Seq:        seq,
			Start:      start,
			End:        end,
			Text:       string(runes[start:end]),
		})
		seq++

		if end >= total {
			break
		}

		next := end - s.overlap
		if next <= start {
			// Overlap would stall progress after a short boundary snap.
			next = start + 1
		}
		start = next
	}

	s.logger.Debug().
		Str("document_id", documentID).
		Int("text_runes", total).
		Int("chunks", len(chunks)).
		Msg("Document chunked")

	return chunks
}

// snapToBoundary searches backwards from the hard cut for a natural break
// within the tolerance window. Paragraph breaks win over sentence ends, which
// win over whitespace. The returned end always lands after the boundary so
// the break characters stay with the earlier chunk.
func (s *Service) snapToBoundary(runes []rune, start, end int) int {
	if s.tolerance == 0 {
		return end
	}

	floor := end - s.tolerance
	if floor <= start {
		floor = start + 1
	}

	bestWhitespace := -1
	bestSentence := -1
	for i := end - 1; i >= floor; i-- {
		c := runes[i]
		if c == '\n' {
			if i > 0 && runes[i-1] == '\n' {
				return i + 1
			}
			if bestSentence < 0 {
				bestSentence = i + 1
			}
			continue
		}
		if isSentenceEnd(c) && i+1 < len(runes) && isSpace(runes[i+1]) {
			if bestSentence < 0 {
				bestSentence = i + 1
			}
			continue
		}
		if isSpace(c) && bestWhitespace < 0 {
			bestWhitespace = i + 1
		}
	}

	if bestSentence > start {
		return bestSentence
	}
	if bestWhitespace > start {
		return bestWhitespace
	}
	return end
}

func isSentenceEnd(c rune) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Describe reports the active chunking parameters for startup logging.
func (s *Service) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "size=%d overlap=%d tolerance=%d", s.size, s.overlap, s.tolerance)
	return b.String()
}
