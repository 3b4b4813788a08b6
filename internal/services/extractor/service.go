package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// kindExtractor converts raw bytes of one document kind into plain text.
type kindExtractor interface {
	extract(ctx context.Context, data []byte) (string, error)
}

// Service implements interfaces.TextExtractor as a registry keyed by
// document kind. Parse failures are surfaced, never retried: retrying a
// parse of the same bytes cannot succeed.
type Service struct {
	extractors map[models.DocumentKind]kindExtractor
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.TextExtractor = (*Service)(nil)

// NewService creates the extractor registry for the declared format set.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		extractors: map[models.DocumentKind]kindExtractor{
			models.KindPDF:   newPDFExtractor(logger),
			models.KindDOCX:  &docxExtractor{},
			models.KindEmail: &emailExtractor{},
			models.KindText:  &textExtractor{},
		},
		logger: logger,
	}
}

// Extract returns plain text for the given bytes and kind, with page and
// paragraph boundaries preserved as embedded markers.
func (s *Service) Extract(ctx context.Context, data []byte, kind models.DocumentKind) (string, error) {
	ext, ok := s.extractors[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, kind)
	}

	text, err := ext.extract(ctx, data)
	if err != nil {
		return "", err
	}

	normalized := normalizeText(text)
	if normalized == "" {
		return "", fmt.Errorf("%w: no text content extracted", models.ErrCorruptDocument)
	}

	s.logger.Debug().
		Str("kind", string(kind)).
		Int("raw_bytes", len(data)).
		Int("text_length", len(normalized)).
		Msg("Extracted document text")

	return normalized, nil
}

// Supports reports whether the registry handles kind.
func (s *Service) Supports(kind models.DocumentKind) bool {
	_, ok := s.extractors[kind]
	return ok
}

var (
	trailingSpaceRegex = regexp.MustCompile(`[ \t]+\n`)
	blankRunRegex      = regexp.MustCompile(`\n{3,}`)
)

// normalizeText cleans extracted text while keeping paragraph breaks intact:
// CRLF to LF, trailing whitespace stripped, runs of blank lines collapsed to
// one blank line.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = trailingSpaceRegex.ReplaceAllString(text, "\n")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
