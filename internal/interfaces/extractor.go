package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// TextExtractor converts raw document bytes of one declared kind into plain
// text. Page and paragraph boundaries are preserved as embedded markers for
// later citation.
type TextExtractor interface {
	// Extract returns plain text for the given bytes and kind. Fails with
	// models.ErrUnsupportedFormat for unknown kinds and
	// models.ErrCorruptDocument when parsing fails irrecoverably.
	Extract(ctx context.Context, data []byte, kind models.DocumentKind) (string, error)

	// Supports reports whether the registry has an extractor for kind.
	Supports(kind models.DocumentKind) bool
}
