package extractor

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ternarybob/respondeo/internal/models"
)

// textExtractor handles plain-text documents. Bytes pass through unchanged
// apart from the shared normalization; invalid UTF-8 is rejected rather
// than silently mangled.
type textExtractor struct{}

func (e *textExtractor) extract(ctx context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: document is not valid UTF-8 text", models.ErrCorruptDocument)
	}
	return string(data), nil
}
