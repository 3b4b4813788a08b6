package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// FetchResult holds the outcome of downloading one document.
type FetchResult struct {
	Data        []byte
	Kind        models.DocumentKind
	ContentType string // Content type as declared/detected
	Size        int64
	LocalPath   string // Scratch file the bytes were written to
}

// DocumentFetcher downloads a document into scratch storage. Cleanup must be
// called on every exit path of a pipeline run; it removes the scratch
// location regardless of outcome.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
	Cleanup() error
}
