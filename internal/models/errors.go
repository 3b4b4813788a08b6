package models

import "errors"

// Error kinds for the query pipeline. Components wrap these with
// fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is without depending on concrete service types.
var (
	// ErrFetch covers network failures, non-2xx responses and oversized
	// payloads while downloading a document.
	ErrFetch = errors.New("document fetch failed")

	// ErrUnsupportedFormat is returned for document kinds outside the
	// declared set (pdf, docx, txt, eml).
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptDocument is returned when parsing a document fails
	// irrecoverably. Retrying a parse of the same bytes cannot succeed,
	// so this is surfaced, never retried.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrInvalidChunkConfig is returned when chunking configuration is
	// inconsistent (overlap >= chunk size, non-positive size).
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrEmbeddingService is returned when the embedding backend fails
	// after retries are exhausted.
	ErrEmbeddingService = errors.New("embedding service failed")

	// ErrIndexBackend is returned for vector index failures at runtime.
	// Initialization failures of the managed backend are not surfaced;
	// they trigger the local fallback instead.
	ErrIndexBackend = errors.New("vector index backend failed")

	// ErrModelService is returned when the language model fails after
	// retries. The synthesizer absorbs this into a fallback answer.
	ErrModelService = errors.New("model service failed")
)
