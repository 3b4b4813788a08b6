package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// Service downloads documents into a per-run scratch directory. One Service
// is created per pipeline run; Cleanup removes the whole scratch directory
// and runs on every exit path, so failures mid-pipeline never leak files.
type Service struct {
	client     *http.Client
	scratchDir string
	maxBytes   int64
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.DocumentFetcher = (*Service)(nil)

// NewService creates a fetcher with its own scratch directory under the
// configured root.
func NewService(config *common.FetcherConfig, logger arbor.ILogger) (*Service, error) {
	root := config.ScratchDir
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root: %w", err)
	}

	scratchDir, err := os.MkdirTemp(root, "respondeo-fetch-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}

	maxBytes := config.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 50 * 1024 * 1024
	}

	return &Service{
		client: &http.Client{
			Timeout: common.Duration(config.Timeout, 60*time.Second),
		},
		scratchDir: scratchDir,
		maxBytes:   maxBytes,
		logger:     logger,
	}, nil
}

// Fetch downloads the document at rawURL into the scratch directory and
// returns the raw bytes plus the detected document kind. Network failures,
// non-2xx responses and oversized payloads wrap models.ErrFetch.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*interfaces.FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: invalid document URL %q", models.ErrFetch, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", models.ErrFetch, resp.StatusCode, rawURL)
	}
	if resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: payload %d bytes exceeds limit %d", models.ErrFetch, resp.ContentLength, s.maxBytes)
	}

	// Read one byte past the cap so an oversized body without a declared
	// length is still rejected.
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", models.ErrFetch, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: payload exceeds limit %d bytes", models.ErrFetch, s.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response from %s", models.ErrFetch, rawURL)
	}

	localPath := filepath.Join(s.scratchDir, scratchFileName(parsed))
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return nil, fmt.Errorf("%w: writing scratch file: %v", models.ErrFetch, err)
	}

	contentType := resp.Header.Get("Content-Type")
	kind := detectKind(parsed, contentType, data)

	s.logger.Info().
		Str("url", rawURL).
		Str("kind", string(kind)).
		Str("content_type", contentType).
		Int("size", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Downloaded document")

	return &interfaces.FetchResult{
		Data:        data,
		Kind:        kind,
		ContentType: contentType,
		Size:        int64(len(data)),
		LocalPath:   localPath,
	}, nil
}

// Cleanup removes the scratch directory and everything in it.
func (s *Service) Cleanup() error {
	if s.scratchDir == "" {
		return nil
	}
	if err := os.RemoveAll(s.scratchDir); err != nil {
		return fmt.Errorf("failed to remove scratch directory: %w", err)
	}
	s.logger.Debug().Str("dir", s.scratchDir).Msg("Removed scratch directory")
	s.scratchDir = ""
	return nil
}

// scratchFileName derives a safe local file name from the URL path.
func scratchFileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	return name
}

// detectKind resolves the document kind from the URL extension, the declared
// Content-Type and sniffed content, in that order. The URL extension wins
// when present because object stores routinely declare octet-stream for
// everything.
func detectKind(u *url.URL, contentType string, data []byte) models.DocumentKind {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")) {
	case "pdf":
		return models.KindPDF
	case "docx":
		return models.KindDOCX
	case "txt", "text", "md":
		return models.KindText
	case "eml":
		return models.KindEmail
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return models.KindPDF
	case strings.Contains(ct, "officedocument.wordprocessingml"):
		return models.KindDOCX
	case strings.Contains(ct, "message/rfc822"):
		return models.KindEmail
	case strings.HasPrefix(ct, "text/plain"):
		return models.KindText
	}

	detected := mimetype.Detect(data)
	switch {
	case detected.Is("application/pdf"):
		return models.KindPDF
	case detected.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return models.KindDOCX
	case detected.Is("message/rfc822"):
		return models.KindEmail
	case detected.Is("text/plain"), strings.HasPrefix(detected.String(), "text/"):
		return models.KindText
	}

	// Let the extractor registry reject it as unsupported.
	return models.DocumentKind(strings.TrimPrefix(path.Ext(u.Path), "."))
}
