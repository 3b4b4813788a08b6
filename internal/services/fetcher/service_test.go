package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
)

func newTestFetcher(t *testing.T, maxBytes int64) *Service {
	t.Helper()
	service, err := NewService(&common.FetcherConfig{
		ScratchDir: t.TempDir(),
		Timeout:    "5s",
		MaxBytes:   maxBytes,
	}, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { service.Cleanup() })
	return service
}

func TestFetchSuccess(t *testing.T) {
	body := "Plain text document body for fetching."
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(body))
	}))
	defer ts.Close()

	service := newTestFetcher(t, 1<<20)
	result, err := service.Fetch(context.Background(), ts.URL+"/policy.txt")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if string(result.Data) != body {
		t.Errorf("body mismatch: %q", result.Data)
	}
	if result.Kind != models.KindText {
		t.Errorf("expected text kind, got %q", result.Kind)
	}
	if result.Size != int64(len(body)) {
		t.Errorf("size mismatch: %d", result.Size)
	}
	if _, err := os.Stat(result.LocalPath); err != nil {
		t.Errorf("scratch file missing: %v", err)
	}
}

func TestFetchKindFromExtension(t *testing.T) {
	// Extension beats a generic Content-Type.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-1.4 not really"))
	}))
	defer ts.Close()

	service := newTestFetcher(t, 1<<20)
	result, err := service.Fetch(context.Background(), ts.URL+"/report.pdf?sig=abc")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if result.Kind != models.KindPDF {
		t.Errorf("expected pdf kind, got %q", result.Kind)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	service := newTestFetcher(t, 1<<20)

	for _, raw := range []string{"", "ftp://example.com/doc.pdf", "not a url"} {
		_, err := service.Fetch(context.Background(), raw)
		if !errors.Is(err, models.ErrFetch) {
			t.Errorf("Fetch(%q): expected ErrFetch, got %v", raw, err)
		}
	}
}

func TestFetchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	service := newTestFetcher(t, 1<<20)
	_, err := service.Fetch(context.Background(), ts.URL+"/missing.pdf")
	if !errors.Is(err, models.ErrFetch) {
		t.Fatalf("expected ErrFetch for 404, got %v", err)
	}
}

func TestFetchOversizePayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer ts.Close()

	service := newTestFetcher(t, 1024)
	_, err := service.Fetch(context.Background(), ts.URL+"/big.txt")
	if !errors.Is(err, models.ErrFetch) {
		t.Fatalf("expected ErrFetch for oversized payload, got %v", err)
	}
}

func TestCleanupRemovesScratchDir(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer ts.Close()

	root := t.TempDir()
	service, err := NewService(&common.FetcherConfig{ScratchDir: root, MaxBytes: 1 << 20}, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	result, err := service.Fetch(context.Background(), ts.URL+"/doc.txt")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if err := service.Cleanup(); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if _, err := os.Stat(result.LocalPath); !os.IsNotExist(err) {
		t.Errorf("scratch file survived cleanup: %v", err)
	}

	// Cleanup is idempotent.
	if err := service.Cleanup(); err != nil {
		t.Errorf("second Cleanup failed: %v", err)
	}
}
