package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/models"
)

// mockPipeline implements interfaces.QueryPipeline for testing
type mockPipeline struct {
	runFunc func(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error)
}

func (m *mockPipeline) Run(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, req)
	}
	return &models.QueryResponse{Answers: []string{"answer"}}, nil
}

func executeRunRequest(handler *QueryHandler, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.RunHandler(rec, req)
	return rec
}

func TestRunHandlerMethodNotAllowed(t *testing.T) {
	handler := NewQueryHandler(&mockPipeline{}, arbor.NewLogger())

	rec := executeRunRequest(handler, http.MethodGet, "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRunHandlerInvalidBody(t *testing.T) {
	handler := NewQueryHandler(&mockPipeline{}, arbor.NewLogger())

	rec := executeRunRequest(handler, http.MethodPost, "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRunHandlerValidation(t *testing.T) {
	handler := NewQueryHandler(&mockPipeline{}, arbor.NewLogger())

	tests := []struct {
		name string
		body string
	}{
		{"missing documents", `{"questions":["q"]}`},
		{"non-url documents", `{"documents":"not-a-url","questions":["q"]}`},
		{"non-http scheme", `{"documents":"ftp://example.com/x.pdf","questions":["q"]}`},
		{"empty questions", `{"documents":"https://example.com/x.pdf","questions":[]}`},
		{"blank question", `{"documents":"https://example.com/x.pdf","questions":[""]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := executeRunRequest(handler, http.MethodPost, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRunHandlerSuccess(t *testing.T) {
	pipeline := &mockPipeline{
		runFunc: func(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
			if req.Documents != "https://example.com/policy.pdf" {
				t.Errorf("unexpected document URL: %q", req.Documents)
			}
			return &models.QueryResponse{Answers: []string{"first", "second"}}, nil
		},
	}
	handler := NewQueryHandler(pipeline, arbor.NewLogger())

	rec := executeRunRequest(handler, http.MethodPost,
		`{"documents":"https://example.com/policy.pdf","questions":["q1","q2"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response models.QueryResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(response.Answers) != 2 || response.Answers[0] != "first" {
		t.Errorf("unexpected answers: %v", response.Answers)
	}
}

func TestRunHandlerErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"fetch failure", fmt.Errorf("%w: HTTP 404", models.ErrFetch), http.StatusBadGateway},
		{"unsupported format", fmt.Errorf("%w: xlsx", models.ErrUnsupportedFormat), http.StatusUnprocessableEntity},
		{"corrupt document", fmt.Errorf("%w: bad pdf", models.ErrCorruptDocument), http.StatusUnprocessableEntity},
		{"model failure", fmt.Errorf("%w: provider down", models.ErrModelService), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &mockPipeline{
				runFunc: func(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
					return nil, tt.err
				},
			}
			handler := NewQueryHandler(pipeline, arbor.NewLogger())

			rec := executeRunRequest(handler, http.MethodPost,
				`{"documents":"https://example.com/doc.pdf","questions":["q"]}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
