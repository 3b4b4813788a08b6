package llm

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/respondeo/internal/models"
)

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429 status", errors.New("Error 429: too many requests"), true},
		{"resource exhausted", errors.New("code RESOURCE_EXHAUSTED"), true},
		{"anthropic rate limit", errors.New("rate_limit_error"), true},
		{"quota", errors.New("quota exceeded for project"), true},
		{"auth failure", errors.New("Error 401: unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("context deadline exceeded"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"server error", errors.New("Error 503: service unavailable"), true},
		{"overloaded", errors.New("overloaded_error"), true},
		{"bad request", errors.New("Error 400: invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransientError(tt.err); got != tt.want {
				t.Errorf("IsTransientError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil", nil, 0},
		{"no delay", errors.New("Error 429: too many requests"), 0},
		{
			"gemini style",
			errors.New("Error 429, Message: quota exceeded. Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"),
			time.Duration(45.387061394 * float64(time.Second)),
		},
		{
			"retryDelay field",
			errors.New(`details: {"retryDelay": "12s"}`),
			0, // Quoted form does not match; only the bare field does
		},
		{
			"retryDelay bare",
			errors.New("retryDelay: 12s"),
			12 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractRetryDelay(tt.err); got != tt.want {
				t.Errorf("ExtractRetryDelay(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTransient(t *testing.T) {
	transient, delay := Transient(errors.New("Error 429. Please retry in 30s."))
	if !transient {
		t.Error("rate limit should be transient")
	}
	if delay != 30*time.Second {
		t.Errorf("expected 30s suggested delay, got %v", delay)
	}

	transient, delay = Transient(errors.New("Error 400: bad request"))
	if transient {
		t.Error("client error should not be transient")
	}
	if delay != 0 {
		t.Errorf("expected no delay, got %v", delay)
	}
}

func TestChatFailureWrapsModelServiceSentinel(t *testing.T) {
	// Chat failures carry both the taxonomy sentinel and the provider
	// message, so errors.Is classification and the string-based transient
	// classifier keep working on the same error.
	apiErr := errors.New("Error 429, Message: quota exceeded. Please retry in 12s., Status: RESOURCE_EXHAUSTED")
	err := fmt.Errorf("%w: Gemini API call failed: %w", models.ErrModelService, apiErr)

	if !errors.Is(err, models.ErrModelService) {
		t.Error("wrapped chat failure must satisfy errors.Is on ErrModelService")
	}
	transient, delay := Transient(err)
	if !transient {
		t.Error("wrapping must not hide the transient classification")
	}
	if delay != 12*time.Second {
		t.Errorf("expected 12s suggested delay through the wrapper, got %v", delay)
	}

	if transient, _ := Transient(fmt.Errorf("%w: empty response from Gemini API", models.ErrModelService)); transient {
		t.Error("a permanent model failure must not classify as transient")
	}
}
