package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// QueryHandler handles document query requests
type QueryHandler struct {
	pipeline interfaces.QueryPipeline
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(pipeline interfaces.QueryPipeline, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		pipeline: pipeline,
		validate: validator.New(),
		logger:   logger,
	}
}

// RunHandler handles POST /api/v1/run requests
func (h *QueryHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode query request")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Query request failed validation")
		writeError(w, http.StatusBadRequest, "documents must be an http(s) URL and questions must be a non-empty list")
		return
	}

	h.logger.Info().
		Str("document", req.Documents).
		Int("questions", len(req.Questions)).
		Msg("Processing query request")

	response, err := h.pipeline.Run(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Str("document", req.Documents).Msg("Pipeline run failed")
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// statusForError maps the pipeline error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, models.ErrUnsupportedFormat), errors.Is(err, models.ErrCorruptDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
