package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/respondeo/internal/interfaces"
)

// RecordsHandler exposes the optional query log for inspection
type RecordsHandler struct {
	storage interfaces.QueryLogStorage
	logger  arbor.ILogger
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(storage interfaces.QueryLogStorage, logger arbor.ILogger) *RecordsHandler {
	return &RecordsHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler handles GET /api/v1/records requests
func (h *RecordsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusNotFound, "Query log storage is not enabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := h.storage.ListRecords(limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list query records")
		writeError(w, http.StatusInternalServerError, "Failed to list query records")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// GetHandler handles GET /api/v1/records/{id} requests
func (h *RecordsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusNotFound, "Query log storage is not enabled")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/records/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Record ID is required")
		return
	}

	record, err := h.storage.GetRecord(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Record not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
