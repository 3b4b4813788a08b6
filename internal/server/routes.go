package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Query pipeline
	mux.HandleFunc("/api/v1/run", s.app.QueryHandler.RunHandler)

	// API routes - Query log
	mux.HandleFunc("/api/v1/records", s.app.RecordsHandler.ListHandler)
	mux.HandleFunc("/api/v1/records/", s.app.RecordsHandler.GetHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	return mux
}
