package api

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":       "ok",
		"report_built": s.Report() != nil,
	}
	respondJSON(w, http.StatusOK, status)
}
