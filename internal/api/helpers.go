package api

import (
	"encoding/json"
	"net/http"

	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/models"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// currentReport returns the published report or a NOT_FOUND error before the
// first build has completed.
func (s *Server) currentReport() (*models.Report, error) {
	report := s.Report()
	if report == nil {
		return nil, errors.NewNotFoundError("report", "not built yet")
	}
	return report, nil
}

// variantFromRequest selects the "all" or "filtered" tables based on the
// ?variant query parameter.
func variantFromRequest(r *http.Request, report *models.Report) (*models.Variant, error) {
	switch r.URL.Query().Get("variant") {
	case "", "all":
		return &report.All, nil
	case "filtered":
		if report.Filtered == nil {
			return nil, errors.NewNotFoundError("variant", "filtered (deadline filtering inactive)")
		}
		return report.Filtered, nil
	default:
		return nil, errors.NewBadRequestError("variant must be \"all\" or \"filtered\"")
	}
}
