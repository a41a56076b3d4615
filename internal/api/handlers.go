package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/geoliga/geoliga/internal/errors"
	"github.com/geoliga/geoliga/internal/export"
	"github.com/geoliga/geoliga/internal/logger"
	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/repository"
	"github.com/geoliga/geoliga/internal/worker"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		handleError(w, r, err)
		return
	}
	variant, err := variantFromRequest(r, report)
	if err != nil {
		handleError(w, r, err)
		return
	}

	label := chi.URLParam(r, "label")
	if unescaped, err := url.PathUnescape(label); err == nil {
		label = unescaped
	}
	for _, week := range variant.Weeks {
		if week.Label == label {
			respondJSON(w, http.StatusOK, week)
			return
		}
	}
	handleError(w, r, errors.NewNotFoundError("week", label))
}

func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		handleError(w, r, err)
		return
	}
	variant, err := variantFromRequest(r, report)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"week_labels": report.WeekLabels,
		"total":       variant.Total,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		handleError(w, r, err)
		return
	}
	variant, err := variantFromRequest(r, report)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"summary": variant.Stats,
		"players": variant.Players,
	})
}

// handleRaw serves cached raw rows with optional week/token/player filters.
// Falls back to the in-memory report when no snapshot database is configured.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.RawFilter{
		WeekLabel: q.Get("week"),
		Token:     q.Get("token"),
		Player:    q.Get("player"),
	}

	if s.Snapshots != nil {
		rows, err := s.Snapshots.ListRaw(r.Context(), filter)
		if err != nil {
			handleError(w, r, errors.NewInternalError(err))
			return
		}
		respondJSON(w, http.StatusOK, rows)
		return
	}

	report, err := s.currentReport()
	if err != nil {
		handleError(w, r, err)
		return
	}
	variant, err := variantFromRequest(r, report)
	if err != nil {
		handleError(w, r, err)
		return
	}
	rows := make([]models.RawRow, 0, len(variant.Raw))
	for _, row := range variant.Raw {
		if filter.WeekLabel != "" && row.WeekLabel != filter.WeekLabel {
			continue
		}
		if filter.Token != "" && row.Token != filter.Token {
			continue
		}
		if filter.Player != "" && row.Player != filter.Player {
			continue
		}
		rows = append(rows, row)
	}
	respondJSON(w, http.StatusOK, rows)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	report, err := s.currentReport()
	if err != nil {
		handleError(w, r, err)
		return
	}
	variant, err := variantFromRequest(r, report)
	if err != nil {
		handleError(w, r, err)
		return
	}

	f, err := export.Workbook(*variant)
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="league_report.xlsx"`)
	if err := f.Write(w); err != nil {
		logger.FromContext(r.Context()).Error("failed to stream workbook: %v", err)
	}
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if s.Pool == nil {
		handleError(w, r, errors.NewBadRequestError("rebuilds are not enabled"))
		return
	}

	log.Info("queueing report rebuild")
	s.Pool.Submit(&worker.RebuildReportJob{
		Service: s.Service,
		Weeks:   s.Weeks,
		OnDone: func(report *models.Report, err error) {
			if err != nil {
				return
			}
			s.SetReport(report)
		},
	})
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "rebuild queued"})
}
