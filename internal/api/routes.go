package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/geoliga/geoliga/internal/models"
	"github.com/geoliga/geoliga/internal/repository"
	"github.com/geoliga/geoliga/internal/services"
	"github.com/geoliga/geoliga/internal/worker"
)

// Server serves the computed league tables. It holds the latest built report
// behind a lock; rebuilds happen on the worker pool and swap it atomically.
type Server struct {
	Service   services.ReportService
	Snapshots repository.SnapshotRepository // optional, powers /api/raw filters
	Weeks     []models.WeekSpec
	Pool      *worker.Pool

	mu     sync.RWMutex
	report *models.Report
}

// SetReport publishes a newly built report.
func (s *Server) SetReport(r *models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = r
}

// Report returns the currently published report, or nil before the first
// build completes.
func (s *Server) Report() *models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/weeks/{label}", s.handleWeek)
		r.Get("/total", s.handleTotal)
		r.Get("/stats", s.handleStats)
		r.Get("/raw", s.handleRaw)
		r.Get("/report.xlsx", s.handleReportXLSX)
		r.Post("/rebuild", s.handleRebuild)
	})

	return r
}
