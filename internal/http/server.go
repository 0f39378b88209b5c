// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/subhasmitas02/SplitSmart/internal/export"
	"github.com/subhasmitas02/SplitSmart/internal/services"
)

const (
	requestTimeout  = 30 * time.Second
	rateLimitPerMin = 60
)

// Server is the SplitSmart HTTP API server.
type Server struct {
	svc      *services.LedgerService
	exporter export.ReportExporter
	ready    func(ctx context.Context) error
	limiter  *rateLimiter
}

func NewServer(svc *services.LedgerService) *Server {
	return &Server{
		svc:     svc,
		limiter: newRateLimiter(rateLimitPerMin, time.Minute),
	}
}

// SetExporter enables POST /api/reports/export.
func (s *Server) SetExporter(e export.ReportExporter) { s.exporter = e }

// SetReadyCheck installs the probe backing /readyz, typically a storage
// ping.
func (s *Server) SetReadyCheck(check func(ctx context.Context) error) { s.ready = check }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(securityHeaders)
	r.Use(requestLogger)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", s.handleCreateUser)
		r.Get("/users", s.handleLookupUser)
		r.Get("/users/{id}", s.handleGetUser)
		r.Get("/users/{id}/expenses", s.handleListUserExpenses)
		r.Get("/users/{id}/splits", s.handleListUserSplits)
		r.Get("/users/{id}/dashboard", s.handleDashboard)
		r.Get("/users/{id}/reports", s.handleReport)

		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)

		r.Get("/expenses", s.handleListExpenses)
		r.Post("/expenses", s.handleCreateExpense)
		r.Get("/expenses/{id}", s.handleGetExpense)
		r.Get("/expenses/{id}/splits", s.handleListExpenseSplits)

		r.Post("/splits/{id}/pay", s.handlePaySplit)

		r.Get("/households", s.handleListHouseholds)
		r.Post("/households", s.handleCreateHousehold)
		r.Get("/households/{id}", s.handleGetHousehold)
		r.Get("/households/{id}/roommates", s.handleHouseholdRoommates)
		r.Post("/roommates", s.handleCreateMembership)

		r.Post("/reports/export", s.handleExportReport)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
