package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/civic/internal/events"
	"github.com/kalambet/civic/internal/reports"
)

// StatusStore is the slice of storage the health and status routes need.
type StatusStore interface {
	Ping(ctx context.Context) error
	JobCounts() (map[string]int, error)
}

// Deps holds dependencies for the HTTP handler.
type Deps struct {
	Events     *events.Service
	Reports    *reports.Service
	Store      StatusStore
	AdminToken string
	RateLimit  int // requests per RateWindow per client IP; 0 disables
	RateWindow time.Duration
}

// NewHandler returns the public events and reports API, the admin API and
// the health and metrics endpoints on one router.
func NewHandler(deps Deps) http.Handler {
	h := &handlers{events: deps.Events, reports: deps.Reports, store: deps.Store}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if deps.RateLimit > 0 {
			window := deps.RateWindow
			if window <= 0 {
				window = time.Minute
			}
			r.Use(httprate.LimitByIP(deps.RateLimit, window))
		}
		r.Use(Identify)

		r.Get("/events", h.listEvents)
		r.Get("/events/upcoming", h.upcomingEvents)
		r.Get("/events/search", h.searchEvents)
		r.Get("/events/recommendations", h.recommendations)
		r.Get("/events/categories", h.categories)
		r.Get("/events/stats", h.stats)
		r.Post("/events/searches", h.recordSearch)
		r.Get("/events/{id}", h.getEvent)

		r.Get("/reports/categories", h.reportCategories)
		r.Get("/reports/recent", h.recentReports)
		r.Get("/reports/mine", h.myReports)
		r.Post("/reports", h.submitReport)
		r.Get("/reports/{id}", h.getReport)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(BearerAuth(deps.AdminToken))
		r.Get("/status", h.status)
		r.Post("/events", h.createEvent)
		r.Put("/events/{id}", h.updateEvent)
		r.Delete("/events/{id}", h.deleteEvent)
		r.Get("/reports/dashboard", h.reportDashboard)
		r.Put("/reports/{id}/status", h.setReportStatus)
	})

	return r
}
