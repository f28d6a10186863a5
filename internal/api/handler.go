package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/kanjidrill/internal/api/middleware"
	"github.com/phrazzld/kanjidrill/internal/service/review"
	"github.com/phrazzld/kanjidrill/internal/service/stats"
	"github.com/phrazzld/kanjidrill/internal/service/study"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsService computes learner statistics.
type StatsService interface {
	Statistics(ctx context.Context, setID *int) stats.Statistics
}

// DataStore is the subset of the store the handlers call directly.
type DataStore interface {
	GetExclusions(ctx context.Context, setID int) []int
	ToggleExclusion(ctx context.Context, setID, itemID int) (bool, error)
	ExportSnapshot(ctx context.Context) ([]byte, error)
	ImportSnapshot(ctx context.Context, blob []byte) error
	ClearAll(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API.
type Handler struct {
	reviews review.Service
	study   study.Service
	stats   StatsService
	data    DataStore
	budget  study.Budget
	logger  *slog.Logger
}

// NewHandler creates a Handler. budget supplies the study list limits a
// request leaves out.
func NewHandler(
	reviews review.Service,
	studyService study.Service,
	statsService StatsService,
	data DataStore,
	budget study.Budget,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for Handler")
	}
	if reviews == nil || studyService == nil || statsService == nil || data == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("services cannot be nil for Handler")
	}

	return &Handler{
		reviews: reviews,
		study:   studyService,
		stats:   statsService,
		data:    data,
		budget:  budget,
		logger:  logger.With(slog.String("component", "api_handler")),
	}
}

// Routes registers the API endpoints under /api.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/sets/{setId}", func(r chi.Router) {
			r.Post("/study-list", h.StudyList)
			r.Get("/due", h.DueItems)
			r.Get("/exclusions", h.GetExclusions)
			r.Post("/exclusions/{itemId}", h.ToggleExclusion)

			r.Route("/items/{itemId}", func(r chi.Router) {
				r.Get("/", h.CardInfo)
				r.Post("/outcome", h.RecordOutcome)
				r.Get("/reviews", h.ItemLogs)
				r.Post("/postpone", h.Postpone)
			})
		})

		r.Get("/stats", h.Statistics)
		r.Get("/snapshot", h.ExportSnapshot)
		r.Post("/snapshot", h.ImportSnapshot)
		r.Delete("/data", h.ClearAll)
	})
}

// Health reports whether the storage medium is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.data.Ping(r.Context()); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Error("failed to write health check response", slog.String("error", err.Error()))
	}
}

// RequestRecorder records served requests.
type RequestRecorder = middleware.RequestRecorder

// NewRouter creates the application router with all routes and middleware.
// A nil recorder disables request metrics; /metrics is served either way.
func NewRouter(h *Handler, rec RequestRecorder, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTraceMiddleware(logger))
	r.Use(chimw.Recoverer)
	if rec != nil {
		r.Use(middleware.NewMetricsMiddleware(rec))
	}

	h.Routes(r)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
