package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/metrics"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/training"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc     *training.Service
	db      *storage.DB
	alpha   *alpha.Provider
	metrics *metrics.Manager
	log     *slog.Logger
	apiKey  string
	devUser string
	whois   WhoIser
	mcp     http.Handler
	router  chi.Router
}

// Options carries the optional parts of a Server.
type Options struct {
	// APIKey guards the ingest endpoints.
	APIKey string
	// DevUser is the login requests act as when no Tailscale client is set.
	DevUser string
	// Gatherer backs /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
	// MCP is mounted at /mcp when set.
	MCP http.Handler
}

// New creates a new Server with all routes configured.
func New(svc *training.Service, db *storage.DB, alphaProvider *alpha.Provider, m *metrics.Manager, log *slog.Logger, opts Options) *Server {
	s := &Server{
		svc:     svc,
		db:      db,
		alpha:   alphaProvider,
		metrics: m,
		log:     log,
		apiKey:  opts.APIKey,
		devUser: opts.DevUser,
		mcp:     opts.MCP,
		router:  chi.NewRouter(),
	}
	s.routes(opts.Gatherer)
	return s
}

// SetTailscale switches identity resolution from the dev user to the
// tailnet peer behind each request.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(CORS)

	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)

		if s.mcp != nil {
			r.Handle("/mcp", s.mcp)
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/me", s.handleMe)

			// Ingest endpoints (API key required)
			r.Group(func(r chi.Router) {
				r.Use(APIKeyAuth(s.apiKey))
				r.Post("/ingest/alpha", s.handleAlphaIngest)
			})

			r.Route("/exercises", func(r chi.Router) {
				r.Get("/", s.handleListExercises)
				r.Post("/", s.handleCreateExercise)
				r.Get("/{id}", s.handleGetExercise)
			})

			r.Route("/definitions", func(r chi.Router) {
				r.Get("/", s.handleListDefinitions)
				r.Post("/", s.handleCreateDefinition)
				r.Get("/{id}", s.handleGetDefinition)
				r.Put("/{id}", s.handleUpdateDefinition)
				r.Delete("/{id}", s.handleDeleteDefinition)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Post("/", s.handleCloseSession)
				r.Get("/{id}", s.handleGetSession)
				r.Patch("/{id}", s.handleUpdateSession)
				r.Delete("/{id}", s.handleDeleteSession)
			})

			r.Get("/personal-bests", s.handleListPersonalBests)

			r.Get("/progression/settings", s.handleGetProgressionSettings)
			r.Put("/progression/settings", s.handleSaveProgressionSettings)
			r.Get("/progression/suggestion", s.handleSuggestion)

			r.Get("/measurements", s.handleListMeasurements)
			r.Post("/measurements", s.handleRecordMeasurement)
			r.Get("/measurements/latest", s.handleLatestMeasurement)

			r.Get("/imports", s.handleImportLogs)
			r.Get("/stats", s.handleStats)
		})
	})
}
