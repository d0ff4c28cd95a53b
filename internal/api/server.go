// Package api exposes the calculators and saved scenarios over HTTP/JSON.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/credit-optimizer/internal/cache"
	"github.com/sells-group/credit-optimizer/internal/engine"
	"github.com/sells-group/credit-optimizer/internal/narrative"
	"github.com/sells-group/credit-optimizer/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options configures middleware.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string
}

// Server holds the handler dependencies. Store and Summarizer may be nil;
// scenario routes then answer 503 and summaries use the fallback template.
type Server struct {
	engine     *engine.Engine
	reports    *cache.Reports
	store      store.Store
	summarizer *narrative.Summarizer
	opts       Options
}

// New creates a Server. A nil reports wrapper runs the engine uncached.
func New(e *engine.Engine, reports *cache.Reports, st store.Store, summarizer *narrative.Summarizer, opts Options) *Server {
	if reports == nil {
		reports = cache.NewReports(e, nil, 0)
	}
	return &Server{
		engine:     e,
		reports:    reports,
		store:      st,
		summarizer: summarizer,
		opts:       opts,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Cache"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		if s.opts.RateLimitRPS > 0 {
			r.Use(newRateLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst).middleware)
		}
		r.Get("/calculators", s.handleCalculators)
		r.Post("/metrics", s.handleMetrics)
		r.Post("/score", s.handleScore)
		r.Post("/azeo", s.handleAzeo)
		r.Post("/recommend", s.handleRecommend)
		r.Post("/report", s.handleReport)

		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/", s.handleSaveScenario)
			r.Get("/", s.handleListScenarios)
			r.Get("/{id}", s.handleGetScenario)
			r.Delete("/{id}", s.handleDeleteScenario)
		})
	})
	return r
}
