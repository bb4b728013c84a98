package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/soarlabs/soar/internal/api/handlers"
	mw "github.com/soarlabs/soar/internal/api/middleware"
	"github.com/soarlabs/soar/internal/config"
	"github.com/soarlabs/soar/internal/domain"
	"github.com/soarlabs/soar/internal/embedding"
	"github.com/soarlabs/soar/internal/llm"
	"github.com/soarlabs/soar/internal/service"
	"github.com/soarlabs/soar/internal/store"
)

// App holds the router plus process-level metrics state.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires clients, services, and handlers into a router. db may be nil,
// in which case sessions are not persisted and the session endpoints report
// persistence as unconfigured.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	llmProvider := config.LLMProvider()
	generator, err := llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("generator initialization failed, falling back to template mode",
			zap.String("provider", llmProvider), zap.Error(err))
		generator = nil
	} else if generator == nil {
		logger.Info("running in template mode, no generator configured")
	} else {
		logger.Info("generator initialized", zap.String("provider", llmProvider))
	}

	embeddingProvider := config.EmbeddingProvider()
	embeddingClient, err := embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
		embeddingClient = nil
	} else {
		logger.Info("embedding client initialized", zap.String("provider", embeddingProvider))
	}

	var sessionStore domain.SessionStore
	if db != nil {
		sessionStore = store.NewSessionStore(db)
	}

	orchestrator := service.NewOrchestrator(generator, logger)
	soarSvc := service.NewSOARService(orchestrator, sessionStore, embeddingClient, logger)

	baseCfg := config.SOARConfig()
	mode := config.InferenceMode()

	soarHandler := handlers.NewSOARHandler(soarSvc, baseCfg, mode, logger)
	sessionHandler := handlers.NewSessionHandler(soarSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler(metricsCollector))

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/soar", func(r chi.Router) {
			r.Post("/probe", soarHandler.Probe)
			r.Post("/run", soarHandler.Run)

			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", sessionHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", sessionHandler.GetByID)
					r.Get("/similar", sessionHandler.Similar)
				})
			})
		})
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok", "persistence": "disabled"}
		if db != nil {
			resp["persistence"] = "enabled"
			if err := db.Ping(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (app *App) metricsHandler(mc *mw.MetricsCollector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"in_flight":      mc.InFlight(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.SessionStore    = (*store.SessionStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.Generator       = (*llm.OpenAIClient)(nil)
	_ domain.Generator       = (*llm.AnthropicClient)(nil)
	_ domain.Generator       = (*llm.GeminiClient)(nil)
	_ domain.Generator       = (*llm.CerebrasClient)(nil)
	_ domain.Generator       = (*llm.MockClient)(nil)
)
