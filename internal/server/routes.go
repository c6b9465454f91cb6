package server

import (
	"context"
	"net/http"

	"github.com/coursemind/coursemind/internal/agent"
	"github.com/coursemind/coursemind/internal/handler"
	"github.com/coursemind/coursemind/internal/middleware"
	"github.com/coursemind/coursemind/internal/security"
	"github.com/coursemind/coursemind/internal/service"
	"github.com/coursemind/coursemind/internal/session"
	"github.com/coursemind/coursemind/internal/tools"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// setupRoutes returns (router, pgSessions, error); pgSessions is non-nil
// only when Postgres is configured, so it can be closed on shutdown.
func (s *Server) setupRoutes() (http.Handler, *session.PostgresStore, error) {
	cfg := s.cfg
	ctx := context.Background()

	// ─── Services ───────────────────────────────────────────────────────────────
	store, err := service.NewCourseStore(service.StoreConfig{
		Scheme:       cfg.ElasticsearchScheme,
		Host:         cfg.ElasticsearchHost,
		Port:         cfg.ElasticsearchPort,
		User:         cfg.ElasticsearchUser,
		Password:     cfg.ElasticsearchPassword,
		VerifyCerts:  cfg.ElasticsearchVerifyCerts,
		MaxRetries:   cfg.ElasticsearchMaxRetries,
		ChunkIndex:   cfg.ChunkIndex,
		CatalogIndex: cfg.CatalogIndex,
		MaxResults:   cfg.MaxResults,
	})
	if err != nil {
		return nil, nil, err
	}

	var sessions session.Store
	var pgSessions *session.PostgresStore
	if cfg.PostgresDSN != "" {
		pgSessions, err = session.NewPostgresStore(ctx, cfg.PostgresDSN, cfg.MaxHistory)
		if err != nil {
			return nil, nil, err
		}
		sessions = pgSessions
	} else {
		log.Warn().Msg("POSTGRES_DSN not set - session history is in-memory and lost on restart")
		sessions = session.NewMemoryStore(cfg.MaxHistory)
	}

	// ─── Tools + Orchestrator ────────────────────────────────────────────────────
	registry := tools.NewRegistry(
		tools.NewCourseSearchTool(store),
		tools.NewCourseOutlineTool(store),
	)
	orchestrator := agent.NewOrchestrator(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL, cfg.MaxRounds)

	promptVal := security.NewPromptValidator()
	auditLogger := security.NewAuditLogger(cfg.EnableAuditLogging)
	pipeline := agent.NewCourseHandler(orchestrator, registry, sessions, promptVal, auditLogger)

	log.Info().
		Str("model", cfg.AnthropicModel).
		Int("max_rounds", cfg.MaxRounds).
		Int("max_results", cfg.MaxResults).
		Str("chunk_index", cfg.ChunkIndex).
		Str("catalog_index", cfg.CatalogIndex).
		Bool("postgres_sessions", pgSessions != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthDeps := map[string]handler.Pinger{"elasticsearch": store}
	if pgSessions != nil {
		healthDeps["postgres"] = pgSessions
	}
	healthH := handler.NewHealthHandler(healthDeps)
	queryH := handler.NewQueryHandler(pipeline)
	coursesH := handler.NewCoursesHandler(store)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Post("/query", queryH.Query)
			r.Get("/courses", coursesH.Courses)
		})
	})

	return r, pgSessions, nil
}
