package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"manifesto-backend/internal/analysis"
	"manifesto-backend/internal/llm"
	"manifesto-backend/internal/llm/anthropic"
	"manifesto-backend/internal/llm/gemini"
	"manifesto-backend/internal/llm/openai"
	"manifesto-backend/internal/llm/perplexity"
	"manifesto-backend/internal/ratelimit"
	"manifesto-backend/internal/scrape"
	"manifesto-backend/internal/services/health"
	"manifesto-backend/internal/shared/config"
	"manifesto-backend/internal/shared/metrics"
	"manifesto-backend/internal/shared/server/middleware"
	"manifesto-backend/internal/shared/server/respond"
	"manifesto-backend/internal/shared/storage/db"
	"manifesto-backend/internal/usage"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Dependencies
	sqlDB := connectDatabase(cfg)

	var repo analysis.Repo
	if sqlDB != nil {
		repo = &analysis.PGRepo{DB: sqlDB}
	} else {
		repo = analysis.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if sqlDB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(sqlDB))
	} else {
		usageSvc = usage.NewService()
	}
	usageHandler := usage.NewHandler(usageSvc)

	limiter := buildLimiter(cfg)
	registry := llm.NewRegistry(buildProviders(cfg)...)
	log.Printf("analysis providers configured: %v", registry.IDs())

	analysisSvc := analysis.NewService(
		scrape.NewScraper(),
		registry,
		limiter,
		usageSvc,
		repo,
		cfg.AnalysisRateLimit,
		cfg.AnalysisRateWindow,
	)
	analysisHandler := analysis.NewHandler(analysisSvc, repo)
	healthSvc := health.NewService(sqlDB)

	// Liveness and metrics stay outside the auth chain.
	r.GET("/metrics", metrics.Handler())
	r.GET("/api/v1/health", func(c *gin.Context) {
		respond.OK(c, healthSvc.Status(c.Request.Context()))
	})

	r.Use(
		middleware.Auth(cfg.Env, cfg.AdminEmails),
		middleware.RateLimit(analysisBackpressure()),
	)

	api := r.Group("/api/v1")
	analysisHandler.RegisterRoutes(api)
	usageHandler.RegisterRoutes(api)
	if cfg.Env == "dev" {
		dev := api.Group("/dev")
		usageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// connectDatabase opens the configured Postgres pool and runs migrations,
// falling back to memory storage when either step fails.
func connectDatabase(cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	conn, err := db.Connect(context.Background(), cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil
	}
	if err := db.RunMigrations(context.Background(), conn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		conn.Close()
		return nil
	}
	return conn
}

// buildLimiter prefers the fleet-wide Redis sliding window and falls back to
// the per-process limiter when Redis is not configured or unreachable.
func buildLimiter(cfg config.Config) ratelimit.Limiter {
	if cfg.RedisAddr != "" {
		limiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("failed to connect redis, falling back to in-process rate limiting: %v", err)
		} else {
			return limiter
		}
	}
	return ratelimit.NewMemoryLimiter(nil)
}

// buildProviders constructs one adapter per vendor with a usable credential.
// Priority ordering is the registry's concern, not ours.
func buildProviders(cfg config.Config) []llm.Provider {
	var providers []llm.Provider
	if llm.ValidCredential(cfg.GeminiKey) {
		providers = append(providers, gemini.NewClient(cfg.GeminiKey, cfg.GeminiModel))
	}
	if llm.ValidCredential(cfg.OpenAIKey) {
		providers = append(providers, openai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel))
	}
	if llm.ValidCredential(cfg.AnthropicKey) {
		providers = append(providers, anthropic.NewClient(cfg.AnthropicKey, cfg.AnthropicModel))
	}
	if llm.ValidCredential(cfg.PerplexityKey) {
		providers = append(providers, perplexity.NewClient(cfg.PerplexityKey, cfg.PerplexityModel))
	}
	return providers
}

// analysisBackpressure shapes bursts hitting the analysis endpoint on this
// instance. The authoritative per-user quota is the sliding window inside the
// analysis service.
func analysisBackpressure() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"ANALYZE": {Rate: 0.5, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/analyses") {
				return "ANALYZE"
			}
			return ""
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
