package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/efilo/compliance/internal/ai"
	"github.com/efilo/compliance/internal/api"
	"github.com/efilo/compliance/internal/audit"
	"github.com/efilo/compliance/internal/auth"
	"github.com/efilo/compliance/internal/calendar"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/config"
	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/document"
	"github.com/efilo/compliance/internal/email"
	"github.com/efilo/compliance/internal/notice"
	"github.com/efilo/compliance/internal/project"
	"github.com/efilo/compliance/internal/score"
	"github.com/efilo/compliance/internal/search"
	"github.com/efilo/compliance/internal/user"
	"github.com/efilo/compliance/pkg/cache"
	"github.com/efilo/compliance/pkg/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting compliance server")

	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	dbConfig := database.DefaultPostgresConfig(cfg.DatabaseURL)
	db, err := database.NewPool(ctx, dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Redis
	redisConfig := cache.DefaultRedisConfig(cfg.RedisURL)
	redis, err := cache.NewClient(ctx, redisConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redis.Close()
	logger.Info("connected to redis")

	// AI client
	var aiClient *ai.Client
	if cfg.ClaudeAPIKey != "" {
		aiClient, err = ai.NewClient(ai.ClientConfig{
			APIKey:          cfg.ClaudeAPIKey,
			RateLimitPerMin: cfg.AIRateLimitPerMin,
		})
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
	} else {
		logger.Warn("CLAUDE_API_KEY not set, AI features disabled")
	}

	// Email transport
	var emailSvc email.Service
	if cfg.SMTPHost != "" {
		emailSvc = email.NewSMTPService(&email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		logger.Warn("SMTP not configured, using no-op email service")
		emailSvc = email.NewNoopService()
	}

	// Repositories
	auditRepo := audit.NewRepository(db.Pool)
	auditLog := audit.NewLogger(auditRepo, logger)
	projectRepo := project.NewRepository(db.Pool)
	userRepo := user.NewRepository(db.Pool)
	docRepo := document.NewRepository(db.Pool)
	clauseRepo := clause.NewRepository(db.Pool)
	deadlineRepo := deadline.NewRepository(db.Pool)
	noticeRepo := notice.NewRepository(db.Pool)
	scoreRepo := score.NewRepository(db.Pool)
	holidayRepo := calendar.NewRepository(db.Pool)

	// Services
	calSvc := calendar.NewService(holidayRepo)
	clauseSvc := clause.NewService(db.Pool, clauseRepo, auditLog)
	extractor := clause.NewExtractor(db.Pool, clauseRepo, docRepo, aiClient, auditLog, logger, clause.ExtractorConfig{
		Model:     cfg.ClaudeExtractModel,
		MaxTokens: cfg.ClaudeExtractTokens,
	})
	deadlineSvc := deadline.NewService(db.Pool, deadlineRepo, clauseRepo, calSvc, auditLog, logger)
	noticeSvc := notice.NewService(db.Pool, noticeRepo, clauseRepo, deadlineSvc, projectRepo, userRepo,
		aiClient, emailSvc, auditLog, logger, notice.DraftConfig{
			Model:     cfg.ClaudeDraftModel,
			MaxTokens: cfg.ClaudeDraftTokens,
		})
	scoreSvc := score.NewService(db.Pool, scoreRepo, noticeRepo, deadlineRepo, logger, cfg.ClaimsValuePerNotice)
	searchSvc := search.NewService(clauseRepo, deadlineRepo, noticeRepo)

	// Handlers
	clauseHandler := clause.NewHandler(clauseRepo, clauseSvc, extractor)
	deadlineHandler := deadline.NewHandler(deadlineSvc)
	noticeHandler := notice.NewHandler(noticeSvc)
	scoreHandler := score.NewHandler(scoreSvc)
	searchHandler := search.NewHandler(searchSvc)
	holidayHandler := calendar.NewHandler(calSvc)

	// Auth
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenExpiry = cfg.JWTAccessTokenExpiry
	jwtManager := auth.NewJWTManager(jwtConfig)
	authMiddleware := auth.NewMiddleware(jwtManager)

	// Rate limiters: per-user fixed window, disabled in development
	rateLimitEnabled := cfg.IsProduction()
	generalLimiter := api.NewRateLimiter(redis, cfg.RateLimitRequestsPerHour, time.Hour, "general", rateLimitEnabled)
	searchLimiter := api.NewRateLimiter(redis, cfg.RateLimitSearchPerMinute, time.Minute, "search", rateLimitEnabled)

	// Router
	r := chi.NewRouter()
	r.Use(api.RequestID)
	r.Use(api.Recovery(logger))
	r.Use(api.Logger(logger))
	r.Use(api.CORS(cfg.AllowedOrigins))
	r.Use(api.SecureHeaders)

	r.Get("/health", healthHandler())
	r.Get("/ready", readyHandler(db, redis))

	requireManager := authMiddleware.RequireRole(user.RoleAdmin, user.RoleProjectManager, user.RoleExecutive)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Use(generalLimiter.Middleware())

		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Route("/compliance", func(r chi.Router) {
				r.Post("/parse-contract", clauseHandler.ParseContract)
				r.Mount("/clauses", clauseHandler.Routes())
				r.Mount("/deadlines", deadlineHandler.Routes())
				r.Mount("/notices", noticeHandler.Routes())
				r.Mount("/score", scoreHandler.Routes())
				r.With(searchLimiter.Middleware()).Get("/search", searchHandler.Search)

				r.Route("/holidays", func(r chi.Router) {
					r.Get("/", holidayHandler.List)
					r.With(requireManager).Post("/", holidayHandler.Create)
					r.With(requireManager).Delete("/{holidayID}", holidayHandler.Delete)
				})
			})

			r.Get("/health/compliance", scoreHandler.HealthHandler)
		})
	})

	logger.Info("API routes registered")

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", cfg.Address())
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed, forcing close", "error", err)
			if err := server.Close(); err != nil {
				return fmt.Errorf("could not close server: %w", err)
			}
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}

// healthHandler returns liveness probe handler
func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.RespondData(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyHandler returns readiness probe handler
func readyHandler(db *database.Pool, redis *cache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		checks := make(map[string]string)
		healthy := true

		if err := db.Health(ctx); err != nil {
			checks["database"] = "unhealthy"
			healthy = false
		} else {
			checks["database"] = "healthy"
		}

		if err := redis.Health(ctx); err != nil {
			checks["redis"] = "unhealthy"
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}

		api.RespondData(w, status, map[string]interface{}{
			"status": map[bool]string{true: "ready", false: "not_ready"}[healthy],
			"checks": checks,
		})
	}
}
