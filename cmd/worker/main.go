package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/efilo/compliance/internal/ai"
	"github.com/efilo/compliance/internal/alert"
	"github.com/efilo/compliance/internal/audit"
	"github.com/efilo/compliance/internal/calendar"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/config"
	"github.com/efilo/compliance/internal/deadline"
	"github.com/efilo/compliance/internal/document"
	"github.com/efilo/compliance/internal/email"
	"github.com/efilo/compliance/internal/job"
	"github.com/efilo/compliance/internal/jobs"
	"github.com/efilo/compliance/internal/notice"
	"github.com/efilo/compliance/internal/notification"
	"github.com/efilo/compliance/internal/project"
	"github.com/efilo/compliance/internal/score"
	"github.com/efilo/compliance/internal/trigger"
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

	logger.Info("starting compliance worker")

	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.NewPool(ctx, database.DefaultPostgresConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Redis is optional for the worker; digest locks degrade without it
	var redis *cache.Client
	if cfg.RedisURL != "" {
		redis, err = cache.NewClient(ctx, cache.DefaultRedisConfig(cfg.RedisURL))
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redis.Close()
		logger.Info("connected to redis")
	}

	// AI client (clause extraction jobs)
	var aiClient *ai.Client
	if key := os.Getenv("CLAUDE_API_KEY"); key != "" {
		aiClient, err = ai.NewClient(ai.ClientConfig{APIKey: key})
		if err != nil {
			return fmt.Errorf("failed to create AI client: %w", err)
		}
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
		emailSvc = email.NewNoopService()
	}

	// Wiring
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
	notifRepo := notification.NewRepository(db.Pool)

	calSvc := calendar.NewService(holidayRepo)
	deadlineSvc := deadline.NewService(db.Pool, deadlineRepo, clauseRepo, calSvc, auditLog, logger)
	scoreSvc := score.NewService(db.Pool, scoreRepo, noticeRepo, deadlineRepo, logger, cfg.ClaimsValuePerNotice)
	triggerSvc := trigger.NewService(clauseRepo, deadlineRepo, deadlineSvc, logger)
	dispatcher := alert.NewDispatcher(userRepo, notifRepo, deadlineRepo, scoreSvc, emailSvc, logger, cfg.AppURL)
	extractor := clause.NewExtractor(db.Pool, clauseRepo, docRepo, aiClient, auditLog, logger, clause.ExtractorConfig{
		Model: os.Getenv("CLAUDE_EXTRACT_MODEL"),
	})

	// Queue, registry, scheduler, worker
	hostname, _ := os.Hostname()
	workerID := fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())

	queue := job.NewQueue(db.Pool, &job.QueueConfig{WorkerID: workerID, Logger: logger})

	registry := job.NewRegistry()
	registry.MustRegister(job.TypeSeverityPass,
		jobs.NewSeverityPassHandler(deadlineRepo, deadlineSvc, clauseRepo, dispatcher, logger))
	registry.MustRegister(job.TypeDailySnapshot,
		jobs.NewDailySnapshotHandler(projectRepo, scoreSvc, logger))
	registry.MustRegister(job.TypeWeeklyDigest,
		jobs.NewWeeklyDigestHandler(projectRepo, scoreSvc, dispatcher, redis, logger))
	registry.MustRegister(job.TypeRFITrigger,
		jobs.NewRFITriggerHandler(triggerSvc, logger))
	registry.MustRegister(job.TypeChangeEventTrigger,
		jobs.NewChangeEventTriggerHandler(triggerSvc, logger))
	if aiClient != nil {
		registry.MustRegister(job.TypeClauseExtraction,
			jobs.NewClauseExtractionHandler(extractor, logger))
	}

	scheduler := job.NewScheduler(queue, db.Pool, &job.SchedulerConfig{Logger: logger})
	if err := scheduler.EnsureComplianceSchedules(ctx); err != nil {
		return fmt.Errorf("failed to register compliance schedules: %w", err)
	}

	worker := job.NewWorker(queue, registry, &job.WorkerConfig{
		ID:              workerID,
		Concurrency:     cfg.WorkerConcurrency,
		PollInterval:    cfg.PollInterval,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
	})

	// Health endpoint
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  worker.Status(),
			"metrics": worker.Metrics(),
		})
	})
	healthServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HealthPort),
		Handler:     healthMux,
		ReadTimeout: 5 * time.Second,
	}

	// Supervise worker, scheduler, and health server together
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("health server listening", "port", cfg.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return healthServer.Shutdown(shutdownCtx)
	})

	// Signal handling
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		logger.Info("shutdown signal received", "signal", sig)
		cancel()
	}()

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}

	logger.Info("worker stopped gracefully")
	return nil
}
