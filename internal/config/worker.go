package config

import (
	"fmt"
	"os"
	"time"
)

// WorkerConfig holds worker process configuration
type WorkerConfig struct {
	// Database
	DatabaseURL string

	// Redis (for job locks and digest idempotency)
	RedisURL string

	// Worker settings
	WorkerConcurrency int
	PollInterval      time.Duration
	ShutdownTimeout   time.Duration
	JobSoftTimeout    time.Duration
	JobHardTimeout    time.Duration

	// Email
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Application
	AppURL string

	// Compliance
	ClaimsValuePerNotice int64

	// Health server
	HealthPort int

	// Logging
	LogLevel string
}

// LoadWorkerConfig loads worker configuration from environment variables
func LoadWorkerConfig() (*WorkerConfig, error) {
	cfg := &WorkerConfig{
		// Required
		DatabaseURL: os.Getenv("DATABASE_URL"),
		// Optional
		RedisURL: os.Getenv("REDIS_URL"),

		// Worker settings with defaults
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 5),
		PollInterval:      getEnvDuration("WORKER_POLL_INTERVAL", 1*time.Second),
		ShutdownTimeout:   getEnvDuration("WORKER_SHUTDOWN_TIMEOUT", 30*time.Second),
		JobSoftTimeout:    getEnvDuration("JOB_SOFT_TIMEOUT", 10*time.Minute),
		JobHardTimeout:    getEnvDuration("JOB_HARD_TIMEOUT", 11*time.Minute),

		// Email
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@efilo.ai"),

		// Application
		AppURL: getEnv("APP_URL", "http://localhost:8080"),

		// Compliance
		ClaimsValuePerNotice: int64(getEnvInt("CLAIMS_VALUE_PER_NOTICE", 50000)),

		// Health server
		HealthPort: getEnvInt("WORKER_HEALTH_PORT", 8081),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *WorkerConfig) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}
	if c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at most 100")
	}
	if c.JobHardTimeout <= c.JobSoftTimeout {
		return fmt.Errorf("JOB_HARD_TIMEOUT must exceed JOB_SOFT_TIMEOUT")
	}
	return nil
}
