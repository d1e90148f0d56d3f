package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds all server configuration
type ServerConfig struct {
	// Server
	ServerHost  string
	ServerPort  int
	LogLevel    string
	Environment string // development|production

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret            string
	JWTAccessTokenExpiry time.Duration

	// Rate Limiting
	RateLimitRequestsPerHour  int
	RateLimitSearchPerMinute  int

	// Email
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	// Application
	AppName        string
	AppURL         string
	AllowedOrigins []string

	// AI Configuration
	ClaudeAPIKey         string
	ClaudeExtractModel   string
	ClaudeDraftModel     string
	ClaudeExtractTokens  int
	ClaudeDraftTokens    int
	AIRateLimitPerMin    int

	// Compliance
	ClaimsValuePerNotice int64 // dollars protected per on-time notice
}

// LoadServerConfig loads configuration from environment variables
func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		// Server defaults
		ServerHost:  getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:  getEnvInt("SERVER_PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("APP_ENV", "production"),

		// Required
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		// JWT timing
		JWTAccessTokenExpiry: getEnvDuration("JWT_ACCESS_TOKEN_EXPIRY", 15*time.Minute),

		// Rate limiting
		RateLimitRequestsPerHour: getEnvInt("RATE_LIMIT_REQUESTS_PER_HOUR", 1000),
		RateLimitSearchPerMinute: getEnvInt("RATE_LIMIT_SEARCH_PER_MINUTE", 30),

		// Email
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@efilo.ai"),

		// Application
		AppName:        getEnv("APP_NAME", "efilo Compliance"),
		AppURL:         getEnv("APP_URL", "http://localhost:8080"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:8080"}),

		// AI Configuration
		ClaudeAPIKey:        os.Getenv("CLAUDE_API_KEY"),
		ClaudeExtractModel:  getEnv("CLAUDE_EXTRACT_MODEL", "claude-opus-4-5-20250620"),
		ClaudeDraftModel:    getEnv("CLAUDE_DRAFT_MODEL", "claude-sonnet-4-5-20250929"),
		ClaudeExtractTokens: getEnvInt("CLAUDE_EXTRACT_MAX_TOKENS", 8000),
		ClaudeDraftTokens:   getEnvInt("CLAUDE_DRAFT_MAX_TOKENS", 4000),
		AIRateLimitPerMin:   getEnvInt("AI_RATE_LIMIT_PER_MIN", 60),

		// Compliance
		ClaimsValuePerNotice: int64(getEnvInt("CLAIMS_VALUE_PER_NOTICE", 50000)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present.
// In production this rejects insecure defaults to prevent misconfiguration.
func (c *ServerConfig) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	if c.IsProduction() {
		insecureSecrets := []string{
			"dev-jwt-secret-change-in-production",
			"change-me",
			"secret",
		}
		for _, insecure := range insecureSecrets {
			if c.JWTSecret == insecure {
				return fmt.Errorf("JWT_SECRET contains an insecure default value - generate a secure secret with: openssl rand -hex 32")
			}
		}

		if strings.Contains(c.DatabaseURL, "postgres:postgres") {
			return fmt.Errorf("DATABASE_URL contains an insecure default password")
		}
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
// Rate limiting is disabled outside production.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Address returns the server address in host:port format
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, s := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
