// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetIngestRatePerMinute() int
}

// SchedulerConfig provides redis/asynq settings for queued ingestion.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// NotificationConfig provides settings for alert fan-out.
type NotificationConfig interface {
	GetRedisURL() string
	GetAlertChannel() string
	GetAlertEmailRecipients() []string
	GetAppBaseURL() string
}

// SMTPConfig provides settings for critical alert e-mails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	IsSMTPEnabled() bool
}

// StorageConfig provides settings for the raw signal archive.
type StorageConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketRawSignals() string
	IsMinIOEnabled() bool
}

// ScoringConfig provides settings for the scoring pipeline.
type ScoringConfig interface {
	GetPhraseCatalogPath() string
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	AppBaseURL            string
	HTTPAddr              string
	DatabaseURL           string
	DatabaseMaxConns      int
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	IngestRatePerMinute   int
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	RunWorker             bool
	AlertChannel          string
	AlertEmailRecipients  []string
	SMTPHost              string
	SMTPPort              int
	SMTPUsername          string
	SMTPPassword          string
	SMTPFromName          string
	SMTPFromAddress       string
	MinIOEndpoint         string
	MinIOAccessKey        string
	MinIOSecretKey        string
	MinIOUseSSL           bool
	MinioBucketRawSignals string
	PhraseCatalogPath     string
	PhoneDefaultRegion    string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int { return c.DatabaseMaxConns }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string         { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool       { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string    { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool     { return c.CORSAllowCreds }
func (c *Config) GetIngestRatePerMinute() int { return c.IngestRatePerMinute }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// NotificationConfig implementation
func (c *Config) GetAlertChannel() string           { return c.AlertChannel }
func (c *Config) GetAlertEmailRecipients() []string { return c.AlertEmailRecipients }
func (c *Config) GetAppBaseURL() string             { return c.AppBaseURL }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) IsSMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFromAddress != "" && len(c.AlertEmailRecipients) > 0
}

// StorageConfig implementation
func (c *Config) GetMinIOEndpoint() string         { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string        { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string        { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool             { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketRawSignals() string { return c.MinioBucketRawSignals }
func (c *Config) IsMinIOEnabled() bool             { return c.MinIOEndpoint != "" }

// ScoringConfig implementation
func (c *Config) GetPhraseCatalogPath() string  { return c.PhraseCatalogPath }
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		AppBaseURL:            strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:4200"), "/"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:      mustInt(getEnv("DATABASE_MAX_CONNS", "20")),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		IngestRatePerMinute:   mustInt(getEnv("INGEST_RATE_PER_MINUTE", "600")),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "ingest"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		RunWorker:             strings.EqualFold(getEnv("RUN_WORKER", "false"), "true"),
		AlertChannel:          getEnv("ALERT_CHANNEL", "lead-alerts"),
		AlertEmailRecipients:  splitCSV(getEnv("ALERT_EMAIL_RECIPIENTS", "")),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:          getEnv("SMTP_FROM_NAME", "Lead Alerts"),
		SMTPFromAddress:       getEnv("SMTP_FROM_ADDRESS", ""),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketRawSignals: getEnv("MINIO_BUCKET_RAW_SIGNALS", "raw-signals"),
		PhraseCatalogPath:     getEnv("PHRASE_CATALOG_PATH", ""),
		PhoneDefaultRegion:    strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.RunWorker && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when RUN_WORKER is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
