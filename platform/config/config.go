// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
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
}

// PricingConfig provides settings for the pricing relay client and the
// valuation orchestration.
type PricingConfig interface {
	GetPricingRelayURL() string
	GetPricingAPIBaseURL() string
	GetPricingAPIKey() string
	GetPricingAPISecret() string
	GetPricingBusinessUnitID() string
	GetValuationDeadline() time.Duration
	GetPollInterval() time.Duration
	GetPollMaxAttempts() int
}

// MediaStoreConfig provides settings for the blob store tiers.
type MediaStoreConfig interface {
	GetEdgeFunctionsURL() string
	GetEdgeServiceKey() string
	GetR2AccountID() string
	GetR2BucketName() string
	GetSupabaseURL() string
	GetSupabaseBucketName() string
	GetMediaMaxFileSize() int64
	GetDirectS3Endpoint() string
	GetDirectS3AccessKey() string
	GetDirectS3SecretKey() string
	GetDirectS3UseSSL() bool
	IsDirectS3Enabled() bool
}

// RecordStoreConfig provides settings for the external record store.
type RecordStoreConfig interface {
	GetAirtableAPIKey() string
	GetAirtableBaseID() string
	GetAirtableInventoryTable() string
	GetAirtableValuationsTable() string
	IsRecordStoreEnabled() bool
}

// SchedulerConfig provides settings for the background task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// =============================================================================
// Config
// =============================================================================

// Config holds all application settings loaded from the environment.
type Config struct {
	Env            string
	HTTPAddr       string
	DatabaseURL    string
	JWTAccessSecret string
	CORSAllowAll   bool
	CORSOrigins    []string
	CORSAllowCreds bool

	PricingRelayURL       string
	PricingAPIBaseURL     string
	PricingAPIKey         string
	PricingAPISecret      string
	PricingBusinessUnitID string
	ValuationDeadline     time.Duration
	PollInterval          time.Duration
	PollMaxAttempts       int

	EdgeFunctionsURL   string
	EdgeServiceKey     string
	R2AccountID        string
	R2BucketName       string
	SupabaseURL        string
	SupabaseBucketName string
	MediaMaxFileSize   int64
	DirectS3Endpoint   string
	DirectS3AccessKey  string
	DirectS3SecretKey  string
	DirectS3UseSSL     bool

	AirtableAPIKey          string
	AirtableBaseID          string
	AirtableInventoryTable  string
	AirtableValuationsTable string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
}

// Load reads configuration from the environment (and .env in development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:    corsAllowAll,
		CORSOrigins:     corsOrigins,
		CORSAllowCreds:  strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		PricingRelayURL:       getEnv("PRICING_RELAY_URL", ""),
		PricingAPIBaseURL:     getEnv("PRICING_API_BASE_URL", "https://app.intelimotor.com/api"),
		PricingAPIKey:         getEnv("PRICING_API_KEY", ""),
		PricingAPISecret:      getEnv("PRICING_API_SECRET", ""),
		PricingBusinessUnitID: getEnv("PRICING_BUSINESS_UNIT_ID", ""),
		ValuationDeadline:     mustDuration(getEnv("VALUATION_DEADLINE", "60s")),
		PollInterval:          mustDuration(getEnv("VALUATION_POLL_INTERVAL", "3s")),
		PollMaxAttempts:       mustInt(getEnv("VALUATION_POLL_MAX_ATTEMPTS", "12")),

		EdgeFunctionsURL:   getEnv("EDGE_FUNCTIONS_URL", ""),
		EdgeServiceKey:     getEnv("EDGE_SERVICE_KEY", ""),
		R2AccountID:        getEnv("R2_ACCOUNT_ID", ""),
		R2BucketName:       getEnv("R2_BUCKET_NAME", "trefa-images"),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucketName: getEnv("SUPABASE_BUCKET_NAME", "fotos_airtable"),
		MediaMaxFileSize:   mustInt64(getEnv("MEDIA_MAX_FILE_SIZE", strconv.FormatInt(10*1024*1024, 10))),
		DirectS3Endpoint:   getEnv("DIRECT_S3_ENDPOINT", ""),
		DirectS3AccessKey:  getEnv("DIRECT_S3_ACCESS_KEY", ""),
		DirectS3SecretKey:  getEnv("DIRECT_S3_SECRET_KEY", ""),
		DirectS3UseSSL:     strings.EqualFold(getEnv("DIRECT_S3_USE_SSL", "true"), "true"),

		AirtableAPIKey:          getEnv("AIRTABLE_API_KEY", ""),
		AirtableBaseID:          getEnv("AIRTABLE_BASE_ID", ""),
		AirtableInventoryTable:  getEnv("AIRTABLE_INVENTORY_TABLE", "Inventario"),
		AirtableValuationsTable: getEnv("AIRTABLE_VALUATIONS_TABLE", "Cotizaciones"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		EmailEnabled:     emailEnabled && smtpHost != "",
		SMTPHost:         smtpHost,
		SMTPPort:         mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Autos TREFA"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.PricingRelayURL == "" {
		return nil, fmt.Errorf("PRICING_RELAY_URL is required")
	}
	if cfg.PricingAPIKey == "" || cfg.PricingAPISecret == "" {
		return nil, fmt.Errorf("PRICING_API_KEY and PRICING_API_SECRET are required")
	}
	if cfg.PricingBusinessUnitID == "" {
		return nil, fmt.Errorf("PRICING_BUSINESS_UNIT_ID is required")
	}
	if cfg.EdgeFunctionsURL == "" || cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("EDGE_FUNCTIONS_URL and SUPABASE_URL are required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string       { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool     { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string  { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool   { return c.CORSAllowCreds }

func (c *Config) GetPricingRelayURL() string        { return c.PricingRelayURL }
func (c *Config) GetPricingAPIBaseURL() string      { return c.PricingAPIBaseURL }
func (c *Config) GetPricingAPIKey() string          { return c.PricingAPIKey }
func (c *Config) GetPricingAPISecret() string       { return c.PricingAPISecret }
func (c *Config) GetPricingBusinessUnitID() string  { return c.PricingBusinessUnitID }
func (c *Config) GetValuationDeadline() time.Duration { return c.ValuationDeadline }
func (c *Config) GetPollInterval() time.Duration      { return c.PollInterval }
func (c *Config) GetPollMaxAttempts() int             { return c.PollMaxAttempts }

func (c *Config) GetEdgeFunctionsURL() string   { return c.EdgeFunctionsURL }
func (c *Config) GetEdgeServiceKey() string     { return c.EdgeServiceKey }
func (c *Config) GetR2AccountID() string        { return c.R2AccountID }
func (c *Config) GetR2BucketName() string       { return c.R2BucketName }
func (c *Config) GetSupabaseURL() string        { return c.SupabaseURL }
func (c *Config) GetSupabaseBucketName() string { return c.SupabaseBucketName }
func (c *Config) GetMediaMaxFileSize() int64    { return c.MediaMaxFileSize }
func (c *Config) GetDirectS3Endpoint() string   { return c.DirectS3Endpoint }
func (c *Config) GetDirectS3AccessKey() string  { return c.DirectS3AccessKey }
func (c *Config) GetDirectS3SecretKey() string  { return c.DirectS3SecretKey }
func (c *Config) GetDirectS3UseSSL() bool       { return c.DirectS3UseSSL }

// IsDirectS3Enabled reports whether the optional direct-S3 store tier is configured.
func (c *Config) IsDirectS3Enabled() bool {
	return c.DirectS3Endpoint != "" && c.DirectS3AccessKey != "" && c.DirectS3SecretKey != ""
}

func (c *Config) GetAirtableAPIKey() string          { return c.AirtableAPIKey }
func (c *Config) GetAirtableBaseID() string          { return c.AirtableBaseID }
func (c *Config) GetAirtableInventoryTable() string  { return c.AirtableInventoryTable }
func (c *Config) GetAirtableValuationsTable() string { return c.AirtableValuationsTable }

// IsRecordStoreEnabled reports whether the external record store is configured.
func (c *Config) IsRecordStoreEnabled() bool {
	return c.AirtableAPIKey != "" && c.AirtableBaseID != ""
}

func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

func (c *Config) GetEmailEnabled() bool      { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string   { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func mustInt64(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
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
