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

// BusinessLedgerConfig provides the CRM (customers + cases) database settings.
type BusinessLedgerConfig interface {
	GetDatabaseURL() string
}

// SchedulingLedgerConfig provides the agenda (appointments) database settings.
type SchedulingLedgerConfig interface {
	GetAgendaDatabaseDSN() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq-backed audit scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetAuditCronSpec() string
}

// ReconcileConfig provides settings for reconciliation passes.
type ReconcileConfig interface {
	GetLookbackDays() int
	GetCustomerLimit() int
	GetRulesFile() string
	GetDispatchTimezone() string
	GetPhoneRegion() string
}

// MetricsConfig provides settings for the Prometheus endpoint.
type MetricsConfig interface {
	IsMetricsEnabled() bool
	GetMetricsAddr() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	AgendaDatabaseDSN string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	RedisURL          string
	RedisTLSInsecure  bool
	AsynqQueueName    string
	AsynqConcurrency  int
	AuditCronSpec     string
	LookbackDays      int
	CustomerLimit     int
	RulesFile         string
	DispatchTimezone  string
	PhoneRegion       string
	MetricsEnabled    bool
	MetricsAddr       string
	ShutdownTimeout   time.Duration
}

// BusinessLedgerConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulingLedgerConfig implementation
func (c *Config) GetAgendaDatabaseDSN() string { return c.AgendaDatabaseDSN }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }
func (c *Config) GetAuditCronSpec() string  { return c.AuditCronSpec }
func (c *Config) IsSchedulerEnabled() bool  { return c.RedisURL != "" }

// GetShutdownTimeout returns how long servers get to drain on shutdown.
func (c *Config) GetShutdownTimeout() time.Duration { return c.ShutdownTimeout }

// ReconcileConfig implementation
func (c *Config) GetLookbackDays() int        { return c.LookbackDays }
func (c *Config) GetCustomerLimit() int       { return c.CustomerLimit }
func (c *Config) GetRulesFile() string        { return c.RulesFile }
func (c *Config) GetDispatchTimezone() string { return c.DispatchTimezone }
func (c *Config) GetPhoneRegion() string      { return c.PhoneRegion }

// MetricsConfig implementation
func (c *Config) IsMetricsEnabled() bool { return c.MetricsEnabled }

// GetMetricsAddr is where processes without an API server (the scheduler)
// expose /metrics.
func (c *Config) GetMetricsAddr() string { return c.MetricsAddr }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		AgendaDatabaseDSN: getEnv("AGENDA_DATABASE_DSN", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisTLSInsecure:  strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:    getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:  mustInt(getEnv("ASYNQ_CONCURRENCY", "2")),
		AuditCronSpec:     getEnv("CRM_AUDIT_CRON", "@every 1h"),
		LookbackDays:      mustInt(getEnv("CRM_LOOKBACK_DAYS", "90")),
		CustomerLimit:     mustInt(getEnv("CRM_CUSTOMER_LIMIT", "300")),
		RulesFile:         getEnv("CRM_RULES_FILE", ""),
		DispatchTimezone:  getEnv("DISPATCH_TIMEZONE", "America/Mexico_City"),
		PhoneRegion:       getEnv("PHONE_REGION", "MX"),
		MetricsEnabled:    strings.EqualFold(getEnv("METRICS_ENABLED", "true"), "true"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9091"),
		ShutdownTimeout:   mustDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AgendaDatabaseDSN == "" {
		return fmt.Errorf("AGENDA_DATABASE_DSN is required")
	}
	if !c.CORSAllowAll && len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must list at least one origin unless CORS_ALLOW_ALL is true")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.LookbackDays < 1 || c.LookbackDays > 365 {
		return fmt.Errorf("CRM_LOOKBACK_DAYS must be between 1 and 365")
	}
	if c.CustomerLimit < 1 {
		return fmt.Errorf("CRM_CUSTOMER_LIMIT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be a positive duration such as 10s")
	}
	if _, err := time.LoadLocation(c.DispatchTimezone); err != nil {
		return fmt.Errorf("DISPATCH_TIMEZONE %q is not a known zone: %w", c.DispatchTimezone, err)
	}
	return nil
}

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
