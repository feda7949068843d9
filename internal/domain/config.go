package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment string        `mapstructure:"environment"`
	Server      ServerConfig  `mapstructure:"server"`
	Backend     BackendConfig `mapstructure:"backend"`
	Ledger      LedgerConfig  `mapstructure:"ledger"`
	Cache       CacheConfig   `mapstructure:"cache"`
	Logging     LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxRequestBody int64         `mapstructure:"max_request_body"`
}

// BackendConfig represents the knowledge-base backend the evidence is pushed to
type BackendConfig struct {
	BaseURL          string        `mapstructure:"base_url"`
	APIToken         string        `mapstructure:"api_token"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RateLimit        int           `mapstructure:"rate_limit"` // requests per second
	Burst            int           `mapstructure:"burst"`
	BreakerInterval  time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout   time.Duration `mapstructure:"breaker_timeout"`
	BreakerThreshold uint32        `mapstructure:"breaker_threshold"`
}

// LedgerConfig represents the submission audit ledger
type LedgerConfig struct {
	Driver         string `mapstructure:"driver"` // "sqlite" or "postgres"
	SQLitePath     string `mapstructure:"sqlite_path"`
	PostgresURL    string `mapstructure:"postgres_url"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	RedisURL       string        `mapstructure:"redis_url"` // empty disables fingerprint dedupe
	FingerprintTTL time.Duration `mapstructure:"fingerprint_ttl"`
	DrugCacheSize  int           `mapstructure:"drug_cache_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
