package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/curation-evidence-sync/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g.
// EVIDENCE_SYNC_BACKEND_BASE_URL.
const EnvPrefix = "EVIDENCE_SYNC"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v          *viper.Viper
	configFile string
	config     *domain.Config
}

// NewManager creates a new configuration manager. An empty configFile
// searches the default locations for config.yaml.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{configFile: configFile}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.configFile != "" {
		v.SetConfigFile(m.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/evidence-sync/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The config file is optional; defaults and env vars cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_request_body", 8<<20)

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:8888")
	v.SetDefault("backend.api_token", "")
	v.SetDefault("backend.timeout", "30s")
	v.SetDefault("backend.rate_limit", 10)
	v.SetDefault("backend.burst", 5)
	v.SetDefault("backend.breaker_interval", "30s")
	v.SetDefault("backend.breaker_timeout", "60s")
	v.SetDefault("backend.breaker_threshold", 3)

	// Ledger defaults
	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.sqlite_path", "./data/ledger.db")
	v.SetDefault("ledger.postgres_url", "")
	v.SetDefault("ledger.migrate_on_start", true)

	// Cache defaults
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.fingerprint_ttl", "168h")
	v.SetDefault("cache.drug_cache_size", 4096)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetBackendConfig returns the knowledge-base backend configuration
func (m *Manager) GetBackendConfig() *domain.BackendConfig {
	return &m.config.Backend
}

// GetLedgerConfig returns the submission ledger configuration
func (m *Manager) GetLedgerConfig() *domain.LedgerConfig {
	return &m.config.Ledger
}

// GetCacheConfig returns cache configuration
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.MaxRequestBody <= 0 {
		return fmt.Errorf("max request body must be positive")
	}

	// Validate backend configuration
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required")
	}
	if u, err := url.Parse(config.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base URL: %s", config.Backend.BaseURL)
	}
	if config.Backend.RateLimit <= 0 {
		return fmt.Errorf("backend rate limit must be positive")
	}
	if m.IsProduction() && config.Backend.APIToken == "" {
		return fmt.Errorf("backend API token is required in production")
	}

	// Validate ledger configuration
	switch strings.ToLower(config.Ledger.Driver) {
	case "", "sqlite":
	case "postgres":
		if config.Ledger.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for the postgres ledger")
		}
	default:
		return fmt.Errorf("unsupported ledger driver: %s", config.Ledger.Driver)
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
