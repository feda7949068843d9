package domain

import (
	"context"
)

// KnowledgeBase is the backend evidence store the engine submits to.
type KnowledgeBase interface {
	UpsertEvidences(ctx context.Context, evidences map[string]EvidenceRecord) error
	DeleteEvidences(ctx context.Context, ids []string) error
	UpdateGeneType(ctx context.Context, payload GeneTypePayload) error
}

// DrugSource lists every drug known to the backend.
type DrugSource interface {
	ListDrugs(ctx context.Context) ([]Drug, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetBackendConfig() *BackendConfig
	GetLedgerConfig() *LedgerConfig
	GetCacheConfig() *CacheConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
