// Package drugs resolves the drug keys found in treatment names.
package drugs

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/curation-evidence-sync/internal/domain"
)

// Keys returns the lookup keys of a drug: its uuid and its name.
func Keys(d domain.Drug) []string {
	keys := make([]string, 0, 2)
	if d.UUID != "" {
		keys = append(keys, d.UUID)
	}
	if d.DrugName != "" && d.DrugName != d.UUID {
		keys = append(keys, d.DrugName)
	}
	return keys
}

// MapCatalog is a fixed, caller supplied drug collection.
type MapCatalog map[string]domain.Drug

// NewMapCatalog indexes drugs by every key.
func NewMapCatalog(drugs []domain.Drug) MapCatalog {
	c := make(MapCatalog, len(drugs)*2)
	for _, d := range drugs {
		for _, key := range Keys(d) {
			c[key] = d
		}
	}
	return c
}

// Lookup implements domain.DrugCatalog.
func (c MapCatalog) Lookup(key string) (domain.Drug, bool) {
	d, ok := c[key]
	return d, ok
}

// CachedCatalogConfig configures a CachedCatalog.
type CachedCatalogConfig struct {
	Size            int
	FetchTimeout    time.Duration
	RefreshInterval time.Duration // minimum time between refreshes on a miss
}

// CachedCatalog fronts the backend drug listing with a bounded LRU. A miss
// triggers a refresh from the source at most once per RefreshInterval.
type CachedCatalog struct {
	source domain.DrugSource
	cache  *lru.Cache[string, domain.Drug]
	logger *logrus.Logger
	config CachedCatalogConfig

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewCachedCatalog creates a new cached drug catalog
func NewCachedCatalog(source domain.DrugSource, config CachedCatalogConfig, logger *logrus.Logger) (*CachedCatalog, error) {
	if config.Size <= 0 {
		config.Size = 4096
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 10 * time.Second
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = time.Minute
	}

	cache, err := lru.New[string, domain.Drug](config.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create drug cache: %w", err)
	}

	return &CachedCatalog{
		source: source,
		cache:  cache,
		logger: logger,
		config: config,
	}, nil
}

// Preload fetches the full drug listing into the cache. When keys are given
// it reports the ones the backend does not know.
func (c *CachedCatalog) Preload(ctx context.Context, keys ...string) ([]string, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	var missing []string
	for _, key := range keys {
		if !c.cache.Contains(key) {
			missing = append(missing, key)
		}
	}
	return missing, nil
}

// Lookup implements domain.DrugCatalog.
func (c *CachedCatalog) Lookup(key string) (domain.Drug, bool) {
	if d, ok := c.cache.Get(key); ok {
		return d, true
	}

	c.mu.Lock()
	stale := time.Since(c.lastRefresh) >= c.config.RefreshInterval
	c.mu.Unlock()
	if !stale {
		return domain.Drug{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.FetchTimeout)
	defer cancel()
	if err := c.refresh(ctx); err != nil {
		c.logger.WithError(err).WithField("drug", key).Warn("Failed to refresh drug catalog")
		return domain.Drug{}, false
	}
	return c.cache.Get(key)
}

// Len returns the number of cached keys.
func (c *CachedCatalog) Len() int {
	return c.cache.Len()
}

// Purge empties the cache and allows an immediate refresh.
func (c *CachedCatalog) Purge() {
	c.cache.Purge()
	c.mu.Lock()
	c.lastRefresh = time.Time{}
	c.mu.Unlock()
}

func (c *CachedCatalog) refresh(ctx context.Context) error {
	drugs, err := c.source.ListDrugs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list drugs: %w", err)
	}
	for _, d := range drugs {
		for _, key := range Keys(d) {
			c.cache.Add(key, d)
		}
	}

	c.mu.Lock()
	c.lastRefresh = time.Now()
	c.mu.Unlock()

	c.logger.WithField("drugs", len(drugs)).Debug("Refreshed drug catalog")
	return nil
}
