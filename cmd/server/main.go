package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/curation-evidence-sync/internal/api"
	"github.com/curation-evidence-sync/internal/cache"
	"github.com/curation-evidence-sync/internal/config"
	"github.com/curation-evidence-sync/internal/drugs"
	"github.com/curation-evidence-sync/internal/ledger"
	"github.com/curation-evidence-sync/internal/metrics"
	"github.com/curation-evidence-sync/internal/service"
	"github.com/curation-evidence-sync/pkg/external"
)

func main() {
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// Load configuration
	configManager, err := config.NewManager(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, configManager, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, configManager *config.Manager, logger *logrus.Logger) error {
	cfg := configManager.GetConfig()
	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
		"backend":     cfg.Backend.BaseURL,
	}).Info("Starting evidence sync server")

	store, err := ledger.Open(ctx, cfg.Ledger, logger)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	kb, err := external.NewKnowledgeBaseClient(cfg.Backend, logger)
	if err != nil {
		return fmt.Errorf("failed to create knowledge base client: %w", err)
	}

	catalog, err := drugs.NewCachedCatalog(kb, drugs.CachedCatalogConfig{Size: cfg.Cache.DrugCacheSize}, logger)
	if err != nil {
		return err
	}
	if _, err := catalog.Preload(ctx); err != nil {
		// The catalog refreshes on the first miss.
		logger.WithError(err).Warn("Failed to preload drug catalog")
	}

	collector := metrics.NewCollector()
	opts := []service.SubmitterOption{
		service.WithLedger(store),
		service.WithDrugCatalog(catalog),
		service.WithMetrics(collector),
	}
	serverOpts := []api.Option{
		api.WithLedger(store),
		api.WithMetrics(collector),
		api.WithHealthCheck("ledger", func(ctx context.Context) error {
			_, err := store.Count(ctx)
			return err
		}),
		api.WithHealthCheck("backend", func(context.Context) error {
			if kb.BreakerState() == gobreaker.StateOpen {
				return fmt.Errorf("circuit breaker open")
			}
			return nil
		}),
	}

	if cfg.Cache.RedisURL != "" {
		fingerprints, err := cache.NewRedisFingerprints(cfg.Cache.RedisURL, cfg.Cache.FingerprintTTL)
		if err != nil {
			return fmt.Errorf("failed to connect fingerprint cache: %w", err)
		}
		defer fingerprints.Close()
		opts = append(opts, service.WithFingerprints(fingerprints))
		serverOpts = append(serverOpts, api.WithHealthCheck("cache", fingerprints.Ping))
	} else {
		logger.Info("No Redis configured, fingerprint dedupe disabled")
	}

	submitter := service.NewSubmitter(logger, service.NewDefaultEvidenceSync(logger), kb, opts...)
	server := api.NewServer(configManager, submitter, logger, serverOpts...)

	return server.Start(ctx)
}
