package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/amaumene/tvshowfetcher/internal/browser"
	"github.com/amaumene/tvshowfetcher/internal/cache"
	"github.com/amaumene/tvshowfetcher/internal/config"
	"github.com/amaumene/tvshowfetcher/internal/controllers"
	"github.com/amaumene/tvshowfetcher/internal/metrics"
	"github.com/amaumene/tvshowfetcher/internal/models"
	"github.com/amaumene/tvshowfetcher/internal/services/catalog"
	"github.com/amaumene/tvshowfetcher/internal/services/indexer"
	"github.com/amaumene/tvshowfetcher/internal/services/mailer"
	"github.com/amaumene/tvshowfetcher/internal/services/owncloud"
	"github.com/amaumene/tvshowfetcher/internal/services/yourls"
	"github.com/amaumene/tvshowfetcher/internal/tracing"
	"github.com/amaumene/tvshowfetcher/internal/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	db       *models.Database
	registry *prometheus.Registry

	syncCtrl     *controllers.SyncController
	strategyCtrl *controllers.StrategyController
	downloadCtrl *controllers.DownloadController
	cleanupCtrl  *controllers.CleanupController
	browser      *browser.Browser

	shutdownTracing func(context.Context) error
}

func newApp() (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger, err := utils.NewLoggerWithOptions(utils.LogOptions{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to open log file, logging to stdout only")
	}
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 4. Load blacklist
	blacklist, err := utils.LoadBlacklist(cfg.BlacklistFile)
	if err != nil {
		logger.WithError(err).Warn("Failed to load blacklist, continuing without it")
		blacklist = utils.NewBlacklist()
	} else {
		logger.WithField("terms", blacklist.Len()).Info("Blacklist loaded")
	}

	// 5. Observability
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)
	shutdownTracing := tracing.Setup(logger)

	// 6. Initialize services
	catalogClient := catalog.NewClient(cfg, logger)
	indexerClient, err := indexer.NewClient(cfg, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize indexer client: %w", err)
	}

	var notifier mailer.Notifier
	if cfg.MailEnabled() {
		notifier = mailer.NewMailer(cfg, logger)
	} else {
		logger.Warn("Mail is not configured, download summaries are only logged")
		notifier = mailer.NewLogNotifier(logger)
	}

	// 7. Initialize controllers
	a := &app{
		cfg:             cfg,
		logger:          logger,
		db:              db,
		registry:        registry,
		shutdownTracing: shutdownTracing,
	}
	a.syncCtrl = controllers.NewSyncController(db, catalogClient, controllers.SyncOptions{
		Actor:            cfg.AuditActor,
		TrustRemoteAired: cfg.TrustRemoteAired,
	}, m, logger)
	a.strategyCtrl = controllers.NewStrategyController(db, logger)
	acquirer := controllers.NewAcquirer(indexerClient, cfg.TempDir, blacklist, tracing.Tracer(), m, logger)
	a.downloadCtrl = controllers.NewDownloadController(db, acquirer, notifier, controllers.DownloadOptions{
		Passkey:         cfg.IndexerPasskey,
		DestDir:         cfg.WatchDir,
		Language:        cfg.PreferredLanguage,
		Resolution:      cfg.PreferredResolution,
		Delay:           cfg.DownloadDelay,
		ContinueOnError: cfg.DownloadContinueOnError,
		Actor:           cfg.AuditActor,
	}, m, logger)
	a.cleanupCtrl = controllers.NewCleanupController(cfg.TempDir, cfg.TempMaxAge, m, logger)

	// 8. Cloud browser
	if cfg.BrowserEnabled() {
		shortener, err := yourls.NewClient(cfg, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize YOURLS client: %w", err)
		}
		a.browser = browser.New(owncloud.NewClient(cfg, logger), shortener, cache.NewMemory(time.Minute), browser.Options{
			Root:    cfg.OCPath,
			ListTTL: cfg.BrowserListTTL,
			Workers: cfg.BrowserWorkers,
		}, m, logger)
	}

	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdownTracing(ctx); err != nil {
		a.logger.WithError(err).Warn("Failed to flush traces")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close database")
	}
}
