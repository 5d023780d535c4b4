package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"homesite_sync/config"
	"homesite_sync/httputil"
	"homesite_sync/logging"
	"homesite_sync/metrics"
	"homesite_sync/pipeline"
	"homesite_sync/scraper"
	"homesite_sync/services"
	"homesite_sync/storage"
)

// app holds everything a command needs to run pipeline steps.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	journal  *storage.SQLiteStore
	registry *prometheus.Registry
	orch     *pipeline.Orchestrator
	closers  []func() error
}

func newApp(ctx context.Context, f stepFlags) (a *app, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	site, err := cfg.Site()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	a = &app{cfg: cfg, logger: logger, closers: []func() error{closeLog}}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.journal, err = storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", cfg.DBPath, err)
	}
	a.closers = append(a.closers, a.journal.Close)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(a.registry)

	clients := httputil.NewClients(cfg.Scraper)
	backend, err := a.documentStore(ctx, clients)
	if err != nil {
		return nil, err
	}

	archive, err := storage.NewArchive(ctx, cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("page archive: %w", err)
	}

	fetcher := scraper.NewFetcher(cfg.Scraper, clients)
	if c, ok := fetcher.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	comms := scraper.NewCommsClient(site, fetcher)

	build := func(docs storage.DocumentStore) pipeline.Services {
		return pipeline.Services{
			States:      site.States,
			Communities: services.NewCommunityService(site, comms, docs, logger),
			Areas:       services.NewAreaService(comms, docs, logger),
			AreaLinker:  services.NewAreaLinker(comms, docs, logger),
			FloorPlans:  services.NewFloorPlanService(site, fetcher, docs, archive, logger),
			Houses:      services.NewHouseService(site, fetcher, docs, archive, logger),
			Linker:      services.NewLinker(docs, logger),
			Cleanup:     services.NewCleanupService(docs, logger),
			Maintenance: services.NewMaintenanceService(docs, logger),
		}
	}
	steps := pipeline.DefaultSteps(metrics.NewStore(backend, m), build, logger)
	a.orch = pipeline.NewOrchestrator(steps, a.journal, m, logger)

	logger.Info("homesite_sync ready",
		zap.String("site", site.ID),
		zap.String("backend", cfg.Backend),
		zap.String("fetcher", cfg.Scraper.Fetcher),
		zap.Bool("dry_run", f.dryRun),
	)
	return a, nil
}

func (a *app) documentStore(ctx context.Context, clients *httputil.Clients) (storage.DocumentStore, error) {
	switch a.cfg.Backend {
	case config.BackendPostgres:
		pg, err := storage.NewPostgresStore(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		return pg, nil
	default:
		return storage.NewSanityStore(a.cfg.Sanity, clients.API, a.logger), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
