package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core"
	"github.com/joseph-ayodele/ballot-registry/internal/core/pages"
	"github.com/joseph-ayodele/ballot-registry/internal/export"
	"github.com/joseph-ayodele/ballot-registry/internal/repository"
	"github.com/joseph-ayodele/ballot-registry/internal/services/registry"
)

// App is the wired set of services both binaries run on.
type App struct {
	Config   *common.Config
	DB       *repository.DB
	Registry *registry.Service
	Export   *export.Service
	logger   *slog.Logger
}

// Options selects what gets wired.
type Options struct {
	// Processing wires page rendering and the field extraction oracle; it
	// needs a valid provider configuration. Without it Ingest fails.
	Processing bool
}

// Open connects to the store and builds the services.
func Open(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Processing {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.Database.DSN,
		DataDir:          cfg.Database.DataDir,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := repository.HealthCheck(ctx, db, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		repository.Close(db, logger)
		return nil, err
	}

	var runner registry.Runner = unconfigured{}
	if opts.Processing {
		oracle, err := core.NewOracle(cfg.LLM, logger)
		if err != nil {
			repository.Close(db, logger)
			return nil, err
		}
		extractor := pages.NewExtractor(pages.Config{
			Pdftoppm: cfg.Pages.Pdftoppm,
			DPI:      cfg.Pages.DPI,
			MaxPages: cfg.Pages.MaxPages,
		}, logger)
		runner = core.NewProcessor(logger, extractor, oracle)
	}

	repo := repository.NewDocumentRepository(db, logger)
	return &App{
		Config:   cfg,
		DB:       db,
		Registry: registry.NewService(runner, repo, logger),
		Export:   export.NewService(logger),
		logger:   logger,
	}, nil
}

func (a *App) Close() {
	repository.Close(a.DB, a.logger)
}
