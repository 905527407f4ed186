package svcctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/bedtime/internal/catalog"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/export"
	"github.com/jackzampolin/bedtime/internal/home"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/metrics"
	"github.com/jackzampolin/bedtime/internal/story"
)

// BuildOptions selects where Build reads its state from.
type BuildOptions struct {
	Home *home.Dir
	// CatalogPath overrides the home directory catalog file.
	CatalogPath string
	Logger      *slog.Logger
	// Metrics may be nil for one-shot CLI use.
	Metrics *metrics.Recorder
}

// Build opens the settings store, catalog and library under the home
// directory and wires a generator and exporter registry around them.
func Build(ctx context.Context, opts BuildOptions) (*Services, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Home == nil {
		return nil, fmt.Errorf("home directory is required")
	}
	if err := opts.Home.EnsureExists(); err != nil {
		return nil, err
	}

	store, err := config.OpenJSONStore(opts.Home.SettingsPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	if err := config.SeedDefaults(ctx, store, logger); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	catalogPath := opts.CatalogPath
	if catalogPath == "" {
		catalogPath = opts.Home.CatalogPath()
	}
	cat, err := catalog.LoadOrDefault(catalogPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	lib, err := library.Open(opts.Home.LibraryPath(), library.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	opts.Metrics.LibrarySize(lib.Len())

	guardN := config.GetInt(ctx, store, config.KeyGuardNgram, story.DefaultGuardN)
	gen := story.New(cat,
		story.WithGuard(guardN, 0),
		story.WithLogger(logger),
	)

	return &Services{
		Catalog:     cat,
		Generator:   gen,
		Library:     lib,
		Exporters:   export.DefaultRegistry(logger),
		ConfigStore: store,
		Logger:      logger,
		Home:        opts.Home,
		Metrics:     opts.Metrics,
	}, nil
}
