// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/bedtime/internal/catalog"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/export"
	"github.com/jackzampolin/bedtime/internal/home"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/metrics"
	"github.com/jackzampolin/bedtime/internal/story"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Catalog     *catalog.Catalog
	Generator   *story.Generator
	Library     *library.Store
	Exporters   *export.Registry
	ConfigStore config.Store
	Logger      *slog.Logger
	Home        *home.Dir
	Metrics     *metrics.Recorder
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// CatalogFrom extracts the content catalog from context.
func CatalogFrom(ctx context.Context) *catalog.Catalog {
	if s := ServicesFrom(ctx); s != nil {
		return s.Catalog
	}
	return nil
}

// GeneratorFrom extracts the story generator from context.
func GeneratorFrom(ctx context.Context) *story.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// LibraryFrom extracts the story library from context.
func LibraryFrom(ctx context.Context) *library.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Library
	}
	return nil
}

// ExportersFrom extracts the export format registry from context.
func ExportersFrom(ctx context.Context) *export.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Exporters
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigStoreFrom extracts the settings store from context.
func ConfigStoreFrom(ctx context.Context) config.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigStore
	}
	return nil
}

// MetricsFrom extracts the metrics recorder from context.
// A nil recorder is safe to use.
func MetricsFrom(ctx context.Context) *metrics.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Metrics
	}
	return nil
}
