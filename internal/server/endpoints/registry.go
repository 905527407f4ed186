package endpoints

import (
	"time"

	"github.com/jackzampolin/bedtime/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	// Started is reported as the server start time by /status.
	Started time.Time
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{Started: cfg.Started},
		&MetricsEndpoint{},

		// Catalog
		&CatalogEndpoint{},

		// Story endpoints
		&GenerateEndpoint{},
		&ListStoriesEndpoint{},
		&UndoDeleteEndpoint{},
		&GetStoryEndpoint{},
		&SaveStoryEndpoint{},
		&DeleteStoryEndpoint{},
		&FavoriteEndpoint{},
		&ExportStoryEndpoint{},
		&DownloadStoryEndpoint{},

		// Library endpoints
		&LibraryExportEndpoint{},
		&LibraryImportEndpoint{},
		&CollectionEndpoint{},
		&RecoveryEndpoint{},
		&DiscardRecoveryEndpoint{},

		// Settings endpoints
		&ListSettingsEndpoint{},
		&GetSettingEndpoint{},
		&UpdateSettingEndpoint{},
		&ResetSettingEndpoint{},

		// Swagger/OpenAPI endpoints
		&SwaggerEndpoint{},
		&SwaggerUIEndpoint{},

		// Static files (catch-all, must be last)
		&StaticEndpoint{},
	}
}
