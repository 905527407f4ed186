package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/export"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/schema"
	"github.com/jackzampolin/bedtime/internal/story"
	"github.com/jackzampolin/bedtime/internal/svcctx"
	"github.com/jackzampolin/bedtime/version"
)

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Router		/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server  string        `json:"server"`
	Version string        `json:"version"`
	Uptime  string        `json:"uptime"`
	Home    string        `json:"home,omitempty"`
	Catalog CatalogStatus `json:"catalog"`
	Library LibraryStatus `json:"library"`
	Formats []string      `json:"formats"`
}

// CatalogStatus describes the loaded catalog.
type CatalogStatus struct {
	Source    string   `json:"source"`
	Version   int      `json:"version"`
	Languages []string `json:"languages"`
}

// LibraryStatus describes the library file.
type LibraryStatus struct {
	Path    string `json:"path"`
	Stories int    `json:"stories"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// Started is set by the server at construction.
	Started time.Time
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary	Server status
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Router		/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := StatusResponse{
		Server:  "running",
		Version: version.GitRelease,
		Uptime:  time.Since(e.Started).Round(time.Second).String(),
	}
	if h := svcctx.HomeFrom(ctx); h != nil {
		resp.Home = h.Path()
	}
	if cat := svcctx.CatalogFrom(ctx); cat != nil {
		resp.Catalog = CatalogStatus{
			Source:    cat.Source(),
			Version:   cat.Version(),
			Languages: cat.Languages(),
		}
	} else {
		resp.Server = "initializing"
	}
	if lib := svcctx.LibraryFrom(ctx); lib != nil {
		resp.Library = LibraryStatus{Path: lib.Path(), Stories: lib.Len()}
	}
	if reg := svcctx.ExportersFrom(ctx); reg != nil {
		resp.Formats = reg.Formats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// MetricsEndpoint handles GET /metrics.
type MetricsEndpoint struct{}

func (e *MetricsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/metrics", e.handler
}

func (e *MetricsEndpoint) RequiresInit() bool { return false }

func (e *MetricsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	rec := svcctx.MetricsFrom(r.Context())
	if rec == nil {
		writeError(w, http.StatusNotFound, "metrics not enabled")
		return
	}
	rec.Handler().ServeHTTP(w, r)
}

func (e *MetricsEndpoint) Command(_ func() string) *cobra.Command {
	return nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeErr maps domain errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	var cfgErr *story.ConfigurationError
	switch {
	case errors.Is(err, library.ErrNotFound), errors.Is(err, library.ErrNothingToUndo),
		errors.Is(err, config.ErrNoDefault):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, story.ErrInvalidRequest), errors.Is(err, schema.ErrInvalidDocument),
		errors.Is(err, config.ErrInvalidKey), errors.Is(err, config.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, export.ErrUnknownFormat):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &cfgErr), errors.Is(err, story.ErrNotReproducible):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
