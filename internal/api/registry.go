package api

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Registry holds all registered endpoints.
type Registry struct {
	endpoints []Endpoint
}

// NewRegistry creates a new endpoint registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds an endpoint to the registry.
func (r *Registry) Register(ep Endpoint) {
	r.endpoints = append(r.endpoints, ep)
}

// RegisterRoutes registers all endpoint HTTP routes with the given mux.
// initMiddleware wraps handlers that need the story services loaded.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, initMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = initMiddleware(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// BuildCommands returns the "api" command with one subcommand per endpoint.
// Endpoints sharing a parent command name (e.g. "stories") are grouped
// under a single parent.
func (r *Registry) BuildCommands(getServerURL func() string) *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Commands that call the running server",
		Long: `API commands call the running bedtime server via HTTP.

These commands require a running server (bedtime serve).
Use --server to specify a custom server URL.

Examples:
  bedtime api health                          # Check server health
  bedtime api generate --topic dragons        # Generate a story
  bedtime api stories list --favorites        # List favorite stories
  bedtime api stories download <id> pdf       # Save a story as PDF`,
	}

	groups := make(map[string]*cobra.Command)
	for _, ep := range r.endpoints {
		cmd := ep.Command(getServerURL)
		if cmd == nil {
			continue
		}
		group, ok := ep.(Grouped)
		if !ok {
			apiCmd.AddCommand(cmd)
			continue
		}
		name, short := group.Group()
		parent, ok := groups[name]
		if !ok {
			parent = &cobra.Command{Use: name, Short: short}
			groups[name] = parent
			apiCmd.AddCommand(parent)
		}
		parent.AddCommand(cmd)
	}

	return apiCmd
}

// Endpoints returns all registered endpoints.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}
