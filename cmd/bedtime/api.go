package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func newAPICmd() *cobra.Command {
	reg := api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{}) {
		reg.Register(ep)
	}

	cmd := reg.BuildCommands(getServerURL)
	cmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://127.0.0.1:8420", "Server URL",
	)
	return cmd
}

func init() {
	rootCmd.AddCommand(newAPICmd())
}
