package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/metrics"
	"github.com/jackzampolin/bedtime/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Bedtime server",
	Long: `Start the Bedtime HTTP server.

The server provides:
  - /          - the web app
  - /api/...   - the JSON API used by the web app and "bedtime api"
  - /health    - basic server health check
  - /metrics   - Prometheus metrics
  - /swagger   - API documentation

Host and port come from the config file (server.host, server.port) unless
given as flags. Changing log_level in the config file takes effect without
a restart.

Examples:
  bedtime serve                    # Start on 127.0.0.1:8420
  bedtime serve --port 3000        # Start on custom port
  bedtime serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := loadEnv(true)
		if err != nil {
			return err
		}
		defer e.logger.Close()

		svc, err := e.services(ctx, metrics.NewRecorder())
		if err != nil {
			return err
		}

		cfg := e.config.Get()
		host, port := cfg.Server.Host, cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Services:      svc,
			ConfigManager: e.config,
			OnLogLevel:    e.logger.SetLevel,
			Logger:        e.logger.Logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8420", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
