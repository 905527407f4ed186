package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/home"
	"github.com/jackzampolin/bedtime/internal/logging"
	"github.com/jackzampolin/bedtime/internal/metrics"
	"github.com/jackzampolin/bedtime/internal/svcctx"
	"github.com/jackzampolin/bedtime/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "bedtime",
	Short: "Bedtime story generator",
	Long: `Bedtime writes short, calm bedtime stories from a content catalog.

Every story is assembled from randomly chosen fragments for the chosen
language, theme, tone and length, so asking twice gives two different
stories. Stories can be saved to a local library and exported as text,
HTML, PDF, RTF or EPUB.

Run "bedtime serve" for the web app, or "bedtime generate" to write a
story straight to the terminal.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bedtime/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bedtime home directory (default: ~/.bedtime)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or text",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// env is what every local command needs: the resolved home directory,
// the config file and a logger.
type env struct {
	home   *home.Dir
	config *config.Manager
	logger *logging.Logger
}

// loadEnv resolves the home directory and config. withFile mirrors logs
// into the rotating file when the config allows it.
func loadEnv(withFile bool) (*env, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()

	opts := logging.Options{Level: config.ParseLevel(cfg.LogLevel)}
	if withFile && cfg.LogFile {
		opts.FilePath = h.LogPath()
	}
	return &env{home: h, config: mgr, logger: logging.New(opts)}, nil
}

// services builds the full service set from the environment.
func (e *env) services(ctx context.Context, rec *metrics.Recorder) (*svcctx.Services, error) {
	svc, err := svcctx.Build(ctx, svcctx.BuildOptions{
		Home:        e.home,
		CatalogPath: e.config.Get().CatalogPath,
		Logger:      e.logger.Logger,
		Metrics:     rec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return svc, nil
}
