package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/home"
	"github.com/jackzampolin/bedtime/internal/logging"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the home directory, config file and default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		if h.ConfigExists() && !initForce {
			fmt.Printf("Config exists: %s (use --force to overwrite)\n", h.ConfigPath())
		} else {
			if err := config.WriteDefault(h.ConfigPath()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", h.ConfigPath())
		}

		logger := logging.New(logging.Options{Level: config.ParseLevel("warn")})
		store, err := config.OpenJSONStore(h.SettingsPath(), logger.Logger)
		if err != nil {
			return err
		}
		if err := config.SeedDefaults(cmd.Context(), store, logger.Logger); err != nil {
			return err
		}
		fmt.Printf("Settings: %s\n", h.SettingsPath())
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
