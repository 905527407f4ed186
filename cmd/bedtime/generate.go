package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bedtime/internal/api"
	"github.com/jackzampolin/bedtime/internal/config"
	"github.com/jackzampolin/bedtime/internal/export"
	"github.com/jackzampolin/bedtime/internal/library"
	"github.com/jackzampolin/bedtime/internal/server/endpoints"
)

var (
	genFlags     endpoints.RequestFlags
	genCount     int
	genSalts     []string
	genExports   []string
	genExportDir string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a story without a running server",
	Long: `Generate a story locally and print it.

Defaults for language, tone, length and the calm closing line come from
the settings in the home directory, the same ones the web app uses.

Examples:
  bedtime generate --topic "a sleepy dragon" --name Mia
  bedtime generate --topic "la lune" --language fr --breathing --save
  bedtime generate --topic owls --export pdf,epub --dir ./stories
  bedtime generate --topic owls --salt 8812 -o json
  bedtime generate --topic owls --count 5 --save
  bedtime generate --topic owls --salts 8812,9001 --export txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if !cmd.Flags().Changed("output") {
			api.SetOutputFormat(string(api.OutputFormatText))
		}

		e, err := loadEnv(false)
		if err != nil {
			return err
		}
		defer e.logger.Close()

		svc, err := e.services(ctx, nil)
		if err != nil {
			return err
		}

		var single *uint64
		if cmd.Flags().Changed("salt") {
			single = &genFlags.Salt
		}
		plan, err := parseBatch(genCount, genSalts, single)
		if err != nil {
			return err
		}

		req, err := genFlags.Request(cmd).Resolve(ctx, svc.ConfigStore)
		if err != nil {
			return err
		}
		stories, err := plan.run(svc.Generator, req)
		if err != nil {
			return err
		}

		if genFlags.Save {
			for _, st := range stories {
				if err := svc.Library.Save(ctx, st); err != nil {
					return err
				}
			}
		} else if err := library.WriteRecovery(e.home.RecoveryPath(), stories[len(stories)-1]); err != nil {
			e.logger.Warn("failed to write recovery story", "error", err)
		}

		var out any = endpoints.StoryResponse{Story: stories[0], Saved: genFlags.Save}
		if len(stories) > 1 {
			out = endpoints.ListStoriesResponse{Stories: stories, Total: len(stories)}
		}
		if err := api.Output(out); err != nil {
			return err
		}
		if len(genExports) == 0 {
			return nil
		}

		dir := genExportDir
		if dir == "" {
			dir = config.GetString(ctx, svc.ConfigStore, config.KeyExportPath, "")
		}
		if dir == "" {
			dir = e.home.ExportsDir()
		}
		pattern := config.GetString(ctx, svc.ConfigStore, config.KeyFilenamePattern, export.DefaultPattern)

		for _, st := range stories {
			for _, format := range genExports {
				path, err := svc.Exporters.WriteFile(dir, pattern, st, format)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", path)
			}
		}
		return nil
	},
}

func init() {
	genFlags.Bind(generateCmd)
	generateCmd.Flags().IntVar(&genCount, "count", 0, "Number of stories to write (default 1, or one per --salts entry)")
	generateCmd.Flags().StringSliceVar(&genSalts, "salts", nil, "Reproduce the stories generated with these salts")
	generateCmd.Flags().StringSliceVar(&genExports, "export", nil, "Also write these formats (txt, html, pdf, rtf, epub)")
	generateCmd.Flags().StringVar(&genExportDir, "dir", "", "Export directory (default: export.path setting or ~/.bedtime/exports)")

	rootCmd.AddCommand(generateCmd)
}
