package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "framer",
		Short: "Put photos in polaroid or proportional frames",
		Long: `Framer renders images into framed layouts and exports them.

Polaroid mode keeps the image at native size with an even border and a deep
caption margin at the bottom. Normal mode fits the image into a canvas of a
target aspect ratio with at least the requested border on every side.

One input produces a single image, several inputs produce a zip archive.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default framer.yaml if present)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", os.Getenv("FRAMER_VERBOSE") != "", "Verbose logging")

	cmd.AddCommand(newFrameCmd(opts))
	cmd.AddCommand(newPreviewCmd(opts))
	cmd.AddCommand(newPlanCmd(opts))

	return cmd
}
