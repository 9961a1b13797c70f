package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/framer/internal/config"
	"github.com/lehigh-university-libraries/framer/internal/manifest"
	"github.com/lehigh-university-libraries/framer/internal/models"
)

// frameFlags mirror config.Config. Only flags set on the command line
// override the resolved config.
type frameFlags struct {
	mode            string
	border          int
	aspect          string
	basis           string
	background      string
	format          string
	quality         int
	caption         string
	captionColor    string
	captionProvider string
	captionModel    string
	archive         string
	maxItems        int
}

func addFrameFlags(cmd *cobra.Command, f *frameFlags) {
	d := config.Default()
	cmd.Flags().StringVar(&f.mode, "mode", d.Mode, "Frame mode (normal or polaroid)")
	cmd.Flags().IntVar(&f.border, "border", d.Border, "Border thickness in pixels")
	cmd.Flags().StringVar(&f.aspect, "aspect", d.Aspect, "Target aspect ratio for normal mode (4:3, 3:2, 4:5, 1:1, 3:4)")
	cmd.Flags().StringVar(&f.basis, "basis", d.Basis, "Ratio compared against the target in normal mode (image or bordered)")
	cmd.Flags().StringVar(&f.background, "background", d.Background, "Frame color (#RGB, #RRGGBB, #RRGGBBAA, white, black)")
	cmd.Flags().StringVar(&f.format, "format", d.Format, "Output format (jpg or png)")
	cmd.Flags().IntVar(&f.quality, "quality", d.Quality, "JPEG quality (1-100)")
	cmd.Flags().StringVar(&f.caption, "caption", "", "Caption text for polaroid frames")
	cmd.Flags().StringVar(&f.captionColor, "caption-color", d.Caption.Color, "Caption text color")
	cmd.Flags().StringVar(&f.captionProvider, "caption-provider", "", "Generate captions with an LLM provider (gemini, ollama or openai)")
	cmd.Flags().StringVar(&f.captionModel, "caption-model", "", "Model name (defaults to provider's default)")
	cmd.Flags().StringVar(&f.archive, "archive-name", d.Archive, "File name used for multi-image exports")
	cmd.Flags().IntVar(&f.maxItems, "max-items", d.MaxItems, "Maximum number of images per batch (0 for no limit)")
}

// resolveConfig loads defaults, the config file and the environment, applies
// flags that were set explicitly and validates the result.
func resolveConfig(cmd *cobra.Command, g *globalOptions, f *frameFlags) (config.Config, error) {
	cfg, err := config.Load(g.configPath, g.configPath != "")
	if err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("border") {
		cfg.Border = f.border
	}
	if changed("aspect") {
		cfg.Aspect = f.aspect
	}
	if changed("basis") {
		cfg.Basis = f.basis
	}
	if changed("background") {
		cfg.Background = f.background
	}
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("quality") {
		cfg.Quality = f.quality
	}
	if changed("caption") {
		cfg.Caption.Text = f.caption
	}
	if changed("caption-color") {
		cfg.Caption.Color = f.captionColor
	}
	if changed("caption-provider") {
		cfg.Caption.Provider = f.captionProvider
	}
	if changed("caption-model") {
		cfg.Caption.Model = f.captionModel
	}
	if changed("archive-name") {
		cfg.Archive = f.archive
	}
	if changed("max-items") {
		cfg.MaxItems = f.maxItems
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// collectItems gathers inputs from positional args and an optional manifest,
// manifest entries first.
func collectItems(args []string, manifestPath string) ([]models.BatchItem, error) {
	var items []models.BatchItem

	if manifestPath != "" {
		loaded, err := manifest.NewLoader(manifestPath).Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
		items = append(items, loaded...)
	}

	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			continue
		}
		items = append(items, models.BatchItem{Source: arg})
	}

	return items, nil
}
