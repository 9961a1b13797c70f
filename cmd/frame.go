package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/framer/internal/batch"
	"github.com/lehigh-university-libraries/framer/internal/captioning"
	"github.com/lehigh-university-libraries/framer/internal/config"
	"github.com/lehigh-university-libraries/framer/internal/models"
	"github.com/lehigh-university-libraries/framer/internal/report"
	"github.com/lehigh-university-libraries/framer/internal/source"
)

func newFrameCmd(g *globalOptions) *cobra.Command {
	var flags frameFlags
	var manifestPath string
	var output string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "frame [images...]",
		Short: "Frame images and export them",
		Long: `Frame one or more images (local files or http(s) URLs) and export the result.

A single image is written as {name}_{mode}.{ext}. Several images are written
as one zip archive. Images that fail in a multi-image export are skipped and
listed in the report; a single image that fails is an error.`,
		Example: `  # Polaroid frame with a caption
  framer frame beach.jpg --mode polaroid --border 40 --caption "Summer 2024"

  # Several images at 4:5 into a zip archive in ./out
  framer frame *.jpg --mode normal --aspect 4:5 --output out/

  # Images listed in a manifest, with a YAML report
  framer frame --manifest batch.jsonl --report frames.yaml

  # Generated captions from a local Ollama model
  framer frame photo.jpg --caption-provider ollama --caption-model llava:13b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g, &flags)
			if err != nil {
				return err
			}

			items, err := collectItems(args, manifestPath)
			if err != nil {
				return err
			}

			b, err := batch.New(items, cfg.MaxItems)
			if err != nil {
				return err
			}

			exporter := newExporter(cfg)
			summary, err := runExport(cmd, exporter, b, output)
			if summary != nil && reportPath != "" {
				if rerr := report.Save(reportPath, summary); rerr != nil {
					slog.Error("Failed to save report", "path", reportPath, "error", rerr)
				} else {
					slog.Info("Report saved", "path", reportPath)
				}
			}
			return err
		},
	}

	addFrameFlags(cmd, &flags)
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest of images (.jsonl, .json, .yaml or .parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default: suggested name in the current directory)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write per-image results to a .yaml, .json or .parquet file")

	return cmd
}

func newExporter(cfg config.Config) *batch.Exporter {
	var captioner batch.Captioner
	if cfg.Caption.Provider != "" {
		captioner = captioning.NewService().WithPrompt(cfg.Caption.Prompt).WithModels(cfg.Caption.Models)
	}
	return batch.NewExporter(cfg.ExportOptions(), source.NewOpener(), captioner)
}

// runExport writes the batch to dest through writeAtomic.
func runExport(cmd *cobra.Command, exporter *batch.Exporter, b *batch.Batch, output string) (*models.Summary, error) {
	name := exporter.SuggestedFilename(b)
	if name == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No images selected, nothing to export")
		return exporter.Export(cmd.Context(), b, nil)
	}

	dest, err := outputPath(output, name)
	if err != nil {
		return nil, err
	}

	var summary *models.Summary
	err = writeAtomic(dest, func(w io.Writer) error {
		var err error
		summary, err = exporter.Export(cmd.Context(), b, w)
		return err
	})
	if err != nil {
		return summary, err
	}

	absPath, _ := filepath.Abs(dest)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d framed", absPath, summary.Succeeded)
	if summary.Failed > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d failed", summary.Failed)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ")")

	return summary, nil
}

// writeAtomic writes to dest+".part" and renames it into place only when write
// and close both succeed. The partial file is removed on failure.
func writeAtomic(dest string, write func(io.Writer) error) error {
	tmp := dest + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	err = write(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output file: %w", cerr)
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// outputPath resolves --output. An existing directory or a value ending in a
// path separator receives the suggested name.
func outputPath(output, suggested string) (string, error) {
	if output == "" {
		return suggested, nil
	}

	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(os.PathSeparator)) {
		if err := os.MkdirAll(output, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		return filepath.Join(output, suggested), nil
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, suggested), nil
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return output, nil
}
