package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/framer/internal/batch"
	"github.com/lehigh-university-libraries/framer/internal/render"
)

func newPreviewCmd(g *globalOptions) *cobra.Command {
	var flags frameFlags
	var manifestPath string
	var index int
	var output string

	cmd := &cobra.Command{
		Use:   "preview [images...]",
		Short: "Render one framed image of a batch to a PNG",
		Long: `Render the image at --index with the current frame settings and write it as PNG.

The index wraps around the batch in both directions, so -1 is the last image.`,
		Example: `  # Preview the second image of a batch
  framer preview a.jpg b.jpg c.jpg --index 1 --mode normal --aspect 3:2

  # Preview the last image listed in a manifest
  framer preview --manifest batch.yaml --index -1 -o last.png`,
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

			item, ok := b.Seek(index)
			if !ok {
				return fmt.Errorf("no images selected")
			}

			surface, result, err := newExporter(cfg).RenderItem(cmd.Context(), b.Index(), item)
			if err != nil {
				return err
			}

			err = writeAtomic(output, func(w io.Writer) error {
				return render.Encode(w, surface, render.FormatPNG, 0)
			})
			if err != nil {
				return fmt.Errorf("failed to write preview: %w", err)
			}

			slog.Info("Preview rendered",
				"image", fmt.Sprintf("%d/%d", b.Index()+1, b.Len()),
				"name", item.DisplayName,
				"canvas", fmt.Sprintf("%dx%d", result.CanvasWidth, result.CanvasHeight))

			absPath, _ := filepath.Abs(output)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved preview of %s to %s\n", item.DisplayName, absPath)
			return nil
		},
	}

	addFrameFlags(cmd, &flags)
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Manifest of images (.jsonl, .json, .yaml or .parquet)")
	cmd.Flags().IntVar(&index, "index", 0, "Image to preview (wraps around)")
	cmd.Flags().StringVarP(&output, "output", "o", "preview.png", "Preview file")

	return cmd
}
