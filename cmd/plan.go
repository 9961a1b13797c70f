package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framer/internal/layout"
)

type planOutput struct {
	Mode   string        `yaml:"mode"`
	Border int           `yaml:"border"`
	Aspect float64       `yaml:"aspect,omitempty"`
	Basis  string        `yaml:"basis,omitempty"`
	Layout layout.Result `yaml:"layout"`
}

func newPlanCmd(g *globalOptions) *cobra.Command {
	var flags frameFlags
	var width, height int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the frame layout for given image dimensions",
		Long: `Compute the canvas size and image placement for an image of --width x --height
pixels without reading any image. The result is printed as YAML.`,
		Example: `  framer plan --width 1000 --height 800 --mode normal --border 40 --aspect 4:3
  framer plan --width 500 --height 500 --mode polaroid --border 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g, &flags)
			if err != nil {
				return err
			}

			fc := cfg.FrameConfig()
			result, err := layout.Plan(layout.ImageDimensions{Width: width, Height: height}, fc)
			if err != nil {
				return err
			}

			out := planOutput{
				Mode:   fc.Mode.String(),
				Border: fc.Border,
				Layout: result,
			}
			if fc.Mode == layout.ModeNormal {
				out.Aspect = fc.Aspect
				out.Basis = fc.Basis.String()
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(&out); err != nil {
				return fmt.Errorf("failed to marshal YAML: %w", err)
			}
			return enc.Close()
		},
	}

	addFrameFlags(cmd, &flags)
	cmd.Flags().IntVar(&width, "width", 0, "Image width in pixels (required)")
	cmd.Flags().IntVar(&height, "height", 0, "Image height in pixels (required)")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}
