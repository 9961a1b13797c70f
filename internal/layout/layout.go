package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidArgument is returned for non-positive dimensions, negative
// borders, non-positive aspect ratios and unknown mode tokens.
var ErrInvalidArgument = errors.New("invalid argument")

// Mode selects the frame layout.
type Mode int

const (
	ModeNormal Mode = iota
	ModePolaroid
)

// String returns the token used on the command line and in output filenames.
func (m Mode) String() string {
	switch m {
	case ModePolaroid:
		return "polaroid"
	default:
		return "normal"
	}
}

// ParseMode parses a mode token ("normal" or "polaroid").
func ParseMode(token string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "normal":
		return ModeNormal, nil
	case "polaroid":
		return ModePolaroid, nil
	default:
		return ModeNormal, fmt.Errorf("%w: unknown mode %q (expected normal or polaroid)", ErrInvalidArgument, token)
	}
}

// Basis selects which ratio Normal mode compares against the target aspect
// ratio when deciding which canvas axis to match.
type Basis int

const (
	// BasisImage compares the bare image ratio (w/h).
	BasisImage Basis = iota
	// BasisBordered compares the bordered ratio ((w+2B)/(h+2B)).
	BasisBordered
)

func (b Basis) String() string {
	if b == BasisBordered {
		return "bordered"
	}
	return "image"
}

// ParseBasis parses a basis token ("image" or "bordered").
func ParseBasis(token string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "image":
		return BasisImage, nil
	case "bordered":
		return BasisBordered, nil
	default:
		return BasisImage, fmt.Errorf("%w: unknown ratio basis %q (expected image or bordered)", ErrInvalidArgument, token)
	}
}

// DefaultAspectRatio is used for unrecognized aspect tokens.
const DefaultAspectRatio = 4.0 / 3.0

var aspectRatios = map[string]float64{
	"4:3": 4.0 / 3.0,
	"3:2": 3.0 / 2.0,
	"4:5": 4.0 / 5.0,
	"1:1": 1,
	"3:4": 3.0 / 4.0,
	// compact form values
	"43": 4.0 / 3.0,
	"32": 3.0 / 2.0,
	"45": 4.0 / 5.0,
	"11": 1,
	"34": 3.0 / 4.0,
}

// ParseAspectRatio maps an aspect token to a width/height ratio. Unknown
// tokens fall back to DefaultAspectRatio rather than failing.
func ParseAspectRatio(token string) float64 {
	if r, ok := aspectRatios[strings.TrimSpace(token)]; ok {
		return r
	}
	return DefaultAspectRatio
}

// ImageDimensions are the pixel dimensions of a decoded source image.
type ImageDimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// FrameConfig holds the frame parameters for a single plan call.
type FrameConfig struct {
	Mode   Mode
	Border int
	// Aspect is the target width/height ratio, used only in Normal mode.
	Aspect float64
	Basis  Basis
}

// Rect is the placement of the image on the canvas, in canvas pixels.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Result is the output of Plan.
type Result struct {
	CanvasWidth  int  `json:"canvas_width" yaml:"canvas_width"`
	CanvasHeight int  `json:"canvas_height" yaml:"canvas_height"`
	Placement    Rect `json:"placement" yaml:"placement"`
}

// Plan computes the canvas size and image placement for dims under cfg.
func Plan(dims ImageDimensions, cfg FrameConfig) (Result, error) {
	if dims.Width <= 0 || dims.Height <= 0 {
		return Result{}, fmt.Errorf("%w: image dimensions must be positive, got %dx%d", ErrInvalidArgument, dims.Width, dims.Height)
	}
	if cfg.Border < 0 {
		return Result{}, fmt.Errorf("%w: border thickness must not be negative, got %d", ErrInvalidArgument, cfg.Border)
	}

	switch cfg.Mode {
	case ModePolaroid:
		return planPolaroid(dims, cfg.Border), nil
	case ModeNormal:
		if cfg.Aspect <= 0 || math.IsNaN(cfg.Aspect) || math.IsInf(cfg.Aspect, 0) {
			return Result{}, fmt.Errorf("%w: aspect ratio must be positive, got %v", ErrInvalidArgument, cfg.Aspect)
		}
		if res, ok := planNormal(dims, cfg.Border, cfg.Aspect, cfg.Basis); ok {
			return res, nil
		}
		// the image ratio left no interior on one axis
		res, _ := planNormal(dims, cfg.Border, cfg.Aspect, BasisBordered)
		return res, nil
	default:
		return Result{}, fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, cfg.Mode)
	}
}

// planPolaroid adds a B margin on top and sides and a 3B caption strip at
// the bottom. The image is never scaled.
func planPolaroid(dims ImageDimensions, border int) Result {
	return Result{
		CanvasWidth:  dims.Width + 2*border,
		CanvasHeight: dims.Height + border + 3*border,
		Placement: Rect{
			X:      float64(border),
			Y:      float64(border),
			Width:  float64(dims.Width),
			Height: float64(dims.Height),
		},
	}
}

// planNormal reports false when the border leaves a non-positive interior.
func planNormal(dims ImageDimensions, border int, target float64, basis Basis) (Result, bool) {
	imgW := float64(dims.Width)
	imgH := float64(dims.Height)
	b := float64(border)

	fullW := imgW + 2*b
	fullH := imgH + 2*b

	ratio := imgW / imgH
	if basis == BasisBordered {
		ratio = fullW / fullH
	}

	var canvasW, canvasH float64
	if ratio > target {
		canvasW = fullW
		canvasH = canvasW / target
	} else {
		canvasH = fullH
		canvasW = canvasH * target
	}

	w := roundDim(canvasW)
	h := roundDim(canvasH)

	availW := float64(w) - 2*b
	availH := float64(h) - 2*b
	if availW <= 0 || availH <= 0 {
		return Result{}, false
	}

	scale := math.Min(availW/imgW, availH/imgH)
	drawW := imgW * scale
	drawH := imgH * scale

	return Result{
		CanvasWidth:  w,
		CanvasHeight: h,
		Placement: Rect{
			X:      (float64(w) - drawW) / 2,
			Y:      (float64(h) - drawH) / 2,
			Width:  drawW,
			Height: drawH,
		},
	}, true
}

func roundDim(v float64) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	return n
}
