package caption

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lehigh-university-libraries/framer/internal/layout"
)

const (
	// sizeRatio is the font size relative to the border thickness.
	sizeRatio = 0.8
	minSize   = 6.0
	ellipsis  = "..."
)

var (
	parseOnce  sync.Once
	parsedFont *opentype.Font
	parseErr   error
)

func regular() (*opentype.Font, error) {
	parseOnce.Do(func() {
		parsedFont, parseErr = opentype.Parse(goregular.TTF)
	})
	return parsedFont, parseErr
}

// Area returns the polaroid caption strip: the bottom 3*border rows of the
// canvas, inset by border on the left and right.
func Area(l layout.Result, border int) image.Rectangle {
	return image.Rect(border, l.CanvasHeight-3*border, l.CanvasWidth-border, l.CanvasHeight).
		Intersect(image.Rect(0, 0, l.CanvasWidth, l.CanvasHeight))
}

// Draw writes text centered in the caption strip of a polaroid surface.
// Pixels outside the strip are never modified.
func Draw(dst *image.NRGBA, l layout.Result, border int, text string, c color.Color) error {
	text = strings.TrimSpace(text)
	if text == "" || border <= 0 {
		return nil
	}

	area := Area(l, border)
	if area.Empty() {
		return nil
	}

	f, err := regular()
	if err != nil {
		return fmt.Errorf("failed to parse caption font: %w", err)
	}

	face, text, err := fit(f, text, float64(border)*sizeRatio, area.Dx())
	if err != nil {
		return err
	}
	defer face.Close()

	strip, ok := dst.SubImage(area).(*image.NRGBA)
	if !ok {
		return fmt.Errorf("unexpected sub-image type %T", dst.SubImage(area))
	}

	m := face.Metrics()
	width := font.MeasureString(face, text)
	x := fixed.I(area.Min.X) + (fixed.I(area.Dx())-width)/2
	y := fixed.I(area.Min.Y) + (fixed.I(area.Dy())+m.Ascent-m.Descent)/2

	d := &font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: y},
	}
	d.DrawString(text)
	return nil
}

// fit shrinks the font until text fits maxWidth, then truncates.
func fit(f *opentype.Font, text string, size float64, maxWidth int) (font.Face, string, error) {
	if size < minSize {
		size = minSize
	}
	limit := fixed.I(maxWidth)

	for {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to create caption face: %w", err)
		}

		if font.MeasureString(face, text) <= limit {
			return face, text, nil
		}
		if size > minSize {
			face.Close()
			size *= 0.9
			if size < minSize {
				size = minSize
			}
			continue
		}

		return face, truncate(face, text, limit), nil
	}
}

func truncate(face font.Face, text string, limit fixed.Int26_6) string {
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := strings.TrimSpace(string(runes)) + ellipsis
		if font.MeasureString(face, candidate) <= limit {
			return candidate
		}
	}
	return ""
}
