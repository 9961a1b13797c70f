package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/framer/internal/layout"
)

var (
	// ErrDecode wraps failures to decode a source image.
	ErrDecode = errors.New("decode failed")
	// ErrEncode wraps failures to encode a rendered surface.
	ErrEncode = errors.New("encode failed")
)

// Format is an output encoding.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
)

// Extension returns the filename extension without the dot.
func (f Format) Extension() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpg"
}

// MIMEType returns the content type of the encoded output.
func (f Format) MIMEType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

func (f Format) String() string {
	return f.Extension()
}

// ParseFormat parses an output format token.
func ParseFormat(token string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "jpg", "jpeg", "":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return FormatJPEG, fmt.Errorf("unsupported output format: %s (supported: jpg, png)", token)
	}
}

// Decode decodes a raster image, applying EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	return img, nil
}

// Dimensions returns the layout dimensions of img.
func Dimensions(img image.Image) layout.ImageDimensions {
	b := img.Bounds()
	return layout.ImageDimensions{Width: b.Dx(), Height: b.Dy()}
}

// Render paints bg over the whole canvas and composites img into the
// placement rectangle. The returned surface is always exactly
// CanvasWidth x CanvasHeight.
func Render(img image.Image, l layout.Result, bg color.Color) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", layout.ErrInvalidArgument)
	}
	if l.CanvasWidth <= 0 || l.CanvasHeight <= 0 {
		return nil, fmt.Errorf("%w: canvas must be positive, got %dx%d", layout.ErrInvalidArgument, l.CanvasWidth, l.CanvasHeight)
	}

	canvas := image.Rect(0, 0, l.CanvasWidth, l.CanvasHeight)
	out := image.NewNRGBA(canvas)
	draw.Draw(out, canvas, &image.Uniform{C: bg}, image.Point{}, draw.Src)

	dst := PlacementBounds(l)
	if dst.Empty() {
		return out, nil
	}

	src := img.Bounds()
	if dst.Dx() == src.Dx() && dst.Dy() == src.Dy() {
		draw.Draw(out, dst, img, src.Min, draw.Over)
		return out, nil
	}

	xdraw.CatmullRom.Scale(out, dst, img, src, xdraw.Over, nil)
	return out, nil
}

// PlacementBounds snaps the placement rectangle to whole pixels, clipped to
// the canvas.
func PlacementBounds(l layout.Result) image.Rectangle {
	p := l.Placement
	r := image.Rect(
		int(math.Round(p.X)),
		int(math.Round(p.Y)),
		int(math.Round(p.X+p.Width)),
		int(math.Round(p.Y+p.Height)),
	)
	return r.Intersect(image.Rect(0, 0, l.CanvasWidth, l.CanvasHeight))
}

// Encode writes img to w. Quality applies to JPEG only and is clamped to
// 1..100. JPEG has no alpha channel, so translucent pixels are composited
// onto white first.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	var err error
	switch f {
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG)
	default:
		if quality < 1 {
			quality = 1
		}
		if quality > 100 {
			quality = 100
		}
		err = imaging.Encode(w, flatten(img), imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, image.NewUniform(White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
