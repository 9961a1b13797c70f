package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/framer/internal/layout"
)

var red = color.NRGBA{R: 200, G: 10, B: 10, A: 255}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderPolaroid(t *testing.T) {
	src := solid(50, 30, red)
	l, err := layout.Plan(Dimensions(src), layout.FrameConfig{Mode: layout.ModePolaroid, Border: 5})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	out, err := Render(src, l, White)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if out.Bounds().Dx() != 60 || out.Bounds().Dy() != 50 {
		t.Fatalf("Expected 60x50 surface, got %v", out.Bounds())
	}

	inside := image.Rect(5, 5, 55, 35)
	for y := 0; y < 50; y++ {
		for x := 0; x < 60; x++ {
			got := out.NRGBAAt(x, y)
			p := image.Pt(x, y)
			if p.In(inside) {
				if got != red {
					t.Fatalf("Expected image pixel at %v, got %v", p, got)
				}
			} else if got != White {
				t.Fatalf("Expected background at %v, got %v", p, got)
			}
		}
	}
}

func TestRenderNormalScaled(t *testing.T) {
	src := solid(40, 20, red)
	l := layout.Result{
		CanvasWidth:  100,
		CanvasHeight: 100,
		Placement:    layout.Rect{X: 10, Y: 30, Width: 80, Height: 40},
	}
	bg := color.NRGBA{R: 1, G: 2, B: 3, A: 255}

	out, err := Render(src, l, bg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if out.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("Expected 100x100 surface, got %v", out.Bounds())
	}

	placed := PlacementBounds(l)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if image.Pt(x, y).In(placed) {
				continue
			}
			if got := out.NRGBAAt(x, y); got != bg {
				t.Fatalf("Expected background at (%d,%d), got %v", x, y, got)
			}
		}
	}

	if got := out.NRGBAAt(50, 50); !near(got, red, 2) {
		t.Errorf("Expected scaled image at center, got %v", got)
	}
}

func TestRenderInvalid(t *testing.T) {
	if _, err := Render(nil, layout.Result{CanvasWidth: 1, CanvasHeight: 1}, White); !errors.Is(err, layout.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for nil image, got %v", err)
	}
	if _, err := Render(solid(1, 1, red), layout.Result{}, White); !errors.Is(err, layout.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty canvas, got %v", err)
	}
}

func TestPlacementBounds(t *testing.T) {
	l := layout.Result{
		CanvasWidth:  1173,
		CanvasHeight: 880,
		Placement:    layout.Rect{X: 86.5, Y: 40, Width: 1000, Height: 800},
	}
	got := PlacementBounds(l)
	if got.Dx() != 1000 || got.Dy() != 800 {
		t.Errorf("Expected 1000x800 bounds, got %v", got)
	}
	if !got.In(image.Rect(0, 0, 1173, 880)) {
		t.Errorf("Expected bounds inside canvas, got %v", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := solid(64, 48, red)

	for _, cfg := range []layout.FrameConfig{
		{Mode: layout.ModePolaroid, Border: 8},
		{Mode: layout.ModeNormal, Border: 8, Aspect: layout.ParseAspectRatio("4:5")},
		{Mode: layout.ModeNormal, Border: 0, Aspect: layout.ParseAspectRatio("3:2")},
	} {
		for _, format := range []Format{FormatJPEG, FormatPNG} {
			l, err := layout.Plan(Dimensions(src), cfg)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			out, err := Render(src, l, White)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			var buf bytes.Buffer
			if err := Encode(&buf, out, format, 100); err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			decoded, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			dims := Dimensions(decoded)
			if dims.Width != l.CanvasWidth || dims.Height != l.CanvasHeight {
				t.Errorf("%v/%s: expected %dx%d, got %dx%d", cfg.Mode, format, l.CanvasWidth, l.CanvasHeight, dims.Width, dims.Height)
			}
		}
	}
}

func TestEncodeJPEGFlattensTransparency(t *testing.T) {
	src := solid(20, 20, red)
	l, err := layout.Plan(Dimensions(src), layout.FrameConfig{Mode: layout.ModePolaroid, Border: 6})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out, err := Render(src, l, ParseColor("transparent", White))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, out, FormatJPEG, 100); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	frame := color.NRGBAModel.Convert(decoded.At(2, 2)).(color.NRGBA)
	if !near(frame, White, 3) {
		t.Errorf("Expected transparent frame to encode as white, got %v", frame)
	}
	inside := color.NRGBAModel.Convert(decoded.At(16, 16)).(color.NRGBA)
	if !near(inside, red, 8) {
		t.Errorf("Expected image pixel to survive, got %v", inside)
	}
}

func TestEncodePNGKeepsTransparency(t *testing.T) {
	out := solid(4, 4, color.NRGBA{})

	var buf bytes.Buffer
	if err := Encode(&buf, out, FormatPNG, 0); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, _, _, a := decoded.At(1, 1).RGBA(); a != 0 {
		t.Errorf("Expected alpha 0, got %d", a)
	}
}

func TestDecodeFailure(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		token    string
		expected Format
		wantErr  bool
	}{
		{"jpg", FormatJPEG, false},
		{"JPEG", FormatJPEG, false},
		{"", FormatJPEG, false},
		{"png", FormatPNG, false},
		{"gif", FormatJPEG, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			f, err := ParseFormat(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if f != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, f)
			}
		})
	}

	if FormatPNG.Extension() != "png" || FormatJPEG.Extension() != "jpg" {
		t.Errorf("Unexpected extensions")
	}
}

func TestParseColor(t *testing.T) {
	fallback := color.NRGBA{R: 9, G: 9, B: 9, A: 255}
	tests := []struct {
		param    string
		expected color.NRGBA
	}{
		{"", fallback},
		{"white", White},
		{"BLACK", color.NRGBA{A: 255}},
		{"#ff0000", color.NRGBA{R: 255, A: 255}},
		{"00ff00", color.NRGBA{G: 255, A: 255}},
		{"#abc", color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}},
		{"#11223380", color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x80}},
		{"#12345", fallback},
		{"#zzzzzz", fallback},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			if got := ParseColor(tt.param, fallback); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestValidColor(t *testing.T) {
	for _, param := range []string{"white", "#fff", "#ffffff", "#ffffff80", "Transparent"} {
		if !ValidColor(param) {
			t.Errorf("Expected %q to be valid", param)
		}
	}
	for _, param := range []string{"", "#ff", "mauve", "#gggggg"} {
		if ValidColor(param) {
			t.Errorf("Expected %q to be invalid", param)
		}
	}
}

func TestFormatColor(t *testing.T) {
	if got := FormatColor(White); got != "#ffffff" {
		t.Errorf("Expected #ffffff, got %s", got)
	}
	if got := FormatColor(color.NRGBA{R: 1, G: 2, B: 3, A: 4}); got != "#01020304" {
		t.Errorf("Expected #01020304, got %s", got)
	}
}

func near(a, b color.NRGBA, tol int) bool {
	d := func(x, y uint8) bool {
		v := int(x) - int(y)
		return v <= tol && v >= -tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}
