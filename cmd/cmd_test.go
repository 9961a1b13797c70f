package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framer/internal/render"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{A: 255})

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", name, err)
	}
	return path
}

func TestPlanCommand(t *testing.T) {
	out, err := run(t, "plan", "--width", "1000", "--height", "800", "--mode", "normal", "--border", "40", "--aspect", "4:3")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var got planOutput
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Failed to parse output %q: %v", out, err)
	}

	if got.Mode != "normal" || got.Basis != "image" {
		t.Errorf("Unexpected header: %+v", got)
	}
	if got.Layout.CanvasWidth != 1173 || got.Layout.CanvasHeight != 880 {
		t.Errorf("Expected 1173x880, got %dx%d", got.Layout.CanvasWidth, got.Layout.CanvasHeight)
	}
	if got.Layout.Placement.X != 86.5 || got.Layout.Placement.Y != 40 {
		t.Errorf("Expected placement at (86.5, 40), got %+v", got.Layout.Placement)
	}
}

func TestPlanCommandErrors(t *testing.T) {
	if _, err := run(t, "plan", "--width", "0", "--height", "10"); err == nil {
		t.Error("Expected an error for a zero width")
	}
	if _, err := run(t, "plan", "--width", "10", "--height", "10", "--mode", "sepia"); err == nil {
		t.Error("Expected an error for an unknown mode")
	}
}

func TestFrameSingle(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, "beach.png", 50, 40)
	outDir := filepath.Join(dir, "out") + string(os.PathSeparator)

	if _, err := run(t, "frame", src, "--border", "5", "--output", outDir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	dest := filepath.Join(dir, "out", "beach_polaroid.jpg")
	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("Expected %s to exist: %v", dest, err)
	}
	defer f.Close()

	img, err := render.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if dims := render.Dimensions(img); dims.Width != 60 || dims.Height != 60 {
		t.Errorf("Expected 60x60, got %dx%d", dims.Width, dims.Height)
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be gone")
	}
}

func TestFrameArchiveWithReport(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 30, 20)
	b := writePNG(t, dir, "b.png", 20, 30)
	broken := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(broken, []byte("nope"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	dest := filepath.Join(dir, "frames.zip")
	reportPath := filepath.Join(dir, "report.yaml")

	out, err := run(t, "frame", a, broken, b, "--mode", "normal", "--aspect", "1:1", "--format", "png", "-o", dest, "--report", reportPath)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "1 failed") {
		t.Errorf("Expected failure count in output, got %q", out)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 2 || zr.File[0].Name != "a_normal.png" || zr.File[1].Name != "b_normal.png" {
		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		t.Errorf("Unexpected entries: %v", names)
	}

	if _, err := os.Stat(reportPath); err != nil {
		t.Errorf("Expected report to be written: %v", err)
	}
}

func TestFrameFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(broken, []byte("nope"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	dest := filepath.Join(dir, "out.jpg")

	if _, err := run(t, "frame", broken, "-o", dest); err == nil {
		t.Fatal("Expected an error")
	}
	for _, p := range []string{dest, dest + ".part"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("Expected %s not to exist", p)
		}
	}
}

func TestFrameTooManyImages(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 4, 4)

	if _, err := run(t, "frame", a, a, a, "--max-items", "2", "-o", dir); err == nil {
		t.Error("Expected an error for too many images")
	}
}

func TestPreviewWraps(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", 10, 10)
	b := writePNG(t, dir, "b.png", 20, 10)
	dest := filepath.Join(dir, "preview.png")

	if _, err := run(t, "preview", a, b, "--index=-1", "--border", "2", "-o", dest); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	f, err := os.Open(dest)
	if err != nil {
		t.Fatalf("Expected preview file: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Failed to decode preview: %v", err)
	}
	if img.Bounds().Dx() != 24 || img.Bounds().Dy() != 18 {
		t.Errorf("Expected preview of b.png at 24x18, got %v", img.Bounds())
	}
}

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		output   string
		expected string
	}{
		{"default", "", "x_polaroid.jpg"},
		{"existing directory", dir, filepath.Join(dir, "x_polaroid.jpg")},
		{"file", filepath.Join(dir, "named.jpg"), filepath.Join(dir, "named.jpg")},
		{"new directory", filepath.Join(dir, "new") + string(os.PathSeparator), filepath.Join(dir, "new", "x_polaroid.jpg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := outputPath(tt.output, "x_polaroid.jpg")
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "preview.png")

	boom := errors.New("encode failed")
	err := writeAtomic(dest, func(w io.Writer) error {
		if _, err := w.Write([]byte("half")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected write error, got %v", err)
	}
	for _, p := range []string{dest, dest + ".part"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("Expected %s not to exist", p)
		}
	}

	err = writeAtomic(dest, func(w io.Writer) error {
		_, err := w.Write([]byte("done"))
		return err
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil || string(data) != "done" {
		t.Errorf("Expected dest to contain done, got %q (%v)", data, err)
	}
	if _, err := os.Stat(dest + ".part"); !os.IsNotExist(err) {
		t.Errorf("Expected temporary file to be gone")
	}
}
