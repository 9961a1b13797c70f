package batch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/lehigh-university-libraries/framer/internal/caption"
	"github.com/lehigh-university-libraries/framer/internal/layout"
	"github.com/lehigh-university-libraries/framer/internal/models"
	"github.com/lehigh-university-libraries/framer/internal/render"
	"github.com/lehigh-university-libraries/framer/internal/source"
)

// Captioner generates caption text for an encoded image.
type Captioner interface {
	Caption(ctx context.Context, image []byte, mimeType, provider, model string) (string, error)
}

// Options is the frame configuration for one export. It is captured when the
// Exporter is built and never changes during a run.
type Options struct {
	Frame        layout.FrameConfig
	Background   color.NRGBA
	CaptionColor color.NRGBA
	Format       render.Format
	Quality      int
	ArchiveName  string

	// Caption is used for polaroid items that carry no caption of their own.
	Caption         string
	CaptionProvider string
	CaptionModel    string
}

// Exporter runs the decode -> plan -> render -> encode pipeline.
type Exporter struct {
	opts      Options
	opener    *source.Opener
	captioner Captioner
}

// NewExporter creates an Exporter. captioner may be nil when no caption
// provider is configured.
func NewExporter(opts Options, opener *source.Opener, captioner Captioner) *Exporter {
	if opts.ArchiveName == "" {
		opts.ArchiveName = DefaultArchiveName
	}
	if opts.Quality == 0 {
		opts.Quality = 100
	}
	if opener == nil {
		opener = source.NewOpener()
	}
	return &Exporter{opts: opts, opener: opener, captioner: captioner}
}

// SuggestedFilename returns the output name for b: the single entry name for
// one item, the archive name for several, "" for none.
func (e *Exporter) SuggestedFilename(b *Batch) string {
	switch b.Len() {
	case 0:
		return ""
	case 1:
		return EntryName(b.items[0].DisplayName, e.opts.Frame.Mode, e.opts.Format)
	default:
		return e.opts.ArchiveName
	}
}

// Export writes b to w. An empty batch writes nothing. A single item is
// written as one encoded image and any failure is returned. Several items
// are written as a zip archive; items that fail are recorded in the summary
// and skipped.
func (e *Exporter) Export(ctx context.Context, b *Batch, w io.Writer) (*models.Summary, error) {
	summary := &models.Summary{
		Kind:   models.OutputNone,
		Mode:   e.opts.Frame.Mode.String(),
		Format: e.opts.Format.Extension(),
	}

	switch b.Len() {
	case 0:
		slog.Info("No images selected, nothing to export")
		return summary, nil
	case 1:
		return e.exportSingle(ctx, b.items[0], w, summary)
	default:
		return e.exportArchive(ctx, b.items, w, summary)
	}
}

func (e *Exporter) exportSingle(ctx context.Context, item models.BatchItem, w io.Writer, summary *models.Summary) (*models.Summary, error) {
	encoded, result, err := e.encodeItem(ctx, 0, item)
	if err != nil {
		summary.Add(result)
		return summary, err
	}

	if _, err := w.Write(encoded); err != nil {
		return summary, fmt.Errorf("failed to write image: %w", err)
	}

	summary.Kind = models.OutputSingle
	summary.Filename = result.Entry
	summary.Add(result)
	slog.Info("Exported image", "name", result.Entry, "width", result.CanvasWidth, "height", result.CanvasHeight, "bytes", result.Bytes)
	return summary, nil
}

func (e *Exporter) exportArchive(ctx context.Context, items []models.BatchItem, w io.Writer, summary *models.Summary) (*models.Summary, error) {
	zw := zip.NewWriter(w)
	names := newNameResolver()

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("export cancelled after %d of %d images: %w", i, len(items), err)
		}

		slog.Info("Processing image", "index", i+1, "total", len(items), "name", item.DisplayName)

		encoded, result, err := e.encodeItem(ctx, i, item)
		if err != nil {
			slog.Warn("Failed to frame image", "name", item.DisplayName, "error", err)
			summary.Add(result)
			continue
		}

		result.Entry = names.Resolve(result.Entry)
		fw, err := zw.Create(result.Entry)
		if err != nil {
			return summary, fmt.Errorf("failed to add %s to archive: %w", result.Entry, err)
		}
		if _, err := fw.Write(encoded); err != nil {
			return summary, fmt.Errorf("failed to write %s to archive: %w", result.Entry, err)
		}
		summary.Add(result)
	}

	if summary.Succeeded == 0 {
		return summary, fmt.Errorf("%w: all %d images failed", ErrNothingExported, len(items))
	}

	if err := zw.Close(); err != nil {
		return summary, fmt.Errorf("failed to finalize archive: %w", err)
	}

	summary.Kind = models.OutputArchive
	summary.Filename = e.opts.ArchiveName
	slog.Info("Exported archive", "name", summary.Filename, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

// encodeItem frames one item and encodes it. The returned result is filled in
// as far as the pipeline got, with Error set on failure.
func (e *Exporter) encodeItem(ctx context.Context, index int, item models.BatchItem) ([]byte, models.ItemResult, error) {
	start := time.Now()

	surface, result, err := e.frame(ctx, index, item)
	if err != nil {
		result.Error = err.Error()
		result.DurationMS = time.Since(start).Milliseconds()
		return nil, result, err
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, surface, e.opts.Format, e.opts.Quality); err != nil {
		result.Error = err.Error()
		result.DurationMS = time.Since(start).Milliseconds()
		return nil, result, err
	}

	result.Bytes = buf.Len()
	result.DurationMS = time.Since(start).Milliseconds()
	return buf.Bytes(), result, nil
}

// RenderItem frames one item without encoding it, for previews.
func (e *Exporter) RenderItem(ctx context.Context, index int, item models.BatchItem) (*image.NRGBA, models.ItemResult, error) {
	surface, result, err := e.frame(ctx, index, item)
	if err != nil {
		result.Error = err.Error()
	}
	return surface, result, err
}

func (e *Exporter) frame(ctx context.Context, index int, item models.BatchItem) (*image.NRGBA, models.ItemResult, error) {
	result := models.ItemResult{
		Index:  index,
		Name:   item.DisplayName,
		Source: item.Source,
		Entry:  EntryName(item.DisplayName, e.opts.Frame.Mode, e.opts.Format),
		Mode:   e.opts.Frame.Mode.String(),
	}

	img, data, err := e.decode(ctx, item)
	if err != nil {
		return nil, result, err
	}

	dims := render.Dimensions(img)
	result.SourceWidth = dims.Width
	result.SourceHeight = dims.Height

	l, err := layout.Plan(dims, e.opts.Frame)
	if err != nil {
		return nil, result, fmt.Errorf("failed to plan layout: %w", err)
	}
	result.CanvasWidth = l.CanvasWidth
	result.CanvasHeight = l.CanvasHeight
	result.PlacementX = l.Placement.X
	result.PlacementY = l.Placement.Y
	result.PlacementWidth = l.Placement.Width
	result.PlacementHeight = l.Placement.Height

	surface, err := render.Render(img, l, e.opts.Background)
	if err != nil {
		return nil, result, fmt.Errorf("failed to render: %w", err)
	}

	if e.opts.Frame.Mode == layout.ModePolaroid {
		text := e.captionFor(ctx, item, data)
		if text != "" {
			if err := caption.Draw(surface, l, e.opts.Frame.Border, text, e.opts.CaptionColor); err != nil {
				slog.Warn("Failed to draw caption", "name", item.DisplayName, "error", err)
			} else {
				result.Caption = text
			}
		}
	}

	slog.Debug("Framed image",
		"name", item.DisplayName,
		"source", fmt.Sprintf("%dx%d", dims.Width, dims.Height),
		"canvas", fmt.Sprintf("%dx%d", l.CanvasWidth, l.CanvasHeight),
		"mode", result.Mode)

	return surface, result, nil
}

// decode reads and decodes one item. The source handle is closed inside
// ReadItem before decoding starts; the raw bytes are returned only so a
// caption provider can see them.
func (e *Exporter) decode(ctx context.Context, item models.BatchItem) (image.Image, []byte, error) {
	data, err := e.opener.ReadItem(ctx, item)
	if err != nil {
		return nil, nil, err
	}

	img, err := render.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", item.DisplayName, err)
	}
	return img, data, nil
}

// captionFor picks the item caption, then the export-wide caption, then a
// generated one. Generation failures only drop the caption.
func (e *Exporter) captionFor(ctx context.Context, item models.BatchItem, data []byte) string {
	if item.Caption != "" {
		return item.Caption
	}
	if e.opts.Caption != "" {
		return e.opts.Caption
	}
	if e.captioner == nil || e.opts.CaptionProvider == "" {
		return ""
	}

	text, err := e.captioner.Caption(ctx, data, http.DetectContentType(data), e.opts.CaptionProvider, e.opts.CaptionModel)
	if err != nil {
		slog.Warn("Failed to generate caption", "name", item.DisplayName, "provider", e.opts.CaptionProvider, "error", err)
		return ""
	}
	return text
}
