package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/framer/internal/models"
)

// MaxDownloadBytes caps remote images at 10MB
const MaxDownloadBytes = 10 * 1024 * 1024

// Opener opens image sources from local paths or http(s) URLs
type Opener struct {
	HTTPClient *http.Client
}

// NewOpener creates a new Opener
func NewOpener() *Opener {
	return &Opener{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsURL reports whether ref is an http(s) URL
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// Open returns a reader for ref. The caller must close it.
func (o *Opener) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty image source")
	}
	if !IsURL(ref) {
		f, err := os.Open(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to open image: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	return &limitedBody{Reader: io.LimitReader(resp.Body, MaxDownloadBytes+1), body: resp.Body}, nil
}

// ReadItem returns the encoded bytes of item, preferring in-memory data.
// The underlying handle is released before ReadItem returns.
func (o *Opener) ReadItem(ctx context.Context, item models.BatchItem) ([]byte, error) {
	if item.Data != nil {
		return item.Data, nil
	}

	rc, err := o.Open(ctx, item.Source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if IsURL(item.Source) && buf.Len() > MaxDownloadBytes {
		return nil, fmt.Errorf("image too large (max %d bytes)", MaxDownloadBytes)
	}
	return buf.Bytes(), nil
}

// DisplayName derives a display name from a path or URL
func DisplayName(ref string) string {
	if !IsURL(ref) {
		return filepath.Base(ref)
	}

	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	parts := strings.Split(ref, "/")
	filename := parts[len(parts)-1]
	if filename == "" {
		filename = "image.jpg"
	}
	return filename
}

type limitedBody struct {
	io.Reader
	body io.Closer
}

func (l *limitedBody) Close() error {
	return l.body.Close()
}
