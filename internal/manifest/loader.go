package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framer/internal/models"
	"github.com/lehigh-university-libraries/framer/internal/source"
)

// Loader reads batch items from a manifest file
type Loader struct {
	manifestPath string
}

// NewLoader creates a new manifest loader
func NewLoader(manifestPath string) *Loader {
	return &Loader{
		manifestPath: manifestPath,
	}
}

// Load loads items from a manifest file (JSONL, JSON, YAML or Parquet).
// Relative local sources are resolved against the manifest's directory.
func (l *Loader) Load() ([]models.BatchItem, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	var (
		items []models.BatchItem
		err   error
	)
	switch ext {
	case ".parquet":
		items, err = l.loadParquet()
	case ".jsonl", ".json":
		items, err = l.loadJSON()
	case ".yaml", ".yml":
		items, err = l.loadYAML()
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .jsonl, .json, .yaml, .parquet)", ext)
	}
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(l.manifestPath)
	for i := range items {
		if strings.TrimSpace(items[i].Source) == "" {
			return nil, fmt.Errorf("missing source in manifest entry %d", i+1)
		}
		items[i] = l.resolve(dir, items[i])
	}

	slog.Debug("Loaded manifest", "path", l.manifestPath, "items", len(items))
	return items, nil
}

func (l *Loader) resolve(dir string, item models.BatchItem) models.BatchItem {
	item.Source = strings.TrimSpace(item.Source)
	if !source.IsURL(item.Source) && !filepath.IsAbs(item.Source) {
		item.Source = filepath.Join(dir, item.Source)
	}
	if item.DisplayName == "" {
		item.DisplayName = source.DisplayName(item.Source)
	}
	return item
}

// loadJSON accepts either a JSON array or one object per line
func (l *Loader) loadJSON() ([]models.BatchItem, error) {
	data, err := os.ReadFile(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []models.BatchItem
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse JSON manifest: %w", err)
		}
		return items, nil
	}

	var items []models.BatchItem
	scanner := bufio.NewScanner(bytes.NewReader(data))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())

		if len(line) == 0 {
			continue
		}

		var item models.BatchItem
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if item.Source == "" {
			return nil, fmt.Errorf("missing source at line %d", lineNum)
		}

		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	return items, nil
}

func (l *Loader) loadYAML() ([]models.BatchItem, error) {
	data, err := os.ReadFile(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest file: %w", err)
	}

	var items []models.BatchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse YAML manifest: %w", err)
	}
	return items, nil
}

func (l *Loader) loadParquet() ([]models.BatchItem, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[models.BatchItem](pf)
	defer reader.Close()

	var items []models.BatchItem
	rows := make([]models.BatchItem, 64)
	for {
		n, err := reader.Read(rows)
		items = append(items, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return items, nil
}
