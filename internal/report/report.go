package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framer/internal/models"
)

// RunConfig represents the configuration section of a report
type RunConfig struct {
	Mode      string `yaml:"mode" json:"mode"`
	Format    string `yaml:"format" json:"format"`
	Output    string `yaml:"output,omitempty" json:"output,omitempty"`
	Kind      string `yaml:"kind" json:"kind"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
}

// Report represents a complete export report
type Report struct {
	Config    RunConfig           `yaml:"config" json:"config"`
	Succeeded int                 `yaml:"succeeded" json:"succeeded"`
	Failed    int                 `yaml:"failed" json:"failed"`
	Results   []models.ItemResult `yaml:"results" json:"results"`
}

// New builds a report from an export summary
func New(s *models.Summary) Report {
	return Report{
		Config: RunConfig{
			Mode:      s.Mode,
			Format:    s.Format,
			Output:    s.Filename,
			Kind:      string(s.Kind),
			Timestamp: time.Now().Format("2006-01-02_15-04-05"),
		},
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Results:   s.Items,
	}
}

// Save writes the summary to path. The format follows the extension:
// .yaml/.yml, .json or .parquet (one row per item, no header).
func Save(path string, s *models.Summary) error {
	if s == nil {
		return fmt.Errorf("no summary to save")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		r := New(s)
		data, err := yaml.Marshal(&r)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return write(path, data)
	case ".json":
		r := New(s)
		data, err := json.MarshalIndent(&r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return write(path, append(data, '\n'))
	case ".parquet":
		if err := parquet.WriteFile(path, s.Items); err != nil {
			return fmt.Errorf("failed to write parquet report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s (supported: .yaml, .json, .parquet)", ext)
	}
}

func write(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
