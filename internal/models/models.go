package models

// BatchItem is one input image of a batch
type BatchItem struct {
	// Source is a local path or an http(s) URL
	Source      string `json:"source" yaml:"source" parquet:"source"`
	DisplayName string `json:"name,omitempty" yaml:"name,omitempty" parquet:"name,optional"`
	Caption     string `json:"caption,omitempty" yaml:"caption,omitempty" parquet:"caption,optional"`

	// Data holds in-memory bytes and takes precedence over Source
	Data []byte `json:"-" yaml:"-" parquet:"-"`
}

// ItemResult records what happened to one BatchItem during an export
type ItemResult struct {
	Index           int     `json:"index" yaml:"index" parquet:"index"`
	Name            string  `json:"name" yaml:"name" parquet:"name"`
	Source          string  `json:"source,omitempty" yaml:"source,omitempty" parquet:"source,optional"`
	Entry           string  `json:"entry,omitempty" yaml:"entry,omitempty" parquet:"entry,optional"`
	Mode            string  `json:"mode" yaml:"mode" parquet:"mode"`
	SourceWidth     int     `json:"source_width" yaml:"source_width" parquet:"source_width"`
	SourceHeight    int     `json:"source_height" yaml:"source_height" parquet:"source_height"`
	CanvasWidth     int     `json:"canvas_width" yaml:"canvas_width" parquet:"canvas_width"`
	CanvasHeight    int     `json:"canvas_height" yaml:"canvas_height" parquet:"canvas_height"`
	PlacementX      float64 `json:"placement_x" yaml:"placement_x" parquet:"placement_x"`
	PlacementY      float64 `json:"placement_y" yaml:"placement_y" parquet:"placement_y"`
	PlacementWidth  float64 `json:"placement_width" yaml:"placement_width" parquet:"placement_width"`
	PlacementHeight float64 `json:"placement_height" yaml:"placement_height" parquet:"placement_height"`
	Bytes           int     `json:"bytes" yaml:"bytes" parquet:"bytes"`
	Caption         string  `json:"caption,omitempty" yaml:"caption,omitempty" parquet:"caption,optional"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty" parquet:"error,optional"`
	DurationMS      int64   `json:"duration_ms" yaml:"duration_ms" parquet:"duration_ms"`
}

// Succeeded reports whether the item was exported
func (r ItemResult) Succeeded() bool {
	return r.Error == ""
}

// OutputKind describes what an export produced
type OutputKind string

const (
	OutputNone    OutputKind = "none"
	OutputSingle  OutputKind = "single"
	OutputArchive OutputKind = "archive"
)

// Summary represents the outcome of an export
type Summary struct {
	Kind      OutputKind   `json:"kind" yaml:"kind"`
	Filename  string       `json:"filename,omitempty" yaml:"filename,omitempty"`
	Mode      string       `json:"mode" yaml:"mode"`
	Format    string       `json:"format" yaml:"format"`
	Items     []ItemResult `json:"items" yaml:"items"`
	Succeeded int          `json:"succeeded" yaml:"succeeded"`
	Failed    int          `json:"failed" yaml:"failed"`
}

// Add appends r and updates the counters
func (s *Summary) Add(r ItemResult) {
	s.Items = append(s.Items, r)
	if r.Succeeded() {
		s.Succeeded++
	} else {
		s.Failed++
	}
}
