// Package config resolves framer settings from defaults, an optional YAML
// file and FRAMER_* environment variables. Command line flags are applied on
// top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/framer/internal/batch"
	"github.com/lehigh-university-libraries/framer/internal/layout"
	"github.com/lehigh-university-libraries/framer/internal/render"
)

// DefaultPath is read when no --config flag is given and the file exists.
const DefaultPath = "framer.yaml"

var captionGray = color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the frame and export settings
type Config struct {
	Mode       string `yaml:"mode"`
	Border     int    `yaml:"border"`
	Aspect     string `yaml:"aspect"`
	Basis      string `yaml:"basis"`
	Background string `yaml:"background"`
	Format     string `yaml:"format"`
	Quality    int    `yaml:"quality"`
	MaxItems   int    `yaml:"max_items"`
	Archive    string `yaml:"archive_name"`

	Caption Caption `yaml:"caption"`
}

// Caption configures polaroid captions
type Caption struct {
	Text     string `yaml:"text"`
	Color    string `yaml:"color"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Prompt   string `yaml:"prompt"`

	// Models sets the default model per provider, e.g. gemini: gemini-2.5-flash.
	// GEMINI_MODEL, OPENAI_MODEL and OLLAMA_MODEL take precedence.
	Models map[string]string `yaml:"models"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Mode:       "polaroid",
		Border:     40,
		Aspect:     "4:3",
		Basis:      "image",
		Background: "#ffffff",
		Format:     "jpg",
		Quality:    100,
		MaxItems:   batch.DefaultMaxItems,
		Archive:    batch.DefaultArchiveName,
		Caption: Caption{
			Color: "#333333",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path and then the
// environment. A missing file is an error only when explicit is true.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"FRAMER_MODE":             &c.Mode,
		"FRAMER_ASPECT":           &c.Aspect,
		"FRAMER_BASIS":            &c.Basis,
		"FRAMER_BACKGROUND":       &c.Background,
		"FRAMER_FORMAT":           &c.Format,
		"FRAMER_ARCHIVE_NAME":     &c.Archive,
		"FRAMER_CAPTION":          &c.Caption.Text,
		"FRAMER_CAPTION_COLOR":    &c.Caption.Color,
		"FRAMER_CAPTION_PROVIDER": &c.Caption.Provider,
		"FRAMER_CAPTION_MODEL":    &c.Caption.Model,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"FRAMER_BORDER":    &c.Border,
		"FRAMER_QUALITY":   &c.Quality,
		"FRAMER_MAX_ITEMS": &c.MaxItems,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
		}
		*dst = n
	}
	return nil
}

// Validate checks every setting
func (c Config) Validate() error {
	var errs []error

	if _, err := layout.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := layout.ParseBasis(c.Basis); err != nil {
		errs = append(errs, err)
	}
	if _, err := render.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Border < 0 {
		errs = append(errs, fmt.Errorf("border must be >= 0, got %d", c.Border))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality))
	}
	if c.MaxItems < 0 {
		errs = append(errs, fmt.Errorf("max_items must be >= 0, got %d", c.MaxItems))
	}
	if !render.ValidColor(c.Background) {
		errs = append(errs, fmt.Errorf("unreadable background color %q", c.Background))
	} else if format, err := render.ParseFormat(c.Format); err == nil && format == render.FormatJPEG {
		if bg := render.ParseColor(c.Background, render.White); bg.A != 0xff {
			errs = append(errs, fmt.Errorf("background color %q is not opaque; jpg has no alpha channel, use png", c.Background))
		}
	}
	if c.Caption.Color != "" && !render.ValidColor(c.Caption.Color) {
		errs = append(errs, fmt.Errorf("unreadable caption color %q", c.Caption.Color))
	}
	switch c.Caption.Provider {
	case "", "gemini", "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown caption provider %q (expected gemini, ollama or openai)", c.Caption.Provider))
	}
	for provider := range c.Caption.Models {
		switch provider {
		case "gemini", "ollama", "openai":
		default:
			errs = append(errs, fmt.Errorf("caption model set for unknown provider %q", provider))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// FrameConfig returns the layout settings. Unknown aspect tokens resolve to
// 4:3. Call Validate first.
func (c Config) FrameConfig() layout.FrameConfig {
	mode, _ := layout.ParseMode(c.Mode)
	basis, _ := layout.ParseBasis(c.Basis)
	return layout.FrameConfig{
		Mode:   mode,
		Border: c.Border,
		Aspect: layout.ParseAspectRatio(c.Aspect),
		Basis:  basis,
	}
}

// ExportOptions returns the exporter settings. Call Validate first.
func (c Config) ExportOptions() batch.Options {
	format, _ := render.ParseFormat(c.Format)
	return batch.Options{
		Frame:           c.FrameConfig(),
		Background:      render.ParseColor(c.Background, render.White),
		CaptionColor:    render.ParseColor(c.Caption.Color, captionGray),
		Format:          format,
		Quality:         c.Quality,
		ArchiveName:     c.Archive,
		Caption:         c.Caption.Text,
		CaptionProvider: c.Caption.Provider,
		CaptionModel:    c.Caption.Model,
	}
}
