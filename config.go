package main

import (
	_ "embed"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".inshorts"

//go:embed config/settings.yaml
var defaultSettings []byte

// BrowserSettings configures the shared browser session
type BrowserSettings struct {
	UserAgent       string `yaml:"user_agent"`
	PageLoadTimeout int    `yaml:"page_load_timeout"` // seconds
	SettleMax       int    `yaml:"settle_max"`        // seconds
	ViewportWidth   int    `yaml:"viewport_width"`
	ViewportHeight  int    `yaml:"viewport_height"`
	Install         bool   `yaml:"install"`
}

// SummarizerSettings selects and tunes the summary condenser
type SummarizerSettings struct {
	Mode             string  `yaml:"mode"` // extractive or llm
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	ContentMaxTokens int     `yaml:"content_max_tokens"`
}

// ExtractionSettings bounds what is kept from each visited page
type ExtractionSettings struct {
	DescriptionMax   int    `yaml:"description_max"`
	ExcerptMax       int    `yaml:"excerpt_max"`
	PlaceholderImage string `yaml:"placeholder_image"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	Browser    BrowserSettings    `yaml:"browser"`
	Summarizer SummarizerSettings `yaml:"summarizer"`
	Extraction ExtractionSettings `yaml:"extraction"`
}

// PageLoadTimeout returns the browser page-load bound as a duration
func (s *Settings) PageLoadTimeout() time.Duration {
	return time.Duration(s.Browser.PageLoadTimeout) * time.Second
}

// SettleMax returns the upper bound on the post-navigation wait
func (s *Settings) SettleMax() time.Duration {
	return time.Duration(s.Browser.SettleMax) * time.Second
}

// LoadSettings loads settings with the following precedence: an explicit
// path (must exist), then .inshorts/settings.yaml when present, then the
// embedded defaults. Files are layered over the embedded defaults, so a file
// only needs the keys it changes.
func LoadSettings(explicitPath string) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(defaultSettings, &settings); err != nil {
		return nil, errors.Wrap(err, "parsing embedded settings")
	}

	path := explicitPath
	if path == "" {
		candidate := getConfigPath("settings.yaml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading settings file %s", path)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, errors.Wrapf(err, "parsing settings file %s", path)
		}
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// validate fills zero values with defaults and rejects unknown modes
func (s *Settings) validate() error {
	if s.Browser.UserAgent == "" {
		s.Browser.UserAgent = DefaultUserAgent
	}
	if s.Browser.PageLoadTimeout <= 0 {
		s.Browser.PageLoadTimeout = int(DefaultPageLoadTimeout / time.Second)
	}
	if s.Browser.SettleMax < 0 {
		s.Browser.SettleMax = 0
	}
	if s.Browser.ViewportWidth <= 0 || s.Browser.ViewportHeight <= 0 {
		s.Browser.ViewportWidth = DefaultViewportWidth
		s.Browser.ViewportHeight = DefaultViewportHeight
	}

	switch s.Summarizer.Mode {
	case "":
		s.Summarizer.Mode = SummarizerExtractive
	case SummarizerExtractive, SummarizerLLM:
	default:
		return errors.Errorf("unknown summarizer mode %q (want %s or %s)", s.Summarizer.Mode, SummarizerExtractive, SummarizerLLM)
	}

	if s.Extraction.DescriptionMax <= 0 {
		s.Extraction.DescriptionMax = 500
	}
	if s.Extraction.ExcerptMax <= 0 {
		s.Extraction.ExcerptMax = 1000
	}
	if s.Extraction.PlaceholderImage == "" {
		s.Extraction.PlaceholderImage = DefaultPlaceholderImage
	}
	return nil
}

// getConfigPath returns the path to a config file in .inshorts directory
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}
