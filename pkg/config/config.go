// Package config defines core configuration types for gomdview.
// These are pure data structures; they arrive validated at startup and no
// component reads ambient process-wide state.
package config

import (
	"fmt"
	"time"
)

// Theme selects the preview color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// IsValid returns true if the theme is a known value.
func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// Flavor specifies the Markdown flavor to parse.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// IsValid returns true if the flavor is a known value.
func (f Flavor) IsValid() bool {
	switch f {
	case FlavorCommonMark, FlavorGFM:
		return true
	default:
		return false
	}
}

// ViewMode selects what the preview shows: the rendered document or the raw
// Markdown source.
type ViewMode string

const (
	ModePreview ViewMode = "preview"
	ModeSource  ViewMode = "source"
)

// IsValid returns true if the view mode is a known value.
func (m ViewMode) IsValid() bool {
	switch m {
	case ModePreview, ModeSource:
		return true
	default:
		return false
	}
}

// Config is the root configuration for a viewer session.
type Config struct {
	// Theme selects the page color scheme.
	Theme Theme `yaml:"theme"`

	// Flavor selects the Markdown dialect ("gfm" or "commonmark").
	Flavor Flavor `yaml:"flavor"`

	// Mode selects rendered preview or raw source view.
	Mode ViewMode `yaml:"mode"`

	// HighlightStyle is the chroma style for code blocks.
	HighlightStyle string `yaml:"highlight_style"`

	// IdleFlush is how long a quiet, boundary-safe buffer may sit before it
	// is re-rendered without waiting for another newline. Zero disables
	// idle flushing.
	IdleFlush Duration `yaml:"idle_flush"`

	// Sanitize strips raw-HTML passthrough down to a safe subset.
	Sanitize bool `yaml:"sanitize"`

	// DetectLanguage enables language auto-detection for untagged fenced
	// code blocks.
	DetectLanguage bool `yaml:"detect_language"`

	// CLI-level options, not persisted to config files.

	// Serve is the address of the HTTP preview surface ("" disables it).
	Serve string `yaml:"-"`

	// Output is a file path the latest HTML document is written to
	// ("" disables it).
	Output string `yaml:"-"`
}

// Default returns the configuration used when no file or flags override it.
func Default() *Config {
	return &Config{
		Theme:          ThemeSystem,
		Flavor:         FlavorGFM,
		Mode:           ModePreview,
		HighlightStyle: "github",
		IdleFlush:      Duration(300 * time.Millisecond),
		DetectLanguage: true,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !c.Theme.IsValid() {
		return fmt.Errorf("invalid theme %q", c.Theme)
	}
	if !c.Flavor.IsValid() {
		return fmt.Errorf("invalid flavor %q", c.Flavor)
	}
	if !c.Mode.IsValid() {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.IdleFlush < 0 {
		return fmt.Errorf("idle_flush must not be negative, got %s", c.IdleFlush)
	}
	return nil
}
