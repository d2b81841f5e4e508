// Package configloader resolves the session configuration. It implements
// XDG-compliant user config discovery, explicit --config paths, and
// environment variable overrides, merged onto the built-in defaults.
package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yaklabco/gomdview/pkg/config"
)

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	// ExplicitPath is an explicit config file path (from --config flag).
	// If set, user config discovery is skipped.
	ExplicitPath string

	// IgnoreUserConfig skips loading user-level configuration.
	IgnoreUserConfig bool

	// IgnoreEnv skips environment variable overrides.
	IgnoreEnv bool
}

// LoadResult contains the resolved configuration and metadata.
type LoadResult struct {
	// Config is the final merged configuration.
	Config *config.Config

	// LoadedFrom lists the files that were actually loaded (in order).
	LoadedFrom []string

	// Warnings contains non-fatal issues encountered during loading.
	Warnings []string
}

// Load resolves the final configuration.
// Precedence (highest to lowest):
//  1. Environment variables (GOMDVIEW_*)
//  2. Explicit config file (opts.ExplicitPath, or GOMDVIEW_CONFIG)
//  3. User config ($XDG_CONFIG_HOME/gomdview/config.yaml)
//  4. Defaults
//
// CLI flag overrides are applied by the caller on top of the result.
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	result := &LoadResult{}
	cfg := config.Default()

	explicit := opts.ExplicitPath
	if explicit == "" && !opts.IgnoreEnv {
		explicit = os.Getenv("GOMDVIEW_CONFIG")
	}

	if explicit != "" {
		loaded, err := loadConfigFile(explicit)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", explicit, err)
		}
		cfg = loaded
		result.LoadedFrom = append(result.LoadedFrom, explicit)
	} else if !opts.IgnoreUserConfig {
		if path := findUserConfig(); path != "" {
			loaded, err := loadConfigFile(path)
			if err != nil {
				return nil, fmt.Errorf("load user config: %w", err)
			}
			cfg = loaded
			result.LoadedFrom = append(result.LoadedFrom, path)
		}
	}

	if !opts.IgnoreEnv {
		warnings := applyEnv(cfg)
		result.Warnings = append(result.Warnings, warnings...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	result.Config = cfg
	return result, nil
}

// loadConfigFile parses a YAML config file on top of the defaults.
func loadConfigFile(path string) (*config.Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg, err := config.FromYAML(content)
	if err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return cfg, nil
}

// findUserConfig returns the path to the user-level config file, if it exists.
func findUserConfig() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}

	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(configHome, "gomdview", name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
