package configloader

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yaklabco/gomdview/pkg/config"
)

// applyEnv overrides cfg fields from GOMDVIEW_* environment variables.
// Unparseable values are skipped with a warning rather than aborting startup.
func applyEnv(cfg *config.Config) []string {
	var warnings []string

	if v := os.Getenv("GOMDVIEW_THEME"); v != "" {
		cfg.Theme = config.Theme(v)
	}
	if v := os.Getenv("GOMDVIEW_FLAVOR"); v != "" {
		cfg.Flavor = config.Flavor(v)
	}
	if v := os.Getenv("GOMDVIEW_MODE"); v != "" {
		cfg.Mode = config.ViewMode(v)
	}
	if v := os.Getenv("GOMDVIEW_HIGHLIGHT_STYLE"); v != "" {
		cfg.HighlightStyle = v
	}

	if v := os.Getenv("GOMDVIEW_IDLE_FLUSH"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			warnings = append(warnings,
				fmt.Sprintf("ignoring GOMDVIEW_IDLE_FLUSH=%q: %v", v, err))
		} else {
			cfg.IdleFlush = config.Duration(parsed)
		}
	}

	if v := os.Getenv("GOMDVIEW_SANITIZE"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			warnings = append(warnings,
				fmt.Sprintf("ignoring GOMDVIEW_SANITIZE=%q: %v", v, err))
		} else {
			cfg.Sanitize = parsed
		}
	}

	if v := os.Getenv("GOMDVIEW_DETECT_LANGUAGE"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			warnings = append(warnings,
				fmt.Sprintf("ignoring GOMDVIEW_DETECT_LANGUAGE=%q: %v", v, err))
		} else {
			cfg.DetectLanguage = parsed
		}
	}

	return warnings
}
