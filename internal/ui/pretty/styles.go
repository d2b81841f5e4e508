// Package pretty provides Lipgloss-based styled output for render warnings
// and stream summaries on the terminal.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// defaultTermWidth is used when the terminal width cannot be determined.
const defaultTermWidth = 100

// Styles contains the styled renderers for CLI output.
type Styles struct {
	Warning lipgloss.Style
	Tag     lipgloss.Style
	Message lipgloss.Style
	Success lipgloss.Style
	Title   lipgloss.Style
	Dim     lipgloss.Style
}

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &Styles{
			Warning: plain,
			Tag:     plain,
			Message: plain,
			Success: plain,
			Title:   plain,
			Dim:     plain,
		}
	}
	return &Styles{
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Tag:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Message: lipgloss.NewStyle(),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Title:   lipgloss.NewStyle().Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// IsColorEnabled determines if color should be enabled based on mode and writer.
// Mode values: "auto" (default), "always", "never".
// In auto mode, color is enabled only if the writer is a TTY and NO_COLOR is not set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		// Check NO_COLOR environment variable (https://no-color.org/)
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}

// TerminalWidth returns the writer's terminal width, or a sensible default
// for non-terminal writers.
func TerminalWidth(writer io.Writer) int {
	if f, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultTermWidth
}
