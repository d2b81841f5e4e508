package pretty

import (
	"fmt"
	"strings"

	"github.com/yaklabco/gomdview/pkg/render"
)

// FormatWarning formats one render warning for terminal output.
func (s *Styles) FormatWarning(w render.Warning) string {
	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(s.Warning.Render("warning"))
	sb.WriteString("  ")
	if w.Tag != "" {
		sb.WriteString(s.Tag.Render("["+w.Tag+"]") + " ")
	}
	sb.WriteString(s.Message.Render(w.Message))
	sb.WriteString("  " + s.Dim.Render("("+string(w.Kind)+")"))
	return sb.String()
}

// FormatWarnings formats the warning list of a snapshot, with a header line
// wrapped to the given width. An empty list formats to an all-clear line.
func (s *Styles) FormatWarnings(title string, warnings []render.Warning, width int) string {
	var sb strings.Builder

	header := title
	if header == "" {
		header = "document"
	}
	if len(warnings) == 0 {
		sb.WriteString(s.Success.Render("✓") + " " + s.Title.Render(header) +
			s.Dim.Render(" rendered cleanly") + "\n")
		return sb.String()
	}

	sb.WriteString(s.Title.Render(truncate(header, width)))
	sb.WriteString(s.Dim.Render(fmt.Sprintf(" (%d warnings)", len(warnings))))
	sb.WriteString("\n")
	for _, w := range warnings {
		sb.WriteString(truncate(s.FormatWarning(w), width))
		sb.WriteString("\n")
	}
	return sb.String()
}

// truncate shortens a line to width characters. Styled sequences are not
// measured; this only guards against pathological one-line blowups.
func truncate(line string, width int) string {
	if width <= 3 || len(line) <= width {
		return line
	}
	return line[:width-3] + "..."
}
