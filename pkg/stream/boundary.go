package stream

import "strings"

// boundary is the recomputable scan state over the raw buffer: whether the
// buffer currently ends inside an open fenced code block, a table, or a raw
// HTML block, plus the trailing blank-line count. It is a pure function of
// the lines fed to processLine, so incremental scanning and a full re-scan
// agree byte for byte.
type boundary struct {
	inFence     bool
	fenceChar   byte
	fenceLen    int
	inTable     bool
	inHTML      bool
	htmlCloser  string // "" means the HTML block closes on a blank line
	trailBlanks int
}

// open reports whether any multi-line construct is unterminated.
func (b *boundary) open() bool {
	return b.inFence || b.inTable || b.inHTML
}

// processLine folds one complete line (without its newline) into the state.
func (b *boundary) processLine(line string) {
	if b.inFence {
		if closesFence(line, b.fenceChar, b.fenceLen) {
			b.inFence = false
			b.fenceChar = 0
			b.fenceLen = 0
		}
		return
	}

	if b.inHTML {
		if b.htmlCloser == "" {
			if isBlank(line) {
				b.inHTML = false
			}
		} else if strings.Contains(strings.ToLower(line), b.htmlCloser) {
			b.inHTML = false
			b.htmlCloser = ""
		}
		return
	}

	if isBlank(line) {
		b.trailBlanks++
		b.inTable = false
		return
	}
	b.trailBlanks = 0

	if ch, n, ok := opensFence(line); ok {
		// A fence opener interrupts an open table.
		b.inTable = false
		b.inFence = true
		b.fenceChar = ch
		b.fenceLen = n
		return
	}

	if closer, ok := opensHTMLBlock(line); ok {
		b.inTable = false
		// A type-1 block can open and close on the same line.
		if closer != "" && strings.Contains(strings.ToLower(line), closer) &&
			strings.Index(strings.ToLower(line), closer) > 0 {
			return
		}
		b.inHTML = true
		b.htmlCloser = closer
		return
	}

	// A pipe-led line is a table row (or a header awaiting its delimiter);
	// more rows may follow, so the table stays open until a non-row line.
	b.inTable = strings.HasPrefix(strings.TrimLeft(line, " "), "|")
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// opensFence reports whether line opens a fenced code block: up to three
// spaces of indent, then at least three backticks or tildes. A backtick
// fence's info string must not itself contain a backtick.
func opensFence(line string) (byte, int, bool) {
	trimmed, indent := trimIndent(line)
	if indent > 3 || trimmed == "" {
		return 0, 0, false
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return 0, 0, false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < 3 {
		return 0, 0, false
	}
	if ch == '`' && strings.ContainsRune(trimmed[n:], '`') {
		return 0, 0, false
	}
	return ch, n, true
}

// closesFence reports whether line closes a fence opened with the given
// marker: the same character, at least the opening run length, and nothing
// but whitespace after.
func closesFence(line string, ch byte, minLen int) bool {
	trimmed, indent := trimIndent(line)
	if indent > 3 || trimmed == "" {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == ch {
		n++
	}
	if n < minLen {
		return false
	}
	return strings.TrimSpace(trimmed[n:]) == ""
}

// htmlRawTags are the tags whose blocks run to a matching end tag rather
// than a blank line.
var htmlRawTags = []string{"script", "pre", "style", "textarea"}

// opensHTMLBlock reports whether line starts a raw HTML block, returning the
// closing marker to wait for ("" means the block ends at a blank line).
func opensHTMLBlock(line string) (string, bool) {
	trimmed, indent := trimIndent(line)
	if indent > 3 || len(trimmed) < 2 || trimmed[0] != '<' {
		return "", false
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "<!--"):
		return "-->", true
	case strings.HasPrefix(lower, "<?"):
		return "?>", true
	case strings.HasPrefix(lower, "<![cdata["):
		return "]]>", true
	case strings.HasPrefix(lower, "<!"):
		return ">", true
	}

	for _, tag := range htmlRawTags {
		if strings.HasPrefix(lower, "<"+tag) {
			rest := lower[1+len(tag):]
			if rest == "" || rest[0] == ' ' || rest[0] == '>' || rest[0] == '\t' {
				return "</" + tag + ">", true
			}
		}
	}

	// Any other tag-like line opens a blank-line-terminated block.
	c := trimmed[1]
	if c == '/' && len(trimmed) > 2 {
		c = trimmed[2]
	}
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return "", true
	}
	return "", false
}

// trimIndent strips up to three leading spaces, returning the rest and the
// count removed. Four or more spaces would make the line indented code.
func trimIndent(line string) (string, int) {
	indent := 0
	for indent < len(line) && indent < 4 && line[indent] == ' ' {
		indent++
	}
	return line[indent:], indent
}
