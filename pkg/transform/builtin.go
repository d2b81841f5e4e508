package transform

import (
	"errors"
	"fmt"
	"strings"
)

// Tags handled by the built-in transforms.
const (
	TagMermaid = "mermaid"
	TagMath    = "math"
	TagLatex   = "latex"
	TagTex     = "tex"
)

// mermaidScriptURL is emitted as a page-level reference. The client hydrates
// .mermaid containers when the library is present; without it the raw-source
// fallback remains visible.
const mermaidScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.min.js"

// ErrEmptyBlock is returned by the built-in transforms for blocks with no
// content; the renderer falls back to a literal code block.
var ErrEmptyBlock = errors.New("empty block")

// NewDefaultRegistry returns a frozen registry containing the built-in
// diagram and math transforms.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	// Registration of built-ins cannot fail: tags are non-empty constants.
	_ = r.Register(DiagramRule())
	_ = r.Register(MathRule(TagMath))
	_ = r.Register(MathRule(TagLatex))
	_ = r.Register(MathRule(TagTex))
	r.Freeze()
	return r
}

// DiagramRule returns the built-in mermaid diagram rule. The fragment wraps
// the HTML-escaped source in a .mermaid container for client-side rendering
// and carries the source in a data attribute alongside a hidden literal view.
func DiagramRule() Rule {
	return Rule{
		Tag:       TagMermaid,
		Priority:  10,
		Transform: diagramFragment,
		Assets: Assets{
			CSS:        diagramCSS,
			JS:         diagramJS,
			ScriptURLs: []string{mermaidScriptURL},
		},
	}
}

func diagramFragment(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyBlock
	}
	escaped := EscapeText(content)
	return fmt.Sprintf(
		`<div class="diagram-container" data-diagram-source="%s">`+
			`<div class="mermaid">%s</div>`+
			`<pre class="diagram-raw" hidden><code>%s</code></pre>`+
			`</div>`,
		EscapeAttr(content), escaped, escaped,
	), nil
}

// MathRule returns a built-in math rule for the given tag. The fragment
// preserves the literal TeX source (HTML-escaped only) for a client-side
// equation renderer; the tag and content select display versus inline mode.
func MathRule(tag string) Rule {
	return Rule{
		Tag:      tag,
		Priority: 20,
		Transform: func(content string) (string, error) {
			return mathFragment(tag, content)
		},
		Assets: Assets{CSS: mathCSS, JS: mathJS},
	}
}

func mathFragment(tag, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyBlock
	}
	mode := "math-inline"
	if isDisplayMath(tag, content) {
		mode = "math-display"
	}
	escaped := EscapeText(content)
	return fmt.Sprintf(
		`<div class="math-container %s" data-math-source="%s">`+
			`<div class="math-src">%s</div>`+
			`<pre class="math-raw" hidden><code>%s</code></pre>`+
			`</div>`,
		mode, EscapeAttr(content), escaped, escaped,
	), nil
}

// isDisplayMath decides display versus inline mode: the plain "math" tag,
// any environment block, and multi-line equations render in display mode.
func isDisplayMath(tag, content string) bool {
	if tag == TagMath {
		return true
	}
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, `\begin`) || strings.Contains(content, `\\`)
}

// EscapeText escapes content for use as HTML text. Entity-decoding on the
// client restores the exact source, so hydration libraries reading
// textContent see the literal block.
func EscapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeAttr escapes content for use inside a double-quoted HTML attribute.
func EscapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

const diagramCSS = `.diagram-container { position: relative; margin: 16px 0; }
.diagram-container .mermaid { background: var(--color-canvas-default); border: 1px solid var(--color-border-default); border-radius: 6px; padding: 16px; overflow: auto; }
.diagram-raw code { display: block; padding: 16px; background: var(--color-canvas-subtle); border-radius: 6px; white-space: pre; overflow: auto; }`

const diagramJS = `if (typeof mermaid !== "undefined") {
  mermaid.initialize({ startOnLoad: true, securityLevel: "strict" });
} else {
  document.querySelectorAll(".diagram-container").forEach(function (el) {
    el.querySelector(".mermaid").hidden = true;
    el.querySelector(".diagram-raw").hidden = false;
  });
}`

const mathCSS = `.math-container { margin: 16px 0; }
.math-container.math-display .math-src { display: block; text-align: center; }
.math-raw code { display: block; padding: 16px; background: var(--color-canvas-subtle); border-radius: 6px; white-space: pre; overflow: auto; }`

const mathJS = `if (typeof katex !== "undefined") {
  document.querySelectorAll(".math-container").forEach(function (el) {
    var src = el.getAttribute("data-math-source");
    var target = el.querySelector(".math-src");
    try {
      katex.render(src, target, {
        displayMode: el.classList.contains("math-display"),
        throwOnError: false,
      });
    } catch (err) {
      target.hidden = true;
      el.querySelector(".math-raw").hidden = false;
    }
  });
}`
