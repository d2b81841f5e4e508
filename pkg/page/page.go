// Package page assembles rendered Markdown bodies into complete, standalone
// HTML documents: embedded theme CSS, the transform registry's collected
// assets, and the link-activation shim. The document renders without any
// network fetch; external script references only hydrate diagram and math
// containers when available.
package page

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/yaklabco/gomdview/pkg/transform"
)

// Theme selects the page color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// IsValid reports whether the theme is one of the known values.
func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// DefaultTitle is used for piped input, where no file name exists.
const DefaultTitle = "Piped Input"

// Options configures document assembly.
type Options struct {
	// Title becomes the document title. Empty defaults to DefaultTitle.
	Title string

	// Theme selects the color scheme. Empty defaults to ThemeSystem.
	Theme Theme

	// Assets are the transform registry's page-level resources.
	Assets transform.Assets

	// HighlightStyle is the chroma style used by BuildSource. Empty
	// defaults to "github".
	HighlightStyle string
}

func (o Options) title() string {
	if o.Title == "" {
		return DefaultTitle
	}
	return o.Title
}

func (o Options) theme() Theme {
	if !o.Theme.IsValid() {
		return ThemeSystem
	}
	return o.Theme
}

// Build wraps a rendered HTML body into a full document.
func Build(body string, opts Options) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", transform.EscapeText(opts.title()))
	sb.WriteString("<style>\n")
	sb.WriteString(themeCSS(opts.theme()))
	sb.WriteString(baseCSS)
	if opts.Assets.CSS != "" {
		sb.WriteString(opts.Assets.CSS)
		sb.WriteString("\n")
	}
	sb.WriteString("</style>\n")
	for _, url := range opts.Assets.ScriptURLs {
		fmt.Fprintf(&sb, "<script defer src=\"%s\"></script>\n", transform.EscapeAttr(url))
	}
	sb.WriteString("</head>\n<body>\n<article class=\"markdown-body\">\n")
	sb.WriteString(body)
	sb.WriteString("\n</article>\n<script>\n")
	sb.WriteString(linkHookJS)
	if opts.Assets.JS != "" {
		sb.WriteString("\nwindow.addEventListener(\"load\", function () {\n")
		sb.WriteString(opts.Assets.JS)
		sb.WriteString("\n});\n")
	}
	sb.WriteString("</script>\n</body>\n</html>\n")
	return sb.String()
}

// BuildSource renders the raw Markdown itself as a syntax-highlighted page,
// the viewer's source mode.
func BuildSource(markdown string, opts Options) string {
	body := highlightSource(markdown, opts)
	return Build(body, Options{
		Title: opts.title() + " (source)",
		Theme: opts.theme(),
		// Source view needs no transform assets.
	})
}

func highlightSource(markdown string, opts Options) string {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		return "<pre><code>" + transform.EscapeText(markdown) + "</code></pre>"
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, markdown)
	if err != nil {
		return "<pre><code>" + transform.EscapeText(markdown) + "</code></pre>"
	}

	styleName := opts.HighlightStyle
	if styleName == "" {
		styleName = "github"
	}
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	var sb strings.Builder
	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return "<pre><code>" + transform.EscapeText(markdown) + "</code></pre>"
	}
	return sb.String()
}

// themeCSS returns the CSS variable block for the theme. System defers to
// the client's color-scheme preference.
func themeCSS(t Theme) string {
	switch t {
	case ThemeLight:
		return ":root {\n" + lightVars + "}\n"
	case ThemeDark:
		return ":root {\n" + darkVars + "}\n"
	default:
		return ":root {\n" + lightVars + "}\n" +
			"@media (prefers-color-scheme: dark) {\n:root {\n" + darkVars + "}\n}\n"
	}
}

const lightVars = `  --color-canvas-default: #ffffff;
  --color-canvas-subtle: #f6f8fa;
  --color-border-default: #d0d7de;
  --color-fg-default: #1f2328;
  --color-accent: #0969da;
`

const darkVars = `  --color-canvas-default: #0d1117;
  --color-canvas-subtle: #161b22;
  --color-border-default: #30363d;
  --color-fg-default: #e6edf3;
  --color-accent: #4493f8;
`

const baseCSS = `body { margin: 0; background: var(--color-canvas-default); color: var(--color-fg-default); }
.markdown-body { max-width: 860px; margin: 0 auto; padding: 32px 24px; font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; line-height: 1.5; word-wrap: break-word; }
.markdown-body a { color: var(--color-accent); }
.markdown-body pre { background: var(--color-canvas-subtle); padding: 16px; border-radius: 6px; overflow: auto; }
.markdown-body code { font-family: ui-monospace, SFMono-Regular, "SF Mono", Menlo, Consolas, monospace; font-size: 85%; }
.markdown-body table { border-collapse: collapse; }
.markdown-body th, .markdown-body td { border: 1px solid var(--color-border-default); padding: 6px 13px; }
.markdown-body blockquote { border-left: 4px solid var(--color-border-default); margin-left: 0; padding-left: 16px; color: #656d76; }
.markdown-body img { max-width: 100%; }
`

// linkHookJS dispatches hyperlink activation to the embedding layer. The
// external surface wires window.openExternal; without it, links keep their
// target=_blank behavior.
const linkHookJS = `document.addEventListener("click", function (ev) {
  var a = ev.target.closest && ev.target.closest("a[data-external-link]");
  if (!a) return;
  if (typeof window.openExternal === "function") {
    ev.preventDefault();
    window.openExternal(a.href);
  }
});`
