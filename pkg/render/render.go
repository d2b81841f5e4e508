// Package render converts a complete Markdown snapshot into HTML using
// goldmark with GitHub-flavored extensions. Fenced code blocks are routed
// through the transform registry first, then through chroma syntax
// highlighting, and finally fall back to an escaped literal block. Rendering
// is deterministic: the same input and options always produce the same HTML.
package render

import (
	"bytes"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/gomdview/pkg/transform"
)

// Flavor identifies the Markdown flavor the renderer parses.
const (
	FlavorGFM        = "gfm"
	FlavorCommonMark = "commonmark"
)

// LinkHookAttr is the attribute the renderer adds to every hyperlink so the
// embedding layer can intercept activation and dispatch to the system
// browser instead of navigating in place.
const LinkHookAttr = "data-external-link"

// WarningKind classifies non-fatal rendering diagnostics.
type WarningKind string

const (
	// WarnUnknownLanguage marks a fenced block whose tag matched neither a
	// transform nor a syntax grammar.
	WarnUnknownLanguage WarningKind = "unknown-language"
	// WarnTransformFailure marks a block whose transform returned an error
	// or panicked; the block was rendered as a literal code block instead.
	WarnTransformFailure WarningKind = "transform-failure"
	// WarnHighlightFailure marks a block the highlighter could not process.
	WarnHighlightFailure WarningKind = "highlight-failure"
)

// Warning is a non-fatal diagnostic recorded during a render pass. Content
// never aborts rendering; the worst outcome is a degraded block plus one of
// these.
type Warning struct {
	Kind    WarningKind
	Tag     string
	Message string
}

// Options configures a Renderer. The zero value renders GFM with the
// "github" chroma style, no transforms, no sanitization, and link rewriting
// enabled.
type Options struct {
	// Flavor is "gfm" or "commonmark". Invalid values default to "gfm".
	Flavor string

	// HighlightStyle is the chroma style name for code blocks.
	HighlightStyle string

	// Registry supplies block transforms, consulted before highlighting.
	// May be nil.
	Registry *transform.Registry

	// DetectLanguage enables language auto-detection for untagged fenced
	// blocks.
	DetectLanguage bool

	// Sanitize filters the rendered HTML through a bluemonday policy,
	// stripping raw-HTML passthrough down to a safe subset.
	Sanitize bool

	// DisableLinkRewrite leaves hyperlinks untouched instead of adding the
	// activation-hook attributes.
	DisableLinkRewrite bool
}

// Renderer converts Markdown text to HTML. A Renderer is built once and
// reused; Render serializes internally, so it is safe for concurrent use,
// though the streaming pipeline has a single producer.
type Renderer struct {
	opts   Options
	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu   sync.Mutex
	code *codeRenderer
}

// New creates a Renderer with the given options.
func New(opts Options) *Renderer {
	opts.Flavor = flavorOrDefault(opts.Flavor)
	if opts.HighlightStyle == "" {
		opts.HighlightStyle = "github"
	}

	r := &Renderer{opts: opts}
	r.code = newCodeRenderer(&r.opts)

	nodeRenderers := []util.PrioritizedValue{
		util.Prioritized(r.code, 100),
	}
	if !opts.DisableLinkRewrite {
		nodeRenderers = append(nodeRenderers, util.Prioritized(newLinkRenderer(), 150))
	}

	var gmOpts []goldmark.Option
	if opts.Flavor == FlavorGFM {
		gmOpts = append(gmOpts, goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
		))
	}
	gmOpts = append(gmOpts,
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			ghtml.WithUnsafe(),
			renderer.WithNodeRenderers(nodeRenderers...),
		),
	)
	r.md = goldmark.New(gmOpts...)

	if opts.Sanitize {
		r.policy = newSanitizePolicy()
	}

	return r
}

// Flavor returns the configured Markdown flavor.
func (r *Renderer) Flavor() string {
	return r.opts.Flavor
}

// Render converts text into an HTML body fragment plus any warnings raised
// along the way. Malformed constructs degrade to literal text; Render never
// fails on content.
func (r *Renderer) Render(text string) (string, []Warning) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.code.resetWarnings()

	var buf bytes.Buffer
	// Convert only fails on writer errors; bytes.Buffer writes cannot fail.
	_ = r.md.Convert([]byte(text), &buf)

	html := buf.String()
	if r.policy != nil {
		html = r.policy.Sanitize(html)
	}

	warnings := make([]Warning, len(r.code.warnings))
	copy(warnings, r.code.warnings)

	return html, warnings
}

func flavorOrDefault(flavor string) string {
	switch flavor {
	case FlavorGFM, FlavorCommonMark:
		return flavor
	default:
		return FlavorGFM
	}
}

// newSanitizePolicy builds the bluemonday policy used when Sanitize is on.
// It starts from the UGC policy and re-admits the attributes the renderer
// itself emits: chroma inline styles, transform containers, task-list
// checkboxes, and the link activation hook.
func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("style").OnElements("span", "pre", "code", "div")
	p.AllowAttrs("hidden").OnElements("pre", "div")
	p.AllowAttrs("data-diagram-source", "data-math-source").OnElements("div")
	p.AllowAttrs(LinkHookAttr, "target", "rel").OnElements("a")
	p.AllowElements("input")
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	return p
}
