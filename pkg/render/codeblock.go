package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/yaklabco/gomdview/pkg/langdetect"
)

// codeRenderer renders fenced and indented code blocks. For fenced blocks
// the language tag is resolved in order: transform registry, syntax grammar,
// escaped literal. A transform failure degrades that block alone to the
// literal form and records a warning.
type codeRenderer struct {
	opts     *Options
	warnings []Warning
}

func newCodeRenderer(opts *Options) *codeRenderer {
	return &codeRenderer{opts: opts}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (cr *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, cr.renderFenced)
	reg.Register(ast.KindCodeBlock, cr.renderIndented)
}

func (cr *codeRenderer) resetWarnings() {
	cr.warnings = cr.warnings[:0]
}

func (cr *codeRenderer) warn(kind WarningKind, tag, message string) {
	cr.warnings = append(cr.warnings, Warning{Kind: kind, Tag: tag, Message: message})
}

func (cr *codeRenderer) renderFenced(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	lang := string(n.Language(source))
	content := blockContent(source, n.Lines())

	// 1. Transform registry match replaces the whole block.
	if lang != "" && cr.opts.Registry.Matches(lang) {
		fragment, err := cr.opts.Registry.Apply(lang, content)
		if err == nil {
			_, _ = w.WriteString(fragment)
			return ast.WalkContinue, nil
		}
		cr.warn(WarnTransformFailure, lang, err.Error())
		cr.writeLiteral(w, lang, content)
		return ast.WalkContinue, nil
	}

	// 2. Known syntax grammar gets highlighted output.
	highlightLang := lang
	if highlightLang == "" && cr.opts.DetectLanguage {
		highlightLang = langdetect.Detect([]byte(content))
	}
	if highlightLang != "" {
		if lexer := lexers.Get(highlightLang); lexer != nil {
			if cr.writeHighlighted(w, lexer, content) {
				return ast.WalkContinue, nil
			}
			cr.warn(WarnHighlightFailure, highlightLang, "tokenization failed")
			cr.writeLiteral(w, lang, content)
			return ast.WalkContinue, nil
		}
		if lang != "" {
			cr.warn(WarnUnknownLanguage, lang, "no syntax grammar for language")
		}
	}

	// 3. Escaped literal fallback.
	cr.writeLiteral(w, lang, content)
	return ast.WalkContinue, nil
}

func (cr *codeRenderer) renderIndented(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.CodeBlock)
	cr.writeLiteral(w, "", blockContent(source, n.Lines()))
	return ast.WalkContinue, nil
}

// writeHighlighted renders content through chroma with inline styles so the
// output needs no external stylesheet. Returns false if tokenization or
// formatting failed, leaving nothing written.
func (cr *codeRenderer) writeHighlighted(w util.BufWriter, lexer chroma.Lexer, content string) bool {
	lexer = chroma.Coalesce(lexer)
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return false
	}

	style := styles.Get(cr.opts.HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4))

	// Format into a scratch buffer so a mid-stream failure cannot leave a
	// half-written block in the document.
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return false
	}
	_, _ = w.WriteString(sb.String())
	return true
}

func (cr *codeRenderer) writeLiteral(w util.BufWriter, lang, content string) {
	_, _ = w.WriteString("<pre><code")
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.Write(util.EscapeHTML([]byte(content)))
	_, _ = w.WriteString("</code></pre>\n")
}

// blockContent joins the segment lines of a code block into the raw literal
// text between the fences.
func blockContent(source []byte, lines *text.Segments) string {
	var sb strings.Builder
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		sb.Write(segment.Value(source))
	}
	return sb.String()
}
