package render

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// linkRenderer rewrites hyperlinks so that activation dispatches to the
// embedding layer's "open in system browser" hook instead of navigating the
// preview surface in place. Every anchor carries LinkHookAttr plus target
// and rel attributes; the page script delegates clicks on the attribute.
type linkRenderer struct{}

func newLinkRenderer() *linkRenderer {
	return &linkRenderer{}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (lr *linkRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, lr.renderLink)
	reg.Register(ast.KindAutoLink, lr.renderAutoLink)
}

const linkHookAttrs = ` ` + LinkHookAttr + `="true" target="_blank" rel="noopener noreferrer"`

func (lr *linkRenderer) renderLink(
	w util.BufWriter, _ []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	if !entering {
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<a href="`)
	if !ghtml.IsDangerousURL(n.Destination) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	}
	_, _ = w.WriteString(`"`)
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(linkHookAttrs)
	_, _ = w.WriteString(">")
	return ast.WalkContinue, nil
}

func (lr *linkRenderer) renderAutoLink(
	w util.BufWriter, source []byte, node ast.Node, entering bool,
) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)

	url := n.URL(source)
	label := n.Label(source)

	_, _ = w.WriteString(`<a href="`)
	if n.AutoLinkType == ast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(url), []byte("mailto:")) {
		_, _ = w.WriteString("mailto:")
	}
	if !ghtml.IsDangerousURL(url) {
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(url, false)))
	}
	_, _ = w.WriteString(`"`)
	_, _ = w.WriteString(linkHookAttrs)
	_, _ = w.WriteString(">")
	_, _ = w.Write(util.EscapeHTML(label))
	_, _ = w.WriteString("</a>")
	return ast.WalkContinue, nil
}
