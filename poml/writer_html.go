package poml

import (
	stdhtml "html"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// HTMLWriter renders an <env markup-lang="html"> subtree as a pretty-
// printed HTML fragment, built as a golang.org/x/net/html DOM so the
// output is always well-formed regardless of what the IR attributes
// contain.
type HTMLWriter struct {
	mediaDraft []PositionalContentMultiMedia
	indent     string
}

func (w *HTMLWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	w.indent = "  "
	if wctx.Options != nil && wctx.Options.HTMLIndent != "" {
		w.indent = wctx.Options.HTMLIndent
	}

	root := &html.Node{Type: html.ElementNode, Data: "div"}
	var mappings []MappingNode
	offsets := map[*html.Node]*IRNode{}
	for _, c := range n.Children {
		w.appendNode(root, c, wctx, offsets)
	}

	var b strings.Builder
	w.render(&b, root, 0, &mappings, wctx, offsets)
	text := strings.TrimRight(b.String(), "\n")
	text = applyEnvLimits(n, text, wctx)

	media := make([]PositionalContentMultiMedia, 0, len(w.mediaDraft))
	runeIdx := 0
	draftIdx := 0
	for _, r := range text {
		if r == placeholderRune && draftIdx < len(w.mediaDraft) {
			out := w.mediaDraft[draftIdx]
			out.Index = runeIdx
			media = append(media, out)
			draftIdx++
		}
		runeIdx++
	}
	return WriteResult{Output: text, Mappings: mappings, Multimedia: media}
}

// appendNode translates one IR element into an html.Node child of
// parent, recursing for containers. Elements with no direct HTML
// counterpart (obj/any) become a <pre> holding their value.
func (w *HTMLWriter) appendNode(parent *html.Node, n *IRNode, wctx *writeCtx, offsets map[*html.Node]*IRNode) {
	switch n.Tag {
	case IRText:
		child := &html.Node{Type: html.TextNode, Data: n.Text}
		parent.AppendChild(child)
		offsets[child] = n
	case IRNl:
		parent.AppendChild(&html.Node{Type: html.ElementNode, Data: "br"})
	case IRImg, IRAudio, IRToolRequest, IRToolResponse:
		m, ok := multimediaFor(n)
		if !ok {
			return
		}
		w.mediaDraft = append(w.mediaDraft, m)
		child := &html.Node{Type: html.TextNode, Data: placeholderChar}
		parent.AppendChild(child)
		offsets[child] = n
	case IREnv:
		childCtx := newWriteCtx(wctx.Options, n)
		res := DispatchEnv(n, childCtx)
		pre := w.elementWithText(n, "pre", res.Output)
		parent.AppendChild(pre)
		offsets[pre] = n
		w.mediaDraft = append(w.mediaDraft, res.Multimedia...)
	case IRObj, IRAny:
		el := w.elementWithText(n, "pre", n.Attrs.GetString("data"))
		parent.AppendChild(el)
		offsets[el] = n
	default:
		tag, attrs := htmlTagFor(n)
		el := &html.Node{Type: html.ElementNode, Data: tag, Attr: attrs}
		parent.AppendChild(el)
		offsets[el] = n
		for _, c := range n.Children {
			w.appendNode(el, c, wctx, offsets)
		}
	}
}

func (w *HTMLWriter) elementWithText(n *IRNode, tag, text string) *html.Node {
	el := &html.Node{Type: html.ElementNode, Data: tag}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return el
}

// htmlTagFor maps an IR tag to its closest HTML element, per the
// component-to-tag correspondence established in components.go.
func htmlTagFor(n *IRNode) (string, []html.Attribute) {
	var attrs []html.Attribute
	if cls := n.Attrs.GetString(AttrClass); cls != "" {
		attrs = append(attrs, html.Attribute{Key: "class", Val: cls})
	}
	switch n.Tag {
	case IRP:
		return "p", attrs
	case IRH:
		depth := n.Attrs.GetInt("level", 1)
		if depth < 1 {
			depth = 1
		}
		if depth > 6 {
			depth = 6
		}
		return "h" + strconv.Itoa(depth), attrs
	case IRB:
		return "strong", attrs
	case IRI:
		return "em", attrs
	case IRS:
		return "s", attrs
	case IRU:
		return "u", attrs
	case IRCode:
		return "code", attrs
	case IRSpanTag:
		return "span", attrs
	case IRList:
		if n.Attrs.GetString("ordered") == "true" {
			return "ol", attrs
		}
		return "ul", attrs
	case IRItem:
		return "li", attrs
	case IRTable:
		return "table", attrs
	case IRThead:
		return "thead", attrs
	case IRTbody:
		return "tbody", attrs
	case IRTrow:
		return "tr", attrs
	case IRTcell:
		return "td", attrs
	default:
		return "div", attrs
	}
}

// render walks the built DOM, pretty-printing with w.indent per
// nesting level and recording a MappingNode for every node we tagged
// with its originating IR node in offsets.
func (w *HTMLWriter) render(b *strings.Builder, n *html.Node, depth int, mappings *[]MappingNode, wctx *writeCtx, offsets map[*html.Node]*IRNode) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(strings.Repeat(w.indent, depth))
			start := b.Len()
			b.WriteString(c.Data)
			if irn, ok := offsets[c]; ok {
				*mappings = append(*mappings, mappingFor(irn, wctx, start, b.Len()))
			}
			b.WriteByte('\n')
		case html.ElementNode:
			b.WriteString(strings.Repeat(w.indent, depth))
			start := b.Len()
			b.WriteString(openTag(c))
			if c.FirstChild == nil {
				b.WriteString("</" + c.Data + ">")
				if irn, ok := offsets[c]; ok {
					*mappings = append(*mappings, mappingFor(irn, wctx, start, b.Len()))
				}
				b.WriteByte('\n')
				continue
			}
			b.WriteByte('\n')
			w.render(b, c, depth+1, mappings, wctx, offsets)
			b.WriteString(strings.Repeat(w.indent, depth))
			b.WriteString("</" + c.Data + ">")
			if irn, ok := offsets[c]; ok {
				*mappings = append(*mappings, mappingFor(irn, wctx, start, b.Len()))
			}
			b.WriteByte('\n')
		}
	}
}

func openTag(n *html.Node) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(stdhtml.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}
