package poml

import "strings"

// NodeKind is the tagged-variant discriminator for ASTNode: a closed sum
// type (one struct keyed by Kind) instead of a type-per-node hierarchy.
type NodeKind int

const (
	NodeElement NodeKind = iota
	NodeText
	NodeComment
)

// Attr is an ordered (name, value) attribute entry. The lexer sets both
// NameSpan and ValueSpan to the span of the whole opening tag, not of
// the attribute's own name or value.
type Attr struct {
	Name      string
	Value     string
	NameSpan  Span
	ValueSpan Span
	// Interpolated is not set by the reader and stays nil; evaluated
	// attribute values reach components through RenderContext.Attrs.
	Interpolated any
}

// ASTNode is the closed tagged variant produced by the lexer/parser: an
// Element, a Text run, or a Comment. Children are only meaningful for
// Element.
type ASTNode struct {
	Kind NodeKind

	// Tag is the canonical lowercase tag name (Element only).
	Tag string
	// OriginalTag preserves the as-written casing/hyphenation for
	// diagnostics.
	OriginalTag string
	Attrs       []Attr
	Children    []*ASTNode

	// Text holds the raw text for Text/Comment nodes, or accumulated text
	// if the element is encountered as a text run.
	Text string

	OpenTagSpan  Span // the span of the whole opening tag, e.g. `<poml ...>`
	CloseTagSpan Span // the span of the whole closing tag; empty for self-closed
	Span         Span // full span including open/close tags and children
}

// Attr looks up an attribute by case-insensitive name, hyphen<->camelCase
// tolerant like the component registry's alias matching.
func (n *ASTNode) Attr(name string) (Attr, bool) {
	canon := canonicalizeName(name)
	for _, a := range n.Attrs {
		if canonicalizeName(a.Name) == canon {
			return a, true
		}
	}
	return Attr{}, false
}

// AttrString returns the raw (pre-interpolation) attribute value.
func (n *ASTNode) AttrString(name string) (string, bool) {
	a, ok := n.Attr(name)
	if !ok {
		return "", false
	}
	return a.Value, true
}

// canonicalizeName lowercases and strips hyphens so "context-file",
// "contextFile", and "ContextFile" all compare equal.
func canonicalizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '-' || r == '_' {
			continue
		}
		b.WriteRune(toLowerRune(r))
	}
	return b.String()
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

// Copy returns a deep copy of the node.
func (n *ASTNode) Copy() *ASTNode {
	if n == nil {
		return nil
	}
	cp := *n
	if n.Attrs != nil {
		cp.Attrs = append([]Attr(nil), n.Attrs...)
	}
	if n.Children != nil {
		cp.Children = make([]*ASTNode, len(n.Children))
		for i, c := range n.Children {
			cp.Children[i] = c.Copy()
		}
	}
	return &cp
}

// Range iterates over the node's children, stopping early if f returns
// false.
func (n *ASTNode) Range(f func(*ASTNode) bool) {
	for _, c := range n.Children {
		if !f(c) {
			return
		}
	}
}

// textContent concatenates the raw text of all descendant Text nodes,
// used when an element's body is plain text (e.g. <let> typed content).
func (n *ASTNode) textContent() string {
	var b strings.Builder
	var walk func(*ASTNode)
	walk = func(node *ASTNode) {
		switch node.Kind {
		case NodeText:
			b.WriteString(node.Text)
		case NodeElement:
			for _, c := range node.Children {
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}
