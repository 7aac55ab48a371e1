package poml

// IRTag enumerates the closed vocabulary of intermediate-representation
// elements. This stays a tagged variant (a single struct keyed by Tag)
// rather than a type per element, since the vocabulary is closed and most
// elements share the same attribute bag shape; only `env` and `text`
// carry meaningfully different payloads.
type IRTag string

const (
	IREnv          IRTag = "env"
	IRP            IRTag = "p"
	IRH            IRTag = "h"
	IRSpanTag      IRTag = "span"
	IRNl           IRTag = "nl"
	IRB            IRTag = "b"
	IRI            IRTag = "i"
	IRS            IRTag = "s"
	IRU            IRTag = "u"
	IRCode         IRTag = "code"
	IRList         IRTag = "list"
	IRItem         IRTag = "item"
	IRTable        IRTag = "table"
	IRThead        IRTag = "thead"
	IRTbody        IRTag = "tbody"
	IRTrow         IRTag = "trow"
	IRTcell        IRTag = "tcell"
	IRAny          IRTag = "any"
	IRObj          IRTag = "obj"
	IRImg          IRTag = "img"
	IRAudio        IRTag = "audio"
	IRToolRequest  IRTag = "toolrequest"
	IRToolResponse IRTag = "toolresponse"
	IRText         IRTag = "text"
)

// Well-known IR attribute names.
const (
	AttrOriginalStart = "original-start-index"
	AttrOriginalEnd   = "original-end-index"
	AttrPresentation  = "presentation"
	AttrMarkupLang    = "markup-lang"
	AttrSerializer    = "serializer"
	AttrSpeaker       = "speaker"
	AttrClass         = "class"
	AttrPriority      = "priority"
	AttrCharLimit     = "char-limit"
	AttrTokenLimit    = "token-limit"
	AttrWhitespace    = "whitespace"
)

// AttrMap is an ordered name->value map preserving declaration order,
// used by IR elements (the AST keeps its attributes as an []Attr).
type AttrMap struct {
	keys []string
	vals map[string]any
}

// NewAttrMap returns an empty, ready-to-use attribute map.
func NewAttrMap() *AttrMap {
	return &AttrMap{vals: map[string]any{}}
}

// Set assigns name to value, appending name to the key order the first
// time it is seen.
func (m *AttrMap) Set(name string, value any) {
	if _, ok := m.vals[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.vals[name] = value
}

// SetIfAbsent assigns name only if it is not already set, used by the
// stylesheet applier's "element wins" override rule.
func (m *AttrMap) SetIfAbsent(name string, value any) {
	if _, ok := m.vals[name]; ok {
		return
	}
	m.Set(name, value)
}

func (m *AttrMap) Get(name string) (any, bool) {
	v, ok := m.vals[name]
	return v, ok
}

func (m *AttrMap) GetString(name string) string {
	v, ok := m.vals[name]
	if !ok {
		return ""
	}
	return toStr(v)
}

func (m *AttrMap) GetInt(name string, def int) int {
	v, ok := m.vals[name]
	if !ok {
		return def
	}
	f, ok := toNumber(v)
	if !ok {
		return def
	}
	return int(f)
}

func (m *AttrMap) Has(name string) bool {
	_, ok := m.vals[name]
	return ok
}

func (m *AttrMap) Delete(name string) {
	if _, ok := m.vals[name]; !ok {
		return
	}
	delete(m.vals, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the attribute names in declaration order.
func (m *AttrMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Clone returns a shallow copy with an independent key order slice.
func (m *AttrMap) Clone() *AttrMap {
	cp := NewAttrMap()
	for _, k := range m.keys {
		cp.Set(k, m.vals[k])
	}
	return cp
}

// ClassList splits the whitespace-separated "class" attribute, used by the
// stylesheet applier's `.class` selector matching.
func (m *AttrMap) ClassList() []string {
	raw := m.GetString(AttrClass)
	return splitFields(raw)
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' && s[i] != '\t' && s[i] != '\n' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}

// IRNode is one node of the normalized IR tree, carrying source
// back-references in its Attrs (AttrOriginalStart/AttrOriginalEnd).
type IRNode struct {
	Tag      IRTag
	Attrs    *AttrMap
	Children []*IRNode
	// Text holds the literal text for IRText leaves.
	Text string
}

// NewIRNode builds an IR element with a fresh, empty attribute map.
func NewIRNode(tag IRTag) *IRNode {
	return &IRNode{Tag: tag, Attrs: NewAttrMap()}
}

// NewIRText builds a text leaf, tagging it with the source span it came
// from so the speaker assigner and source map builder can attribute it.
func NewIRText(text string, span Span) *IRNode {
	n := NewIRNode(IRText)
	n.Text = text
	n.Attrs.Set(AttrOriginalStart, span.Start)
	n.Attrs.Set(AttrOriginalEnd, span.End)
	return n
}

// OriginalSpan reads back the original-start-index/original-end-index
// attributes as a Span, or the zero Span if absent.
func (n *IRNode) OriginalSpan() (Span, bool) {
	startV, ok1 := n.Attrs.Get(AttrOriginalStart)
	endV, ok2 := n.Attrs.Get(AttrOriginalEnd)
	if !ok1 || !ok2 {
		return Span{}, false
	}
	start, _ := toNumber(startV)
	end, _ := toNumber(endV)
	return Span{Start: int(start), End: int(end)}, true
}

// Walk visits n and every descendant depth-first, pre-order.
func (n *IRNode) Walk(f func(*IRNode)) {
	if n == nil {
		return
	}
	f(n)
	for _, c := range n.Children {
		c.Walk(f)
	}
}

// Clone deep-copies the IR subtree.
func (n *IRNode) Clone() *IRNode {
	if n == nil {
		return nil
	}
	cp := &IRNode{Tag: n.Tag, Text: n.Text, Attrs: n.Attrs.Clone()}
	for _, c := range n.Children {
		cp.Children = append(cp.Children, c.Clone())
	}
	return cp
}
