package poml

import "strings"

// writeCtx carries the state shared across one writer invocation: the
// governing Options (tokenizer, model, limits) and the pre-order
// visit-id range assigned to every IR node, which MappingNode.IRStart/
// IREnd read back from.
type writeCtx struct {
	Options  *Options
	visitIDs map[*IRNode][2]int
}

// newWriteCtx numbers root's subtree pre-order, recording for each node
// the [start, end) range of visit-ids covering it and its descendants.
func newWriteCtx(opts *Options, root *IRNode) *writeCtx {
	wc := &writeCtx{Options: opts, visitIDs: map[*IRNode][2]int{}}
	id := 0
	var assign func(n *IRNode)
	assign = func(n *IRNode) {
		start := id
		id++
		for _, c := range n.Children {
			assign(c)
		}
		wc.visitIDs[n] = [2]int{start, id}
	}
	if root != nil {
		assign(root)
	}
	return wc
}

func (wc *writeCtx) idRange(n *IRNode) (int, int) {
	r, ok := wc.visitIDs[n]
	if !ok {
		return 0, 0
	}
	return r[0], r[1]
}

func (wc *writeCtx) tokenizer() TokenEncoder {
	if wc.Options != nil && wc.Options.Tokenizer != nil {
		return wc.Options.Tokenizer
	}
	return NewByteCountTokenizer()
}

func (wc *writeCtx) model() string {
	if wc.Options != nil {
		return wc.Options.DefaultModel
	}
	return ""
}

// WriteResult is what any Writer produces for one <env> subtree: the
// rendered text, the output-byte-range-to-source mappings gathered while
// rendering, and any multimedia placeholders emitted along the way.
type WriteResult struct {
	Output     string
	Mappings   []MappingNode
	Multimedia []PositionalContentMultiMedia
}

// Writer renders one <env> IR subtree to its target representation.
type Writer interface {
	Write(n *IRNode, wctx *writeCtx) WriteResult
}

// DispatchEnv selects a Writer for an <env> node from its presentation,
// markup-lang, and serializer attributes, and invokes it. Every writer
// entry point funnels through here, including nested <env> elements
// whose own presentation differs from their parent's.
func DispatchEnv(n *IRNode, wctx *writeCtx) WriteResult {
	presentation := n.Attrs.GetString(AttrPresentation)
	switch presentation {
	case "markup":
		switch n.Attrs.GetString(AttrMarkupLang) {
		case "html":
			return (&HTMLWriter{}).Write(n, wctx)
		case "csv":
			return (&CSVWriter{Delimiter: ','}).Write(n, wctx)
		case "tsv":
			return (&CSVWriter{Delimiter: '\t'}).Write(n, wctx)
		default:
			return (&MarkdownWriter{}).Write(n, wctx)
		}
	case "serialize":
		switch n.Attrs.GetString(AttrSerializer) {
		case "yaml":
			return (&YAMLWriter{}).Write(n, wctx)
		case "xml":
			return (&XMLWriter{}).Write(n, wctx)
		default:
			return (&JSONWriter{}).Write(n, wctx)
		}
	case "multimedia":
		return (&MultimediaWriter{}).Write(n, wctx)
	case "free":
		return (&FreeWriter{}).Write(n, wctx)
	default:
		return (&MarkdownWriter{}).Write(n, wctx)
	}
}

// mappingFor builds the MappingNode for n's contribution to [outStart,
// outEnd) of a writer's output buffer, carrying through n's original
// source span when it has one (plain IR elements created by stylesheet
// overrides or synthetic wrapping may not).
func mappingFor(n *IRNode, wctx *writeCtx, outStart, outEnd int) MappingNode {
	irStart, irEnd := wctx.idRange(n)
	m := MappingNode{IRStart: irStart, IREnd: irEnd, OutStart: outStart, OutEnd: outEnd}
	if span, ok := n.OriginalSpan(); ok {
		m.HasOriginal = true
		m.OriginalStart = span.Start
		m.OriginalEnd = span.End
	}
	return m
}

// multimediaFor builds a PositionalContentMultiMedia from an
// img/audio/toolrequest/toolresponse IR node. <img>/<audio> carry their
// payload as a "src" attribute (a path or already-encoded string set by
// renderMedia in components.go); <toolrequest>/<toolresponse> carry
// theirs as their text content, since they have no dedicated attribute.
func multimediaFor(n *IRNode) (PositionalContentMultiMedia, bool) {
	switch n.Tag {
	case IRImg, IRAudio:
		mtype := "image/png"
		if n.Tag == IRAudio {
			mtype = "audio/wav"
		}
		return PositionalContentMultiMedia{
			Type:     mtype,
			Position: mediaPositionOf(n),
			Payload: MediaPayload{
				Base64: n.Attrs.GetString("src"),
				Alt:    n.Attrs.GetString("alt"),
				Width:  n.Attrs.GetInt("width", 0),
				Height: n.Attrs.GetInt("height", 0),
			},
		}, true
	case IRToolRequest, IRToolResponse:
		return PositionalContentMultiMedia{
			Type:     string(n.Tag),
			Position: mediaPositionOf(n),
			Payload:  MediaPayload{ToolJSON: textContentOf(n)},
		}, true
	default:
		return PositionalContentMultiMedia{}, false
	}
}

// textContentOf concatenates n's direct IRText children, used to pull a
// <toolrequest>/<toolresponse> element's JSON body out of its content
// rather than out of an attribute.
func textContentOf(n *IRNode) string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.Tag == IRText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}

func mediaPositionOf(n *IRNode) MediaPosition {
	switch n.Attrs.GetString("position") {
	case "top":
		return PositionTop
	case "bottom":
		return PositionBottom
	default:
		return PositionHere
	}
}
