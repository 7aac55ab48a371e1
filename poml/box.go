package poml

import "strings"

// boxKind classifies how a rendered chunk joins with its neighbors in the
// Markdown writer's output stream.
type boxKind int

const (
	boxInline  boxKind = iota // concatenates directly, collapsing overlapping whitespace
	boxNewline                // joined to its neighbor by a single newline
	boxBlock                  // joined to its neighbor by a blank line
)

// box is one rendered unit of Markdown output together with the IR node
// it came from, so the writer can attach a MappingNode once the unit's
// final position in the output buffer is known.
type box struct {
	kind        boxKind
	text        string
	node        *IRNode
	priority    int
	hasPriority bool
}

// boxFor builds a box and picks up its priority from node's "priority"
// attribute, if set, so a container's child boxes carry enough
// information for reduceBoxesByPriority to drop the lowest-priority
// subset without re-inspecting the IR tree.
func boxFor(kind boxKind, text string, node *IRNode) box {
	b := box{kind: kind, text: text, node: node}
	if node != nil && node.Attrs.Has(AttrPriority) {
		b.priority = node.Attrs.GetInt(AttrPriority, 0)
		b.hasPriority = true
	}
	return b
}

// reduceBoxesByPriority drops the lowest-priority subset of boxes,
// repeatedly, until the joined text of the survivors fits within limit
// or every survivor shares the minimum priority — the box-level
// counterpart of reduceByPriority, used by container elements (env list
// items, top-level env children) to drop whole children rather than
// truncating their text mid-word.
func reduceBoxesByPriority(boxes []box, limit int, useTokens bool, tokenizer TokenEncoder, model string) []box {
	if limit <= 0 || len(boxes) == 0 {
		return boxes
	}
	items := make([]prioritized, len(boxes))
	for i, b := range boxes {
		items[i] = prioritized{Text: b.text, Priority: b.priority, HasPrio: b.hasPriority, Payload: b}
	}
	kept := reduceByPriority(items, limit, useTokens, tokenizer, model)
	out := make([]box, len(kept))
	for i, it := range kept {
		out[i] = it.Payload.(box)
	}
	return out
}

func isWhitespaceOnly(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

func maxKind(a, b boxKind) boxKind {
	if a > b {
		return a
	}
	return b
}

// boxBuilder assembles a sequence of boxes into final Markdown text,
// recording a MappingNode per box once it knows where that box landed.
type boxBuilder struct {
	wctx     *writeCtx
	buf      strings.Builder
	mappings []MappingNode
	lastKind boxKind
	hasPrev  bool
}

func newBoxBuilder(wctx *writeCtx) *boxBuilder {
	return &boxBuilder{wctx: wctx}
}

// Append adds b to the buffer. The separator between b and its
// predecessor is the stronger of the two boxes' kinds (a block box
// forces a blank line even if the box before it only asked for a
// newline); at an inline join, overlapping whitespace at the seam is
// consolidated to a single space rather than duplicated. A
// whitespace-only inline box contributes nothing of its own — only
// whatever separator its neighbors require — so it is dropped outright.
func (bb *boxBuilder) Append(b box) {
	text := b.text
	if b.kind == boxInline && isWhitespaceOnly(text) {
		return
	}

	if bb.hasPrev {
		switch maxKind(bb.lastKind, b.kind) {
		case boxBlock:
			bb.trimTrailingWS()
			bb.buf.WriteString("\n\n")
		case boxNewline:
			bb.trimTrailingWS()
			bb.buf.WriteString("\n")
		default:
			text = bb.joinInline(text)
		}
	}

	start := bb.buf.Len()
	bb.buf.WriteString(text)
	if b.node != nil {
		bb.mappings = append(bb.mappings, mappingFor(b.node, bb.wctx, start, bb.buf.Len()))
	}
	bb.lastKind = b.kind
	bb.hasPrev = true
}

// AppendRaw appends a box with no originating IR node (e.g. a synthetic
// heading marker or table rule), so no mapping is recorded for it.
func (bb *boxBuilder) AppendRaw(kind boxKind, text string) {
	bb.Append(box{kind: kind, text: text})
}

func (bb *boxBuilder) trimTrailingWS() {
	s := bb.buf.String()
	trimmed := strings.TrimRight(s, " \t\n")
	if trimmed != s {
		bb.buf.Reset()
		bb.buf.WriteString(trimmed)
	}
}

// joinInline consolidates whitespace at an inline join: when the buffer
// already ends in whitespace and/or the incoming text starts with
// whitespace, the overlap collapses to exactly one space.
func (bb *boxBuilder) joinInline(text string) string {
	s := bb.buf.String()
	endsWS := s != "" && isSpaceByte(s[len(s)-1])
	trimmedText := strings.TrimLeft(text, " \t\n")
	startsWS := trimmedText != text
	if !endsWS && !startsWS {
		return text
	}
	bb.trimTrailingWS()
	bb.buf.WriteString(" ")
	return trimmedText
}

// Result returns the built text and the mappings collected while
// building it, in append order (callers needing OutStart/OutEnd order
// should rely on the fact that building is strictly left-to-right).
func (bb *boxBuilder) Result() (string, []MappingNode) {
	return bb.buf.String(), bb.mappings
}
