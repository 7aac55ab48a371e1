package poml

import "strings"

// FreeWriter renders an <env presentation="free"> subtree verbatim:
// every text leaf is concatenated with no Markdown/HTML decoration at
// all. Non-text children (lists, tables, formatting) degrade to their
// plain text content, since "free" promises exactly what it says: no
// structural markup in the output.
type FreeWriter struct {
	mediaDraft []PositionalContentMultiMedia
}

func (w *FreeWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	var b strings.Builder
	var mappings []MappingNode
	w.walk(n, &b, &mappings, wctx)
	text := applyEnvLimits(n, b.String(), wctx)

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

func (w *FreeWriter) walk(n *IRNode, b *strings.Builder, mappings *[]MappingNode, wctx *writeCtx) {
	switch n.Tag {
	case IRText:
		start := b.Len()
		b.WriteString(n.Text)
		*mappings = append(*mappings, mappingFor(n, wctx, start, b.Len()))
	case IRNl:
		b.WriteByte('\n')
	case IRImg, IRAudio, IRToolRequest, IRToolResponse:
		if m, ok := multimediaFor(n); ok {
			start := b.Len()
			b.WriteString(placeholderChar)
			w.mediaDraft = append(w.mediaDraft, m)
			*mappings = append(*mappings, mappingFor(n, wctx, start, b.Len()))
		}
	case IRObj, IRAny:
		start := b.Len()
		b.WriteString(n.Attrs.GetString("data"))
		*mappings = append(*mappings, mappingFor(n, wctx, start, b.Len()))
	default:
		for _, c := range n.Children {
			w.walk(c, b, mappings, wctx)
		}
	}
}
