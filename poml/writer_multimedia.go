package poml

import "strings"

// MultimediaWriter renders an <env presentation="multimedia"> subtree as
// a placeholder-character stream: every img/audio/toolrequest/
// toolresponse leaf becomes one placeholderRune, text leaves pass
// through verbatim, and the returned Multimedia list lets a caller (the
// message builder in message.go) splice the real payload back in at
// each placeholder's rune index.
type MultimediaWriter struct{}

func (w *MultimediaWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	var b strings.Builder
	var mappings []MappingNode
	var draft []PositionalContentMultiMedia
	walkMultimedia(n, &b, &mappings, &draft, wctx)
	text := applyEnvLimits(n, b.String(), wctx)

	media := make([]PositionalContentMultiMedia, 0, len(draft))
	runeIdx := 0
	draftIdx := 0
	for _, r := range text {
		if r == placeholderRune && draftIdx < len(draft) {
			out := draft[draftIdx]
			out.Index = runeIdx
			media = append(media, out)
			draftIdx++
		}
		runeIdx++
	}
	return WriteResult{Output: text, Mappings: mappings, Multimedia: media}
}

func walkMultimedia(n *IRNode, b *strings.Builder, mappings *[]MappingNode, draft *[]PositionalContentMultiMedia, wctx *writeCtx) {
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
			*draft = append(*draft, m)
			*mappings = append(*mappings, mappingFor(n, wctx, start, b.Len()))
		}
	default:
		for _, c := range n.Children {
			walkMultimedia(c, b, mappings, draft, wctx)
		}
	}
}
