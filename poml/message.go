package poml

import "strings"

// Message is one speaker-attributed unit of rendered output, the shape
// a chat completion API expects.
type Message struct {
	Speaker  Speaker
	Content  []RichContent
	Mappings []MappingNode
}

// RichContent is one part of a Message's content: either literal text
// or a multimedia attachment, never both.
type RichContent struct {
	Text  string
	Media *PositionalContentMultiMedia
}

// BuildMessages groups nodes' top-level elements into Messages by runs
// of consecutive, identically-assigned speakers, dispatching each
// through its own Writer and splitting the result's placeholder stream
// into RichContent parts.
func BuildMessages(nodes []*IRNode, wctx *writeCtx) []Message {
	speakers := AssignSpeakers(nodes)
	var out []Message
	for _, n := range nodes {
		sp := speakers[n]
		res := dispatchForMessage(n, wctx)
		parts := splitRichContent(res)
		if len(out) > 0 && out[len(out)-1].Speaker == sp {
			last := &out[len(out)-1]
			last.Content = append(last.Content, parts...)
			last.Mappings = append(last.Mappings, res.Mappings...)
			continue
		}
		if len(parts) == 0 && len(res.Mappings) == 0 {
			continue
		}
		out = append(out, Message{Speaker: sp, Content: parts, Mappings: res.Mappings})
	}
	return out
}

// dispatchForMessage renders n, wrapping it in a synthetic <env> first
// when n is not itself one (a bare top-level <p> or <text>, say), so
// every top-level node goes through the same writer machinery.
func dispatchForMessage(n *IRNode, wctx *writeCtx) WriteResult {
	if n.Tag == IREnv {
		childCtx := newWriteCtx(wctx.Options, n)
		return DispatchEnv(n, childCtx)
	}
	wrapper := NewIRNode(IREnv)
	wrapper.Children = []*IRNode{n}
	childCtx := newWriteCtx(wctx.Options, wrapper)
	return (&MarkdownWriter{}).Write(wrapper, childCtx)
}

// MessageSourceMap pairs one speaker-run Message with the
// SourceMapSegments covering it and the original-source range those
// segments collectively attribute to it.
type MessageSourceMap struct {
	Message    Message
	Segments   []SourceMapSegment
	InputStart int
	InputEnd   int
}

// writeMessagesWithSourceMap groups nodes into runs of consecutive
// same-speaker nodes like BuildMessages does (unlike BuildMessages, it
// keeps a run whose output is empty), and for each run also builds the combined
// SourceMapSegment list over that run's concatenated output. Because
// AssignSpeakers colors whole top-level nodes rather than sub-node
// ranges, a speaker run never splits a node in two, so "segment belongs
// to the run its [outStart,outEnd] is contained in" reduces to grouping
// each node's own segments with the run its node belongs to — no
// separate containment scan over a single whole-document segment list
// is needed.
func writeMessagesWithSourceMap(nodes []*IRNode, wctx *writeCtx) []MessageSourceMap {
	speakers := AssignSpeakers(nodes)
	var out []MessageSourceMap
	i := 0
	for i < len(nodes) {
		sp := speakers[nodes[i]]
		var combinedOut strings.Builder
		var combinedMappings []MappingNode
		var combinedMedia []PositionalContentMultiMedia
		msg := Message{Speaker: sp}
		j := i
		for j < len(nodes) && speakers[nodes[j]] == sp {
			res := dispatchForMessage(nodes[j], wctx)
			base := combinedOut.Len()
			combinedOut.WriteString(res.Output)
			for _, m := range res.Mappings {
				m.OutStart += base
				m.OutEnd += base
				combinedMappings = append(combinedMappings, m)
			}
			for _, md := range res.Multimedia {
				md.Index += base
				combinedMedia = append(combinedMedia, md)
			}
			msg.Content = append(msg.Content, splitRichContent(res)...)
			msg.Mappings = append(msg.Mappings, res.Mappings...)
			j++
		}
		segs := BuildSourceMapSegments(combinedOut.String(), combinedMappings, combinedMedia)
		start, end := messageInputRange(segs)
		out = append(out, MessageSourceMap{Message: msg, Segments: segs, InputStart: start, InputEnd: end})
		i = j
	}
	return out
}

// messageInputRange spans the InputStart/InputEnd of segs' non-
// whitespace text segments, so padding whitespace around a message's
// real content doesn't inflate its reported source range; it falls
// back to spanning every segment when none are non-whitespace text.
func messageInputRange(segs []SourceMapSegment) (start, end int) {
	var chosen []SourceMapSegment
	for _, s := range segs {
		if s.Media == nil && strings.TrimSpace(s.Content) != "" {
			chosen = append(chosen, s)
		}
	}
	if len(chosen) == 0 {
		chosen = segs
	}
	if len(chosen) == 0 {
		return 0, 0
	}
	start, end = chosen[0].InputStart, chosen[0].InputEnd
	for _, s := range chosen[1:] {
		if s.InputStart < start {
			start = s.InputStart
		}
		if s.InputEnd > end {
			end = s.InputEnd
		}
	}
	return start, end
}

// splitRichContent turns a writer's placeholder-bearing Output into an
// ordered sequence of text and media RichContent parts.
func splitRichContent(res WriteResult) []RichContent {
	if len(res.Multimedia) == 0 {
		if res.Output == "" {
			return nil
		}
		return []RichContent{{Text: res.Output}}
	}
	var out []RichContent
	mediaIdx := 0
	var textBuf []rune
	flush := func() {
		if len(textBuf) > 0 {
			out = append(out, RichContent{Text: string(textBuf)})
			textBuf = nil
		}
	}
	for _, r := range res.Output {
		if r == placeholderRune && mediaIdx < len(res.Multimedia) {
			flush()
			m := res.Multimedia[mediaIdx]
			out = append(out, RichContent{Media: &m})
			mediaIdx++
			continue
		}
		textBuf = append(textBuf, r)
	}
	flush()
	return out
}
