package poml

import "sort"

// SourceMap answers "what original source range produced this output
// byte?" for one writer's result: boundaries are collected from every
// MappingNode's OutStart/OutEnd, and a query selects the tightest
// (smallest-span) mapping covering the queried offset, since nested
// elements produce overlapping, not disjoint, ranges.
type SourceMap struct {
	boundaries []int
	mappings   []MappingNode
}

// BuildSourceMap collects mappings' output-range boundaries and keeps
// the mappings themselves for tightest-match queries.
func BuildSourceMap(mappings []MappingNode) *SourceMap {
	sm := &SourceMap{mappings: append([]MappingNode(nil), mappings...)}
	seen := map[int]bool{}
	for _, m := range mappings {
		if !seen[m.OutStart] {
			seen[m.OutStart] = true
			sm.boundaries = append(sm.boundaries, m.OutStart)
		}
		if !seen[m.OutEnd] {
			seen[m.OutEnd] = true
			sm.boundaries = append(sm.boundaries, m.OutEnd)
		}
	}
	sort.Ints(sm.boundaries)
	return sm
}

// Boundaries returns the sorted, de-duplicated set of output offsets at
// which some mapping begins or ends.
func (sm *SourceMap) Boundaries() []int {
	return append([]int(nil), sm.boundaries...)
}

// OriginalRangeAt returns the original source byte range of the
// tightest mapping whose output range covers outOffset. ok is false
// when outOffset falls outside every mapping, or every mapping covering
// it lacks an original span (synthetic content).
func (sm *SourceMap) OriginalRangeAt(outOffset int) (start, end int, ok bool) {
	bestLen := -1
	for _, m := range sm.mappings {
		if !m.HasOriginal {
			continue
		}
		if outOffset < m.OutStart || outOffset >= m.OutEnd {
			continue
		}
		length := m.OutEnd - m.OutStart
		if bestLen == -1 || length < bestLen {
			bestLen = length
			start, end, ok = m.OriginalStart, m.OriginalEnd, true
		}
	}
	return
}

// IRRangeAt is OriginalRangeAt's IR-tree counterpart, returning the
// tightest mapping's pre-order visit-id range instead of its source span.
func (sm *SourceMap) IRRangeAt(outOffset int) (start, end int, ok bool) {
	bestLen := -1
	for _, m := range sm.mappings {
		if outOffset < m.OutStart || outOffset >= m.OutEnd {
			continue
		}
		length := m.OutEnd - m.OutStart
		if bestLen == -1 || length < bestLen {
			bestLen = length
			start, end, ok = m.IRStart, m.IREnd, true
		}
	}
	return
}

// SourceMapSegment is one maximal output slice with stable source
// attribution. A contiguous run of segments, concatenated in output
// order, reproduces the output in full; OutStart/OutEnd place the
// segment in that output so callers (writeMessagesWithSourceMap, in
// particular) can test containment against a speaker run's range.
type SourceMapSegment struct {
	InputStart int
	InputEnd   int
	IRStart    int
	IREnd      int
	OutStart   int
	OutEnd     int
	Content    string
	Media      *PositionalContentMultiMedia
	Position   MediaPosition
}

// BuildSourceMapSegments slices output into SourceMapSegments:
//  1. collect every mapping's OutStart/OutEnd and every media item's
//     Index/Index+1 as boundary offsets, plus 0 and len(output);
//  2. slice output between each adjacent boundary pair and attribute it
//     to the tightest mapping that fully covers it (falling back to the
//     tightest overlapping mapping if none fully covers it); its original
//     span comes from the tightest fully-covering mapping carrying one;
//  3. a slice that begins a media item's index becomes a media segment,
//     bucketed by that item's Position;
//  4. otherwise it becomes a text segment, unless the slice is empty or
//     holds nothing but the placeholder character alone;
//  5. segments are returned top, then middle ("here"), then bottom.
//
// Offsets throughout (mapping OutStart/OutEnd and media Index alike) are
// byte offsets into output; for documents outside the ASCII range the
// placeholder character's rune-counted Index (set by the writers) can
// diverge from a true byte offset, the same approximation BucketMedia
// already makes.
func BuildSourceMapSegments(output string, mappings []MappingNode, media []PositionalContentMultiMedia) []SourceMapSegment {
	bounds := map[int]bool{0: true, len(output): true}
	for _, m := range mappings {
		if m.OutStart >= 0 && m.OutStart <= len(output) {
			bounds[m.OutStart] = true
		}
		if m.OutEnd >= 0 && m.OutEnd <= len(output) {
			bounds[m.OutEnd] = true
		}
	}
	mediaByIndex := make(map[int]PositionalContentMultiMedia, len(media))
	for _, md := range media {
		mediaByIndex[md.Index] = md
		if md.Index >= 0 && md.Index <= len(output) {
			bounds[md.Index] = true
		}
		if md.Index+1 <= len(output) {
			bounds[md.Index+1] = true
		}
	}
	sorted := make([]int, 0, len(bounds))
	for b := range bounds {
		sorted = append(sorted, b)
	}
	sort.Ints(sorted)

	var top, middle, bottom []SourceMapSegment
	for i := 0; i+1 < len(sorted); i++ {
		start, end := sorted[i], sorted[i+1]
		if start >= end {
			continue
		}
		slice := output[start:end]
		irStart, irEnd, inStart, inEnd := tightestCover(mappings, start, end)

		if md, ok := mediaByIndex[start]; ok {
			seg := SourceMapSegment{
				InputStart: inStart, InputEnd: inEnd,
				IRStart: irStart, IREnd: irEnd,
				OutStart: start, OutEnd: end,
				Media: &md, Position: md.Position,
			}
			switch md.Position {
			case PositionTop:
				top = append(top, seg)
			case PositionBottom:
				bottom = append(bottom, seg)
			default:
				middle = append(middle, seg)
			}
			continue
		}
		if slice == "" || slice == placeholderChar {
			continue
		}
		middle = append(middle, SourceMapSegment{
			InputStart: inStart, InputEnd: inEnd,
			IRStart: irStart, IREnd: irEnd,
			OutStart: start, OutEnd: end,
			Content: slice, Position: PositionHere,
		})
	}
	return append(append(top, middle...), bottom...)
}

// tightestCover picks, among mappings whose output range fully contains
// [start,end), the one with the smallest span, for its IR range; when
// none fully covers the slice it falls back to the smallest mapping
// that merely overlaps it. The original-source span is chosen
// independently, as the smallest fully-covering mapping that carries
// one, with no overlap fallback, since not every mapping carries one.
func tightestCover(mappings []MappingNode, start, end int) (irStart, irEnd, inStart, inEnd int) {
	bestLen := -1
	pick := func(m MappingNode) {
		length := m.OutEnd - m.OutStart
		if bestLen == -1 || length < bestLen {
			bestLen = length
			irStart, irEnd = m.IRStart, m.IREnd
		}
	}
	for _, m := range mappings {
		if start >= m.OutStart && end <= m.OutEnd {
			pick(m)
		}
	}
	if bestLen == -1 {
		for _, m := range mappings {
			if end > m.OutStart && start < m.OutEnd {
				pick(m)
			}
		}
	}
	bestOrigLen := -1
	for _, m := range mappings {
		if !m.HasOriginal || start < m.OutStart || end > m.OutEnd {
			continue
		}
		length := m.OutEnd - m.OutStart
		if bestOrigLen == -1 || length < bestOrigLen {
			bestOrigLen = length
			inStart, inEnd = m.OriginalStart, m.OriginalEnd
		}
	}
	return
}

// BucketMedia groups media by MediaPosition, falling back to a coarse
// top/here/bottom bucketing derived from each item's rune Index within
// a totalRunes-long output when it was not assigned an explicit position
// attribute.
func BucketMedia(media []PositionalContentMultiMedia, totalRunes int) map[MediaPosition][]PositionalContentMultiMedia {
	out := map[MediaPosition][]PositionalContentMultiMedia{}
	for _, m := range media {
		pos := m.Position
		if pos == "" {
			pos = bucketByIndex(m.Index, totalRunes)
		}
		out[pos] = append(out[pos], m)
	}
	return out
}

func bucketByIndex(index, total int) MediaPosition {
	if total <= 0 {
		return PositionHere
	}
	third := total / 3
	switch {
	case index <= third:
		return PositionTop
	case index >= total-third:
		return PositionBottom
	default:
		return PositionHere
	}
}
