package poml

// Span is a half-open [Start, End) byte offset range into a source
// document: End is one past the last byte, not the last byte itself. Every AST node, IR element, mapping node, and compile error
// carries one so diagnostics and source maps can be reconstructed precisely.
type Span struct {
	Start int
	End   int
}

// Position is a human-facing line/column location, computed lazily from a
// Span against the source text it was taken from (see positionFromSpan).
// Kept distinct from Span itself so the hot paths of the reader and writers
// only ever carry cheap integer offsets.
type Position struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// positionFromSpan walks input once to translate a byte Span into a
// 1-indexed line/column Position.
func positionFromSpan(input string, span Span) Position {
	line, col := 1, 1
	var pos Position
	for i := 0; i < span.Start && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	pos.StartLine, pos.StartColumn = line, col
	for i := span.Start; i < span.End && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	pos.EndLine, pos.EndColumn = line, col
	return pos
}

// Union returns the smallest span covering both a and b.
func (a Span) Union(b Span) Span {
	s := Span{Start: a.Start, End: a.End}
	if b.Start < s.Start {
		s.Start = b.Start
	}
	if b.End > s.End {
		s.End = b.End
	}
	return s
}

// Len returns the number of bytes the span covers.
func (a Span) Len() int { return a.End - a.Start }

// Contains reports whether sub lies entirely within a.
func (a Span) Contains(sub Span) bool {
	return sub.Start >= a.Start && sub.End <= a.End
}

// Slice returns the substring of input the span denotes, clamped to bounds.
func (a Span) Slice(input string) string {
	start, end := a.Start, a.End
	if start < 0 {
		start = 0
	}
	if end > len(input) {
		end = len(input)
	}
	if start > end {
		return ""
	}
	return input[start:end]
}
