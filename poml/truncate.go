package poml

import "strings"

// TruncateMode selects where the marker is inserted relative to the
// surviving text.
type TruncateMode string

const (
	TruncateEnd    TruncateMode = "end"
	TruncateStart  TruncateMode = "start"
	TruncateMiddle TruncateMode = "middle"
)

// truncateText shortens text to fit within limit units (bytes, if
// useTokens is false, else tokens as counted by tokenizer/model),
// inserting marker at mode's position. It is a no-op if text already fits.
func truncateText(text string, limit int, useTokens bool, tokenizer TokenEncoder, model string, mode TruncateMode, marker string) string {
	if limit <= 0 {
		return text
	}
	size, fits := fitsWithinLimit(text, limit, useTokens, tokenizer, model)
	if fits {
		return text
	}
	_ = size

	// Byte-count fast path: when not using tokens, truncation operates
	// directly on byte length.
	if !useTokens {
		return truncateBytes(text, limit, mode, marker)
	}
	return truncateByTokens(text, limit, tokenizer, model, mode, marker)
}

// fitsWithinLimit implements the byte-count fast path: when bytes <=
// limit, tokenization is skipped entirely even if useTokens is set.
func fitsWithinLimit(text string, limit int, useTokens bool, tokenizer TokenEncoder, model string) (int, bool) {
	if len(text) <= limit {
		return len(text), true
	}
	if !useTokens {
		return len(text), false
	}
	n, err := CountTokens(tokenizer, text, model)
	if err != nil {
		return len(text), len(text) <= limit
	}
	return n, n <= limit
}

func truncateBytes(text string, limit int, mode TruncateMode, marker string) string {
	if limit <= 0 {
		return marker
	}
	keep := limit - len(marker)
	if keep < 0 {
		keep = 0
	}
	switch mode {
	case TruncateStart:
		if keep >= len(text) {
			return text
		}
		return marker + text[len(text)-keep:]
	case TruncateMiddle:
		if keep >= len(text) {
			return text
		}
		half := keep / 2
		return text[:half] + marker + text[len(text)-(keep-half):]
	default: // TruncateEnd
		if keep >= len(text) {
			return text
		}
		return text[:keep] + marker
	}
}

// truncateByTokens performs a coarse binary search over byte prefixes
// (suffixes for TruncateStart, both ends for TruncateMiddle) until the
// tokenizer reports a count at or under limit, since most token encoders
// are not byte-linear.
func truncateByTokens(text string, limit int, tokenizer TokenEncoder, model string, mode TruncateMode, marker string) string {
	candidate := func(n int) string {
		return truncateBytes(text, n, mode, marker)
	}
	lo, hi := 0, len(text)
	best := marker
	for lo <= hi {
		mid := (lo + hi) / 2
		c := candidate(mid)
		n, err := CountTokens(tokenizer, c, model)
		if err == nil && n <= limit {
			best = c
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// prioritized is anything priority-based reduction can drop. Payload
// carries the caller's own representation of the item (a box, an
// *IRNode, ...) through the reduction unchanged, so callers working in a
// richer type than plain text can recover their original items from the
// surviving subset.
type prioritized struct {
	Text     string
	Priority int
	HasPrio  bool
	Payload  any
}

// reduceByPriority performs priority-based reduction: repeatedly drop the
// subset of items with the globally-minimum priority until the total
// size fits within limit or every remaining item shares the minimum
// priority (so reduction cannot proceed further without dropping
// everything left).
func reduceByPriority(items []prioritized, limit int, useTokens bool, tokenizer TokenEncoder, model string) []prioritized {
	if limit <= 0 {
		return items
	}
	remaining := append([]prioritized(nil), items...)
	for {
		total := totalSize(remaining, useTokens, tokenizer, model)
		if total <= limit {
			return remaining
		}
		minPrio, allSame := minPriority(remaining)
		if allSame {
			return remaining
		}
		next := remaining[:0:0]
		for _, it := range remaining {
			p := 0
			if it.HasPrio {
				p = it.Priority
			}
			if p == minPrio {
				continue
			}
			next = append(next, it)
		}
		if len(next) == len(remaining) {
			return remaining
		}
		remaining = next
	}
}

func totalSize(items []prioritized, useTokens bool, tokenizer TokenEncoder, model string) int {
	var joined strings.Builder
	for _, it := range items {
		joined.WriteString(it.Text)
	}
	if !useTokens {
		return joined.Len()
	}
	n, err := CountTokens(tokenizer, joined.String(), model)
	if err != nil {
		return joined.Len()
	}
	return n
}

func minPriority(items []prioritized) (int, bool) {
	first := true
	min := 0
	allSame := true
	for _, it := range items {
		p := 0
		if it.HasPrio {
			p = it.Priority
		}
		if first {
			min = p
			first = false
			continue
		}
		if p != min {
			allSame = false
		}
		if p < min {
			min = p
		}
	}
	return min, allSame
}
