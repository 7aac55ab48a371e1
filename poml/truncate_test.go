package poml

import "testing"

func TestTruncateTextByteFastPath(t *testing.T) {
	text := "short"
	if got := truncateText(text, 100, false, nil, "", TruncateEnd, " (...truncated)"); got != text {
		t.Errorf("expected no-op for text under the byte limit, got %q", got)
	}
}

func TestTruncateTextEndStartMiddle(t *testing.T) {
	text := "0123456789"
	marker := "#"

	tests := []struct {
		name  string
		mode  TruncateMode
		limit int
		want  string
	}{
		{"end", TruncateEnd, 5, "0123#"},
		{"start", TruncateStart, 5, "#6789"},
		{"middle", TruncateMiddle, 5, "01#89"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateText(text, tt.limit, false, nil, "", tt.mode, marker)
			if got != tt.want {
				t.Errorf("truncateText(%q, %d, %s) = %q, want %q", text, tt.limit, tt.mode, got, tt.want)
			}
			if len(got) > tt.limit {
				t.Errorf("result %q exceeds limit %d", got, tt.limit)
			}
		})
	}
}

func TestTruncateByTokensUsesTokenizer(t *testing.T) {
	tok := NewByteCountTokenizer()
	text := "0123456789012345678901234567890123456789" // 40 bytes -> 10 tokens at ratio 4
	got := truncateText(text, 4, true, tok, "", TruncateEnd, "")
	if got == text {
		t.Fatalf("expected truncation since the source exceeds the token limit")
	}
	n, err := CountTokens(tok, got, "")
	if err != nil {
		t.Fatalf("CountTokens: %v", err)
	}
	if n > 4 {
		t.Errorf("truncated text %q still reports %d tokens, want <= 4", got, n)
	}
}

func TestReduceByPriorityDropsLowestFirst(t *testing.T) {
	items := []prioritized{
		{Text: "aaaaa", Priority: 1, HasPrio: true},
		{Text: "bbbbb", Priority: 2, HasPrio: true},
		{Text: "ccccc", Priority: 3, HasPrio: true},
	}
	out := reduceByPriority(items, 10, false, nil, "")
	if len(out) != 2 {
		t.Fatalf("expected the lowest-priority item dropped, leaving 2, got %d (%v)", len(out), out)
	}
	for _, it := range out {
		if it.Priority == 1 {
			t.Errorf("lowest-priority item should have been dropped: %v", out)
		}
	}
}

func TestReduceByPriorityStopsWhenAllSame(t *testing.T) {
	items := []prioritized{
		{Text: "aaaaa", Priority: 1, HasPrio: true},
		{Text: "bbbbb", Priority: 1, HasPrio: true},
	}
	out := reduceByPriority(items, 1, false, nil, "")
	if len(out) != len(items) {
		t.Errorf("reduction must stop once every remaining item shares the minimum priority, got %d items left", len(out))
	}
}

func TestReduceByPriorityFitsAlready(t *testing.T) {
	items := []prioritized{{Text: "a", Priority: 1, HasPrio: true}}
	out := reduceByPriority(items, 100, false, nil, "")
	if len(out) != 1 {
		t.Errorf("items already within limit must be returned unchanged, got %d", len(out))
	}
}
