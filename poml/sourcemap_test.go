package poml

import "testing"

func TestBuildSourceMapSegmentsCoversWholeOutput(t *testing.T) {
	output := "Hello\n\nWorld"
	mappings := []MappingNode{
		{HasOriginal: true, OriginalStart: 0, OriginalEnd: 5, IRStart: 0, IREnd: 1, OutStart: 0, OutEnd: 5},
		{HasOriginal: true, OriginalStart: 10, OriginalEnd: 15, IRStart: 1, IREnd: 2, OutStart: 7, OutEnd: 12},
	}
	segs := BuildSourceMapSegments(output, mappings, nil)

	total := 0
	for _, s := range segs {
		total += s.OutEnd - s.OutStart
	}
	if total != len(output) {
		t.Errorf("segment coverage = %d, want %d (len(output))", total, len(output))
	}
}

func TestBuildSourceMapSegmentsMediaBucketOrdering(t *testing.T) {
	output := "a" + placeholderChar + "b" + placeholderChar + "c"
	media := []PositionalContentMultiMedia{
		{Index: 1, Position: PositionBottom},
		{Index: 3, Position: PositionTop},
	}
	segs := BuildSourceMapSegments(output, nil, media)

	var sawTop, sawBottom bool
	topIdx, bottomIdx := -1, -1
	for i, s := range segs {
		if s.Media == nil {
			continue
		}
		switch s.Position {
		case PositionTop:
			sawTop = true
			topIdx = i
		case PositionBottom:
			sawBottom = true
			bottomIdx = i
		}
	}
	if !sawTop || !sawBottom {
		t.Fatalf("expected one top and one bottom media segment, got %+v", segs)
	}
	if topIdx > bottomIdx {
		t.Errorf("top media segment must precede bottom media segment regardless of output order, top=%d bottom=%d", topIdx, bottomIdx)
	}
}

func TestBuildSourceMapSegmentsSkipsBarePlaceholder(t *testing.T) {
	output := placeholderChar
	media := []PositionalContentMultiMedia{{Index: 0, Position: PositionHere}}
	segs := BuildSourceMapSegments(output, nil, media)
	for _, s := range segs {
		if s.Media == nil && s.Content == placeholderChar {
			t.Errorf("a placeholder-only slice with no media entry must be skipped, got %+v", s)
		}
	}
}

func TestSourceMapTightestMatchWins(t *testing.T) {
	// An outer mapping [0,10) wraps a tighter inner mapping [2,4); a query
	// inside the inner range must resolve to the inner (smaller-span)
	// original range, not the outer one.
	mappings := []MappingNode{
		{HasOriginal: true, OriginalStart: 100, OriginalEnd: 110, OutStart: 0, OutEnd: 10},
		{HasOriginal: true, OriginalStart: 200, OriginalEnd: 202, OutStart: 2, OutEnd: 4},
	}
	sm := BuildSourceMap(mappings)

	start, end, ok := sm.OriginalRangeAt(3)
	if !ok {
		t.Fatalf("expected a match at offset 3")
	}
	if start != 200 || end != 202 {
		t.Errorf("tightest mapping should win, got [%d,%d), want [200,202)", start, end)
	}

	start, end, ok = sm.OriginalRangeAt(7)
	if !ok || start != 100 || end != 110 {
		t.Errorf("offset outside the inner range should fall back to the outer mapping, got [%d,%d) ok=%v", start, end, ok)
	}
}

func TestSourceMapOutOfRangeMiss(t *testing.T) {
	sm := BuildSourceMap([]MappingNode{{HasOriginal: true, OriginalStart: 0, OriginalEnd: 5, OutStart: 0, OutEnd: 5}})
	if _, _, ok := sm.OriginalRangeAt(100); ok {
		t.Errorf("offset outside every mapping should not resolve")
	}
}

func TestSourceMapSyntheticNodeHasNoOriginalRange(t *testing.T) {
	sm := BuildSourceMap([]MappingNode{{HasOriginal: false, OutStart: 0, OutEnd: 5}})
	if _, _, ok := sm.OriginalRangeAt(2); ok {
		t.Errorf("a mapping with no original span should never resolve via OriginalRangeAt")
	}
}

func TestBucketMediaExplicitPositionWins(t *testing.T) {
	media := []PositionalContentMultiMedia{
		{Index: 0, Position: PositionBottom},
	}
	buckets := BucketMedia(media, 100)
	if len(buckets[PositionBottom]) != 1 {
		t.Errorf("explicit position must not be overridden by index bucketing")
	}
}

func TestBucketMediaFallsBackToIndexThirds(t *testing.T) {
	media := []PositionalContentMultiMedia{
		{Index: 0},  // top third
		{Index: 50}, // here (middle third)
		{Index: 99}, // bottom third
	}
	buckets := BucketMedia(media, 100)
	if len(buckets[PositionTop]) != 1 || len(buckets[PositionHere]) != 1 || len(buckets[PositionBottom]) != 1 {
		t.Errorf("expected one item per third, got top=%d here=%d bottom=%d",
			len(buckets[PositionTop]), len(buckets[PositionHere]), len(buckets[PositionBottom]))
	}
}
