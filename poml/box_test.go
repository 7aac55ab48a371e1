package poml

import "testing"

func TestBoxBuilderSeparators(t *testing.T) {
	wctx := newWriteCtx(nil, nil)
	bb := newBoxBuilder(wctx)
	bb.Append(box{kind: boxInline, text: "hello"})
	bb.Append(box{kind: boxInline, text: "world"})
	bb.Append(box{kind: boxNewline, text: "next line"})
	bb.Append(box{kind: boxBlock, text: "new block"})
	text, _ := bb.Result()
	// Two consecutive inline boxes with no whitespace overlap concatenate
	// directly; the newline box joins with a single "\n"; the following
	// block box forces a blank line before it regardless of the newline
	// box's own separator request, since block is the stronger kind.
	expected := "helloworld\nnext line\n\nnew block"
	if text != expected {
		t.Errorf("got %q, want %q", text, expected)
	}
}

func TestBoxBuilderWhitespaceOnlyInlineDropped(t *testing.T) {
	wctx := newWriteCtx(nil, nil)
	bb := newBoxBuilder(wctx)
	bb.Append(box{kind: boxInline, text: "a"})
	bb.Append(box{kind: boxInline, text: "   "})
	bb.Append(box{kind: boxInline, text: "b"})
	text, _ := bb.Result()
	if text != "ab" {
		t.Errorf("whitespace-only inline box should contribute nothing, got %q", text)
	}
}

func TestBoxBuilderInlineSeamConsolidatesWhitespace(t *testing.T) {
	wctx := newWriteCtx(nil, nil)
	bb := newBoxBuilder(wctx)
	bb.Append(box{kind: boxInline, text: "hello "})
	bb.Append(box{kind: boxInline, text: " world"})
	text, _ := bb.Result()
	if text != "hello world" {
		t.Errorf("overlapping whitespace at an inline seam should collapse to one space, got %q", text)
	}
}

func TestBoxBuilderRecordsMappingsWithNode(t *testing.T) {
	wctx := newWriteCtx(nil, nil)
	bb := newBoxBuilder(wctx)
	n := NewIRNode(IRText)
	n.Text = "hi"
	bb.Append(box{kind: boxInline, text: "hi", node: n})
	_, mappings := bb.Result()
	if len(mappings) != 1 {
		t.Fatalf("expected one mapping for the node-bearing box, got %d", len(mappings))
	}
	if mappings[0].OutStart != 0 || mappings[0].OutEnd != 2 {
		t.Errorf("mapping should cover [0,2), got [%d,%d)", mappings[0].OutStart, mappings[0].OutEnd)
	}
}
