package poml

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

func mustRead(t *testing.T, src string) *Document {
	t.Helper()
	opts := NewOptions()
	doc, err := opts.Read(strings.NewReader(src), "inline.poml", nil, nil)
	if err != nil {
		t.Fatalf("Read(%q): %v", src, err)
	}
	if doc.HasErrors() {
		var b strings.Builder
		doc.WriteErrors(&b)
		t.Fatalf("Read(%q) recorded compile errors: %s", src, b.String())
	}
	return doc
}

func mustReadWithOptions(t *testing.T, opts *Options, src string) *Document {
	t.Helper()
	doc, err := opts.Read(strings.NewReader(src), "inline.poml", nil, nil)
	if err != nil {
		t.Fatalf("Read(%q): %v", src, err)
	}
	return doc
}

func assertNoDiff(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Errorf("output mismatch:\n%s", diff)
}

func TestWriteMarkdownBoldInline(t *testing.T) {
	doc := mustRead(t, `<poml><p>Hello <b>world</b></p></poml>`)
	got := doc.Write().Output
	assertNoDiff(t, got, "Hello **world**")
}

func TestWriteMarkdownHeaderAndList(t *testing.T) {
	doc := mustRead(t, `<poml><h level="2">Title</h><ul><item>a</item><item>b</item></ul></poml>`)
	got := doc.Write().Output
	assertNoDiff(t, got, "## Title\n\n- a\n- b")
}

func TestWriteMarkdownOrderedList(t *testing.T) {
	doc := mustRead(t, `<poml><ol><item>first</item><item>second</item></ol></poml>`)
	got := doc.Write().Output
	assertNoDiff(t, got, "1. first\n2. second")
}

func TestWriteJSONSerializesList(t *testing.T) {
	doc := mustRead(t, `<poml syntax="json"><list><item>a</item><item>b</item></list></poml>`)
	got := doc.Write().Output
	assertNoDiff(t, got, "[\n  \"a\",\n  \"b\"\n]")

	var roundTrip []string
	if err := json.Unmarshal([]byte(got), &roundTrip); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(roundTrip) != 2 || roundTrip[0] != "a" || roundTrip[1] != "b" {
		t.Errorf("unexpected round-tripped value: %v", roundTrip)
	}
}

func TestWriteCSVFirstTableOnly(t *testing.T) {
	src := `<poml syntax="csv"><table><thead><trow><tcell>Name</tcell><tcell>Age</tcell></trow></thead>` +
		`<tbody><trow><tcell>Ann</tcell><tcell>30</tcell></trow></tbody></table></poml>`
	doc := mustRead(t, src)
	got := doc.Write().Output
	assertNoDiff(t, got, "Name,Age\nAnn,30\n")
}

func TestWriteHTMLWrapsParagraph(t *testing.T) {
	doc := mustRead(t, `<poml syntax="html"><p>Hi</p></poml>`)
	got := doc.Write().Output
	if !strings.Contains(got, "<p>") || !strings.Contains(got, "Hi") {
		t.Errorf("expected an HTML <p> element containing the text, got %q", got)
	}
}

func TestMessagesGroupBySpeaker(t *testing.T) {
	doc := mustRead(t, `<poml><system>Be nice</system><human>Hi</human></poml>`)
	messages := doc.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages for 2 differently-spoken top-level nodes, got %d", len(messages))
	}
	if messages[0].Speaker != SpeakerSystem {
		t.Errorf("first message should default/declare system, got %s", messages[0].Speaker)
	}
	if messages[1].Speaker != SpeakerHuman {
		t.Errorf("second message should be human, got %s", messages[1].Speaker)
	}
	if len(messages[0].Content) != 1 || messages[0].Content[0].Text != "Be nice" {
		t.Errorf("unexpected first message content: %+v", messages[0].Content)
	}
}

func TestMessagesMergesConsecutiveSameSpeaker(t *testing.T) {
	doc := mustRead(t, `<poml><human>Hi</human><human>there</human></poml>`)
	messages := doc.Messages()
	if len(messages) != 1 {
		t.Fatalf("consecutive same-speaker top-level nodes should merge into one message, got %d", len(messages))
	}
	if len(messages[0].Content) != 2 {
		t.Errorf("expected both runs' content parts preserved, got %d parts", len(messages[0].Content))
	}
}

func TestCharLimitTruncatesOutput(t *testing.T) {
	src := `<poml char-limit="20">01234567890123456789012345678901234567890123456789</poml>`
	doc := mustRead(t, src)
	got := doc.Write().Output
	want := "01234" + " (...truncated)"
	assertNoDiff(t, got, want)
}

func TestDocumentWriteWithSourceMapResolvesOffset(t *testing.T) {
	doc := mustRead(t, `<poml><p>hello</p></poml>`)
	res, sm := doc.WriteWithSourceMap()
	if res.Output != "hello" {
		t.Fatalf("unexpected output %q", res.Output)
	}
	start, end, ok := sm.OriginalRangeAt(0)
	if !ok {
		t.Fatalf("expected a source-map hit at offset 0")
	}
	if start >= end {
		t.Errorf("expected a non-empty original range, got [%d,%d)", start, end)
	}
}

func TestMessagesWithSourceMapCoversEachMessage(t *testing.T) {
	doc := mustRead(t, `<poml><system>Be nice</system><human>Hi</human></poml>`)
	msgs := doc.MessagesWithSourceMap()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 speaker-run messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		total := 0
		for _, s := range m.Segments {
			total += s.OutEnd - s.OutStart
		}
		var outputLen int
		for _, c := range m.Message.Content {
			outputLen += len(c.Text)
		}
		if total != outputLen {
			t.Errorf("speaker %q: segment coverage = %d, want %d", m.Message.Speaker, total, outputLen)
		}
		if m.InputStart >= m.InputEnd {
			t.Errorf("speaker %q: expected a non-empty input range, got [%d,%d)", m.Message.Speaker, m.InputStart, m.InputEnd)
		}
	}
	if msgs[0].Message.Speaker != SpeakerSystem || msgs[1].Message.Speaker != SpeakerHuman {
		t.Errorf("unexpected speaker order: %q then %q", msgs[0].Message.Speaker, msgs[1].Message.Speaker)
	}
}

func TestMediaPreprocessorRunsForAsyncImageComponent(t *testing.T) {
	var seenTag, seenSrc string
	opts := NewOptions()
	opts.MediaPreprocessor = func(ctx context.Context, tag, src string) (string, error) {
		seenTag, seenSrc = tag, src
		return "processed:" + src, nil
	}
	doc := mustReadWithOptions(t, opts, `<poml><img src="photo.png" alt="a photo"/></poml>`)
	if doc.HasErrors() {
		var b strings.Builder
		doc.WriteErrors(&b)
		t.Fatalf("unexpected compile errors: %s", b.String())
	}
	if seenTag != "img" || seenSrc != "photo.png" {
		t.Errorf("MediaPreprocessor called with (%q, %q), want (\"img\", \"photo.png\")", seenTag, seenSrc)
	}
	if len(doc.IR) != 1 || len(doc.IR[0].Children) != 1 {
		t.Fatalf("unexpected IR shape: %+v", doc.IR)
	}
	img := doc.IR[0].Children[0]
	if got := img.Attrs.GetString("src"); got != "processed:photo.png" {
		t.Errorf("expected the preprocessed src to reach the IR, got %q", got)
	}
}

func TestMediaPreprocessorErrorBecomesEmptyFragment(t *testing.T) {
	opts := NewOptions().Silent()
	opts.MediaPreprocessor = func(ctx context.Context, tag, src string) (string, error) {
		return "", errors.New("decode failed")
	}
	doc := mustReadWithOptions(t, opts, `<poml><img src="bad.png"/><p>still here</p></poml>`)
	if !doc.HasErrors() {
		t.Fatalf("expected a recorded compile error for the failed preprocessor")
	}
	if len(doc.IR) != 1 || len(doc.IR[0].Children) != 1 {
		t.Fatalf("failed async component should substitute an empty fragment, leaving only the sibling <p>, got %+v", doc.IR)
	}
	if doc.IR[0].Children[0].Tag != IRP {
		t.Errorf("expected the surviving child to be the sibling <p>, got %v", doc.IR[0].Children[0].Tag)
	}
}
