// Package poml is a Prompt Orchestration Markup Language compiler.
//
// It reads a POML source document into an intermediate representation (IR),
// evaluating templating constructs against a context, and writes the IR into
// one or more target surface syntaxes (Markdown, HTML, CSV/TSV, JSON, YAML,
// XML, free text, or a multimedia message list) while preserving a
// bidirectional source map linking output characters back to input byte
// ranges.
//
// You probably want to start with something like this:
//
//	opts := poml.NewOptions()
//	doc, err := opts.Read(strings.NewReader("<poml><p>Hello</p></poml>"), "inline.poml", nil, nil)
//	if err != nil {
//	    log.Fatalf("read failed: %s", err)
//	}
//	content := doc.Write().Output
package poml

import (
	"context"
	"io"
	"log"
	"os"
)

// Version identifies this compiler release, reported by the CLI's
// --version flag and embedded in trace files.
const Version = "0.9.0"

// Options holds process-wide-safe configuration shared across compiles,
// mirroring the split between a reusable Configuration and a per-parse
// Document that the reader idiom in this codebase is built on.
type Options struct {
	// DefaultCharLimit and DefaultTokenLimit seed truncation when an env
	// node does not declare its own char-limit/token-limit attribute.
	DefaultCharLimit  int
	DefaultTokenLimit int

	// TruncateMarker is inserted at the truncation point. Default
	// " (...truncated)".
	TruncateMarker string

	// BaseHeaderLevel is added to a <h> element's nesting depth to compute
	// the number of '#' characters the Markdown writer emits.
	BaseHeaderLevel int

	// MarkdownTableCollapse disables per-column width padding in pipe
	// tables when true.
	MarkdownTableCollapse bool

	// CSVLineEnding and CSVEmitBOM control CSV/TSV line endings and BOM
	// emission: both default to the conservative choice ("\n", no BOM)
	// and are overridable per caller. The CSV writer emits "\r\n" when
	// CSVLineEnding is "\r\n" and "\n" for any other value.
	CSVLineEnding string
	CSVEmitBOM    bool

	// HTMLIndent controls the HTML writer's pretty-print indentation unit.
	HTMLIndent string

	// Loader resolves a source-relative path to bytes, used for
	// <include>, <let src=...>, and side-file auto-association. Defaults
	// to os.ReadFile.
	Loader func(path string) ([]byte, error)

	// Tokenizer counts tokens for a (text, model) pair used by
	// char/token-limit truncation. Defaults to a byte-count approximator
	// when no real tokenizer is wired in by the caller.
	Tokenizer TokenEncoder

	// DefaultModel names the tokenizer model used when an element does
	// not specify one.
	DefaultModel string

	// Log receives warnings (e.g. <meta minVersion/maxVersion> mismatches)
	// that do not abort the compile. An unknown speaker value is not
	// logged: the speaker assigner ignores it silently.
	Log *log.Logger

	// Disabled holds component names excluded process-wide in addition to
	// whatever a document's own <meta components="..."> directive removes.
	Disabled map[string]bool

	// Trim, when set, drops whitespace-only text immediately surrounding a
	// lone {{ expr }} interpolation, so a template bound to a string value
	// reproduces that value exactly rather than with the document's own
	// indentation attached.
	Trim bool

	// MediaPreprocessor, when set, transforms a <img>/<audio> element's
	// raw src attribute (a path, URL, or already-encoded payload) into
	// the final payload the writer embeds, given the element's tag
	// ("img" or "audio"). It runs inside the goroutine the img/audio
	// components' Async flag spawns, so it may block on real I/O
	// (fetching a URL, decoding a file) without stalling the rest of the
	// compile; it should honor ctx for cancellation. Left nil, src
	// passes through unchanged.
	MediaPreprocessor func(ctx context.Context, tag, src string) (string, error)
}

// NewOptions returns an Options with the same sort of sane defaults the
// teacher's configuration constructor establishes.
func NewOptions() *Options {
	return &Options{
		DefaultCharLimit:  0,
		DefaultTokenLimit: 0,
		TruncateMarker:    " (...truncated)",
		BaseHeaderLevel:   1,
		CSVLineEnding:     "\n",
		CSVEmitBOM:        false,
		HTMLIndent:        "  ",
		Loader:            os.ReadFile,
		Tokenizer:         NewByteCountTokenizer(),
		DefaultModel:      "gpt-4o",
		Log:               log.New(os.Stderr, "poml: ", 0),
		Disabled:          map[string]bool{},
	}
}

// Silent disables all logging of warnings during compilation.
func (o *Options) Silent() *Options {
	o.Log = log.New(io.Discard, "", 0)
	return o
}
