package poml

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Document is the result of a successful Read: the normalized IR forest
// (ordinarily a single <poml>-rooted <env> node) together with the
// Compilation used to build it, mirroring the Configuration/Document
// split the package comment describes.
type Document struct {
	IR   []*IRNode
	Comp *Compilation
}

// HasErrors reports whether reading the document recorded any non-fatal
// compile errors.
func (d *Document) HasErrors() bool { return d.Comp.HasErrors() }

// Read parses src against vars and an optional stylesheet, returning the
// resulting Document. Non-fatal problems (a bad expression, an unknown
// component) are recorded on the Document's Compilation rather than
// failing the call; Read only returns a non-nil error when r cannot be
// read or the source has no usable root element at all.
func (o *Options) Read(r io.Reader, sourcePath string, vars map[string]any, sheet Stylesheet) (*Document, error) {
	return o.ReadContext(context.Background(), r, sourcePath, vars, sheet)
}

// ReadContext is Read with an explicit context.Context, polled at the
// points where compilation can suspend (include resolution, in particular).
func (o *Options) ReadContext(ctx context.Context, r io.Reader, sourcePath string, vars map[string]any, sheet Stylesheet) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("poml: %s: %w", sourcePath, err)
	}
	source := string(data)

	parsed := Parse(source)
	if parsed.Root == nil {
		return nil, fmt.Errorf("poml: %s: no document root", sourcePath)
	}

	comp := o.NewCompilation(sourcePath, source, ctx)
	for _, le := range parsed.Errors {
		comp.AddError(KindRead, le.Message, le.Span, "", nil)
	}

	rootCtx := comp.globals
	for k, v := range vars {
		rootCtx.SetGlobal(k, v)
	}
	if sideVars, err := o.LoadSideContext(sourcePath); err == nil {
		for k, v := range sideVars {
			rootCtx.SetGlobal(k, v)
		}
	}

	ir := comp.Read(&ASTNode{Kind: NodeElement, Tag: "#document", Children: []*ASTNode{parsed.Root}}, rootCtx)

	effectiveSheet := sheet
	if effectiveSheet == nil {
		if loaded, err := o.LoadSideStylesheet(sourcePath); err == nil {
			effectiveSheet = loaded
		}
	}
	for _, n := range ir {
		effectiveSheet.Apply(n)
	}

	return &Document{IR: ir, Comp: comp}, nil
}

// rootEnv returns d's single dispatchable root: its first top-level
// <env> node if there is exactly one top-level element and it is an
// <env>, otherwise a synthetic Markdown <env> wrapping everything (the
// shape a bare fragment without a <poml>/<env> root produces).
func (d *Document) rootEnv() *IRNode {
	if len(d.IR) == 1 && d.IR[0].Tag == IREnv {
		return d.IR[0]
	}
	wrapper := NewIRNode(IREnv)
	wrapper.Attrs.Set(AttrPresentation, "markup")
	wrapper.Attrs.Set(AttrMarkupLang, "markdown")
	wrapper.Children = d.IR
	return wrapper
}

// Write renders d through DispatchEnv, honoring whatever presentation/
// markup-lang/serializer attributes its root <env> carries.
func (d *Document) Write() WriteResult {
	root := d.rootEnv()
	wctx := newWriteCtx(d.Comp.Options, root)
	return DispatchEnv(root, wctx)
}

// WriteWith renders d through an explicitly chosen Writer, ignoring the
// root's own presentation attributes — for callers that already know
// which target representation they want, e.g.
// `doc.WriteWith(&poml.MarkdownWriter{})`.
func (d *Document) WriteWith(w Writer) WriteResult {
	root := d.rootEnv()
	wctx := newWriteCtx(d.Comp.Options, root)
	return w.Write(root, wctx)
}

// WriteWithSourceMap is Write plus a ready-built SourceMap over the
// result's mappings, for callers that need to resolve output offsets
// back to original source ranges.
func (d *Document) WriteWithSourceMap() (WriteResult, *SourceMap) {
	res := d.Write()
	return res, BuildSourceMap(res.Mappings)
}

// Messages renders d as chat-style Messages, one per contiguous run of
// same-speaker top-level content.
func (d *Document) Messages() []Message {
	root := d.rootEnv()
	wctx := newWriteCtx(d.Comp.Options, root)
	return BuildMessages(root.Children, wctx)
}

// MessagesWithSourceMap is Messages plus, for each message, the
// SourceMapSegments covering it and the original-source range those
// segments attribute to it — for callers (the preview RPC, in
// particular) that need to resolve a message back to the source range
// that produced it rather than just a flat per-offset query.
func (d *Document) MessagesWithSourceMap() []MessageSourceMap {
	root := d.rootEnv()
	wctx := newWriteCtx(d.Comp.Options, root)
	return writeMessagesWithSourceMap(root.Children, wctx)
}

// WriteErrors writes d's accumulated compile errors to w, one per line.
func (d *Document) WriteErrors(w io.Writer) error {
	return d.Comp.WriteErrors(w)
}

// String renders d with its own dispatch rules and returns the text
// alone, swallowing any compile errors — convenient for quick
// inspection (tests, REPL-style usage), never for production callers
// that need to know whether the compile was clean.
func (d *Document) String() string {
	var b strings.Builder
	b.WriteString(d.Write().Output)
	return b.String()
}
