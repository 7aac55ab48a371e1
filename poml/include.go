package poml

import (
	"path/filepath"
)

// handleInclude resolves src relative to the current source path, reads
// the file, parses it with a nested lexer/reader pass sharing the
// current compile's globals, and inlines the result. A <poml> included
// root is unwrapped; any other root is inlined directly.
func (c *Compilation) handleInclude(n *ASTNode, ctx Context) []*IRNode {
	src, ok := n.AttrString("src")
	if !ok {
		c.AddError(KindRead, "<include> requires a src attribute", n.Span, "", nil)
		return nil
	}

	interp := Interpolate(src, ctx, c.Options.Trim, func(expr string, err error) {
		c.AddError(KindRead, "could not evaluate <include src> expression", n.Span, expr, err)
	})
	resolvedSrc := interp.asString

	resolvedPath := resolvedSrc
	if !filepath.IsAbs(resolvedSrc) {
		resolvedPath = filepath.Join(filepath.Dir(c.SourcePath), resolvedSrc)
	}

	data, err := c.loadBuffer(resolvedPath)
	if err != nil {
		c.AddError(KindRead, "could not read <include src>", n.Span, resolvedPath, err)
		return nil
	}

	if c.Cancelled() {
		return nil
	}

	includedSource := string(data)
	parsed := Parse(includedSource)
	restore := c.pushSource(resolvedPath, includedSource)
	defer restore()

	for _, le := range parsed.Errors {
		c.AddError(KindRead, "syntax error in included document", le.Span, "", nilOrErr(le.Message))
	}

	// Unwrap a <poml> root and inline its children; any other root is
	// inlined whole, tag included.
	children := parsed.Root.Children
	if parsed.Root.Tag != "poml" {
		children = []*ASTNode{parsed.Root}
	}
	return c.readChildren(children, ctx)
}

func nilOrErr(msg string) error {
	if msg == "" {
		return nil
	}
	return &simpleError{msg}
}

type simpleError struct{ msg string }

func (e *simpleError) Error() string { return e.msg }
