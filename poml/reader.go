package poml

import "strings"

// Read walks root's children and produces the IR forest, applying the
// for/if/component dispatch ordering rules. It is the reader's public
// entry point, called once per compile; an <include> reads its included
// children through readChildren, with a pushed source.
func (c *Compilation) Read(root *ASTNode, ctx Context) []*IRNode {
	if c.Cancelled() {
		return nil
	}
	return c.readChildren(root.Children, ctx)
}

func (c *Compilation) readChildren(nodes []*ASTNode, ctx Context) []*IRNode {
	var out []*IRNode
	for _, n := range nodes {
		if c.Cancelled() {
			break
		}
		out = append(out, c.readNode(n, ctx)...)
	}
	return out
}

func (c *Compilation) readNode(n *ASTNode, ctx Context) []*IRNode {
	switch n.Kind {
	case NodeComment:
		return nil
	case NodeText:
		return c.readText(n, ctx)
	case NodeElement:
		return c.readElement(n, ctx)
	default:
		return nil
	}
}

func (c *Compilation) readText(n *ASTNode, ctx Context) []*IRNode {
	result := Interpolate(n.Text, ctx, c.Options.Trim, func(expr string, err error) {
		c.AddError(KindRead, "expression evaluation failed", n.Span, expr, err)
		c.Trace[n.Span] = TraceEntry{Expression: expr, Err: err}
	})
	var text string
	if result.isString {
		text = result.asString
	} else {
		var b strings.Builder
		for _, v := range result.asPieces {
			b.WriteString(toStr(v))
		}
		text = b.String()
	}
	if text == "" {
		return nil
	}
	return []*IRNode{NewIRText(text, n.Span)}
}

// readElement dispatches the special-cased tags (<let>, <meta>,
// <include>) before falling through to the for/if/generic-component path.
func (c *Compilation) readElement(n *ASTNode, ctx Context) (out []*IRNode) {
	defer func() {
		if r := recover(); r != nil {
			c.AddError(KindSystem, "panic while reading element", n.Span, n.OriginalTag, panicToErr(r))
			out = nil
		}
	}()

	switch n.Tag {
	case "let":
		c.handleLet(n, ctx)
		return nil
	case "meta":
		c.handleMeta(n, ctx)
		return nil
	case "include":
		return c.handleInclude(n, ctx)
	}

	if forExpr, ok := n.AttrString("for"); ok {
		return c.readForLoop(n, ctx, forExpr)
	}
	return c.readElementOnce(n, ctx)
}

// readForLoop implements `for="itemName in listExpr"`: evaluate listExpr
// once, then recurse over the element's full body (if/generic dispatch)
// once per item, each in a fresh child scope carrying itemName and the
// synthetic `loop` binding.
func (c *Compilation) readForLoop(n *ASTNode, ctx Context, forExpr string) []*IRNode {
	itemName, listExpr, ok := splitForExpr(forExpr)
	if !ok {
		c.AddError(KindRead, `malformed for attribute, expected "item in expr"`, n.Span, forExpr, nil)
		return nil
	}
	node, err := ParseExpr(listExpr)
	if err != nil {
		c.AddError(KindRead, "could not parse for-loop expression", n.Span, listExpr, err)
		return nil
	}
	val, err := Eval(node, ctx)
	if err != nil {
		c.AddError(KindRead, "could not evaluate for-loop expression", n.Span, listExpr, err)
		return nil
	}
	list, err := asArray(val)
	if err != nil {
		c.AddError(KindRead, "for-loop expression did not produce an iterable", n.Span, listExpr, err)
		return nil
	}

	withoutFor := n.Copy()
	withoutFor.Attrs = removeAttr(withoutFor.Attrs, "for")

	var out []*IRNode
	for idx, item := range list {
		if c.Cancelled() {
			break
		}
		loopCtx := ctx.Child()
		loopCtx.Set(itemName, item)
		loopCtx.Set("loop", LoopBinding{Index: idx, Length: len(list), First: idx == 0, Last: idx == len(list)-1})
		out = append(out, c.readElementOnce(withoutFor, loopCtx)...)
	}
	return out
}

// readElementOnce applies the `if` guard and, if it passes, dispatches to
// the component registry.
func (c *Compilation) readElementOnce(n *ASTNode, ctx Context) []*IRNode {
	if ifExpr, ok := n.AttrString("if"); ok {
		node, err := ParseExpr(ifExpr)
		if err != nil {
			c.AddError(KindRead, "could not parse if expression", n.Span, ifExpr, err)
			return nil
		}
		v, err := Eval(node, ctx)
		if err != nil {
			c.AddError(KindRead, "could not evaluate if expression", n.Span, ifExpr, err)
			return nil
		}
		if !truthy(v) {
			return nil
		}
	}

	comp, err := findByAlias(n.Tag, c.disabled)
	if err != nil {
		c.AddError(KindRead, "could not resolve component", n.Span, n.OriginalTag, err)
		return nil // unresolved component: substitute an empty fragment
	}

	attrs := c.interpolateAttrs(n, ctx)
	children := c.readChildren(n.Children, ctx)

	rc := &RenderContext{Node: n, Attrs: attrs, Children: children, Comp: c, Ctx: ctx}
	renderFn := comp.Render
	if comp.Async {
		renderFn = c.renderAsync(comp.Render)
	}
	ir, err := renderFn(rc)
	if err != nil {
		c.AddError(KindRead, "component render failed", n.Span, n.OriginalTag, err)
		return nil
	}
	if ir == nil {
		return nil
	}
	ir.Attrs.Set(AttrOriginalStart, n.Span.Start)
	ir.Attrs.Set(AttrOriginalEnd, n.Span.End)
	return []*IRNode{ir}
}

// renderAsync wraps render as a suspension point: it spawns render on
// its own goroutine and awaits the result, honoring the compile's
// cancellation token the same way include resolution does. This is the
// reader's task-spawn/await boundary for asynchronous component
// renderers (image/audio decoding, in particular) — first-error-wins,
// since the caller substitutes an empty fragment and records whatever
// error comes back, exactly as it would for a synchronous render
// failure.
func (c *Compilation) renderAsync(render RenderFunc) RenderFunc {
	return func(rc *RenderContext) (*IRNode, error) {
		type result struct {
			ir  *IRNode
			err error
		}
		done := make(chan result, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- result{err: panicToErr(r)}
				}
			}()
			ir, err := render(rc)
			done <- result{ir: ir, err: err}
		}()
		select {
		case <-c.ctx.Done():
			return nil, c.ctx.Err()
		case res := <-done:
			return res.ir, res.err
		}
	}
}

// interpolateAttrs resolves every attribute's {{ expr }} runs, skipping the
// structural for/if control attributes, and keeps a pure-single-expression
// value native rather than stringifying it.
func (c *Compilation) interpolateAttrs(n *ASTNode, ctx Context) map[string]any {
	out := map[string]any{}
	for _, a := range n.Attrs {
		canon := canonicalizeName(a.Name)
		if canon == "for" || canon == "if" {
			continue
		}
		if expr, ok := isSinglePureExpression(a.Value); ok {
			node, err := ParseExpr(expr)
			if err != nil {
				c.AddError(KindRead, "could not parse attribute expression", a.ValueSpan, a.Name, err)
				continue
			}
			v, err := Eval(node, ctx)
			if err != nil {
				c.AddError(KindRead, "could not evaluate attribute expression", a.ValueSpan, a.Name, err)
				continue
			}
			out[a.Name] = v
			continue
		}
		result := Interpolate(a.Value, ctx, c.Options.Trim, func(expr string, err error) {
			c.AddError(KindRead, "could not evaluate attribute expression", a.ValueSpan, a.Name, err)
		})
		if result.isString {
			out[a.Name] = result.asString
		} else {
			out[a.Name] = result.asPieces
		}
	}
	return out
}

func splitForExpr(s string) (item, list string, ok bool) {
	idx := strings.Index(s, " in ")
	if idx < 0 {
		return "", "", false
	}
	item = strings.TrimSpace(s[:idx])
	list = strings.TrimSpace(s[idx+4:])
	if item == "" || list == "" {
		return "", "", false
	}
	return item, list, true
}

func removeAttr(attrs []Attr, name string) []Attr {
	out := make([]Attr, 0, len(attrs))
	for _, a := range attrs {
		if canonicalizeName(a.Name) == canonicalizeName(name) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func panicToErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &simpleError{msg: toStr(r)}
}
