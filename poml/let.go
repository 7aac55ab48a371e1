package poml

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// handleLet implements the three <let> forms (inline value, typed
// literal, and external src). It always writes through to the compile's
// global context, even when encountered deep inside a for-loop's local
// scope, and emits no IR.
func (c *Compilation) handleLet(n *ASTNode, ctx Context) {
	name, _ := n.AttrString("name")
	typ, hasType := n.AttrString("type")
	if !hasType {
		typ = "auto"
	}

	if src, ok := n.AttrString("src"); ok {
		c.handleLetSrc(n, ctx, src, name, typ)
		return
	}
	if valueExpr, ok := n.AttrString("value"); ok {
		c.handleLetValue(n, ctx, valueExpr, name)
		return
	}
	// <let name=... type=...>{ text/JSON }</let>
	raw := n.textContent()
	c.handleLetTyped(n, ctx, raw, name, typ)
}

func (c *Compilation) handleLetSrc(n *ASTNode, ctx Context, src, name, typ string) {
	data, err := c.loadBuffer(src)
	if err != nil {
		c.AddError(KindRead, "could not read <let src>", n.Span, src, err)
		return
	}
	value, err := parseTypedValue(string(data), typ)
	if err != nil {
		c.AddError(KindRead, "could not parse <let src> contents", n.Span, typ, err)
		return
	}
	c.bindLetResult(n, name, value)
}

func (c *Compilation) handleLetValue(n *ASTNode, ctx Context, valueExpr, name string) {
	if name == "" {
		c.AddError(KindRead, "<let value=...> requires a name attribute", n.Span, "", nil)
		return
	}
	node, err := ParseExpr(valueExpr)
	if err != nil {
		c.AddError(KindRead, "could not parse <let value> expression", n.Span, valueExpr, err)
		return
	}
	v, err := Eval(node, ctx)
	if err != nil {
		c.AddError(KindRead, "could not evaluate <let value> expression", n.Span, valueExpr, err)
		return
	}
	c.globals.SetGlobal(name, v)
}

func (c *Compilation) handleLetTyped(n *ASTNode, ctx Context, raw, name, typ string) {
	value, err := parseTypedValue(raw, typ)
	if err != nil {
		c.AddError(KindRead, "could not parse <let> body", n.Span, typ, err)
		return
	}
	c.bindLetResult(n, name, value)
}

// bindLetResult implements "when name is absent and the value is an
// object, merge into the global context" and otherwise requires a name.
func (c *Compilation) bindLetResult(n *ASTNode, name string, value any) {
	if name == "" {
		obj, ok := value.(map[string]any)
		if !ok {
			c.AddError(KindRead, "<let> with no name must produce an object to merge", n.Span, "", nil)
			return
		}
		c.globals.MergeGlobal(obj)
		return
	}
	c.globals.SetGlobal(name, value)
}

// parseTypedValue decodes raw text per the <let> type vocabulary: string,
// integer, float, boolean, null, array, object, or auto (JSON-sniffed).
func parseTypedValue(raw, typ string) (any, error) {
	switch typ {
	case "string":
		return raw, nil
	case "integer":
		n, err := strconv.ParseInt(trimSpaceASCII(raw), 10, 64)
		return n, err
	case "float":
		f, err := strconv.ParseFloat(trimSpaceASCII(raw), 64)
		return f, err
	case "boolean":
		b, err := strconv.ParseBool(trimSpaceASCII(raw))
		return b, err
	case "null":
		return nil, nil
	case "array":
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil, err
		}
		return arr, nil
	case "object":
		var obj map[string]any
		if err := json.Unmarshal([]byte(raw), &obj); err != nil {
			return nil, err
		}
		return obj, nil
	case "auto":
		return autoParse(raw)
	default:
		return nil, fmt.Errorf("unknown <let type=%q>", typ)
	}
}

// autoParse JSON-sniffs raw, falling back to the literal string when it is
// not valid JSON at all (a bare word like `auto` is legitimately a string).
func autoParse(raw string) (any, error) {
	trimmed := trimSpaceASCII(raw)
	if trimmed == "" {
		return "", nil
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return normalizeJSONNumbers(v), nil
	}
	return raw, nil
}

// normalizeJSONNumbers converts encoding/json's float64-for-everything
// decode into int64 where the value is integral, so expressions comparing
// against `x == 3` behave as users expect.
func normalizeJSONNumbers(v any) any {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return int64(t)
		}
		return t
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeJSONNumbers(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeJSONNumbers(e)
		}
		return out
	default:
		return v
	}
}

func trimSpaceASCII(s string) string {
	start, end := 0, len(s)
	for start < end && isASCIISpace(s[start]) {
		start++
	}
	for end > start && isASCIISpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
