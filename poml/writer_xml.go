package poml

import (
	"strings"

	mxj "github.com/clbanning/mxj/v2"
)

// XMLWriter renders an <env presentation="serialize" serializer="xml">
// subtree via github.com/clbanning/mxj/v2, wrapping the reduced value
// under a single root element (XML requires exactly one) named by the
// env's root attribute, defaulting to "poml".
type XMLWriter struct{}

func (w *XMLWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	rootName := n.Attrs.GetString("root")
	if rootName == "" {
		rootName = "poml"
	}
	value := sanitizeXMLKeys(childrenToValue(n))
	m := mxj.Map(map[string]any{slugifyTag(rootName): value})
	out, err := m.XmlIndent("", "  ")
	text := ""
	if err == nil {
		text = string(out)
	}
	text = applyEnvLimits(n, text, wctx)
	return WriteResult{Output: text, Mappings: []MappingNode{mappingFor(n, wctx, 0, len(text))}}
}

// sanitizeXMLKeys slugifies every map key to a valid XML element name,
// recursively.
func sanitizeXMLKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[slugifyTag(k)] = sanitizeXMLKeys(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = sanitizeXMLKeys(child)
		}
		return out
	default:
		return v
	}
}

// slugifyTag turns an arbitrary string into a legal XML element name:
// letters, digits, '-', '_', '.' only, never starting with a digit.
func slugifyTag(s string) string {
	if s == "" {
		return "_"
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9', r == '-', r == '.':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
