package poml

import "encoding/json"

// JSONWriter renders an <env presentation="serialize"> subtree (with no
// markup-lang/serializer override, or serializer="json") as pretty-
// printed JSON.
type JSONWriter struct{}

func (w *JSONWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	value := childrenToValue(n)
	value = encodeJSONBuffers(value)
	out, err := json.MarshalIndent(value, "", "  ")
	text := ""
	if err == nil {
		text = string(out)
	}
	text = applyEnvLimits(n, text, wctx)
	// A generic marshaler does not expose per-field byte offsets, so the
	// mapping is attached at env granularity, same as the other
	// structured-serialization writers.
	return WriteResult{Output: text, Mappings: []MappingNode{mappingFor(n, wctx, 0, len(text))}}
}
