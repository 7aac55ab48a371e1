package poml

import "gopkg.in/yaml.v2"

// YAMLWriter renders an <env presentation="serialize" serializer="yaml">
// subtree using gopkg.in/yaml.v2, the YAML library the rest of this
// retrieval pack reaches for.
type YAMLWriter struct{}

func (w *YAMLWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	value := childrenToValue(n)
	value = yamlSafe(value)
	out, err := yaml.Marshal(value)
	text := ""
	if err == nil {
		text = string(out)
	}
	text = applyEnvLimits(n, text, wctx)
	return WriteResult{Output: text, Mappings: []MappingNode{mappingFor(n, wctx, 0, len(text))}}
}

// yamlSafe converts []byte leaves (decoded "__buffer__" tokens) back to
// {"__buffer__": "<base64>"} maps, since yaml.v2 does not know how to emit raw bytes as
// anything other than a base64-ish !!binary scalar tied to []byte, and
// the rest of the writers treat buffers as the bufferToken map shape.
func yamlSafe(v any) any {
	encoded := encodeJSONBuffers(v)
	return encoded
}
