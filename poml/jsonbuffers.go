package poml

import "encoding/base64"

// bufferToken is the sentinel key a JSON value uses to carry a binary
// buffer: {"__buffer__": "<base64>"}. Any decoded JSON object with
// exactly one key named bufferToken is treated as raw bytes rather than
// as structured data by the <obj> value reduction the serializer writers
// use and by side-file context loading.
const bufferToken = "__buffer__"

// decodeJSONBuffers walks a decoded JSON value (as produced by
// encoding/json.Unmarshal into `any`) replacing every {"__buffer__":
// "..."} object with the decoded []byte it names, leaving every other
// shape untouched.
func decodeJSONBuffers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if raw, ok := t[bufferToken].(string); ok {
				if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
					return decoded
				}
			}
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = decodeJSONBuffers(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = decodeJSONBuffers(child)
		}
		return out
	default:
		return v
	}
}

// encodeJSONBuffers is decodeJSONBuffers's inverse, used when a
// serializer writer needs to emit a []byte value found inside an <obj>
// payload back out as a {"__buffer__": "..."} token rather than as a
// JSON array of integers.
func encodeJSONBuffers(v any) any {
	switch t := v.(type) {
	case []byte:
		return map[string]any{bufferToken: base64.StdEncoding.EncodeToString(t)}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = encodeJSONBuffers(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = encodeJSONBuffers(child)
		}
		return out
	default:
		return v
	}
}
