package poml

import (
	"encoding/json"
	"strings"
)

// ToolDefinition is one entry of a <meta type="tool"> block: an
// OpenAPI-function-calling-shaped tool the compiled prompt advertises.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON-schema-shaped
}

// MetaState accumulates compile-time state produced by <meta> blocks:
// version constraints (warned, never fatal), the response schema, tool
// definitions, and runtime parameters.
type MetaState struct {
	ResponseSchema map[string]any
	Tools          []ToolDefinition
	Runtime        map[string]any
}

func newMetaState() *MetaState {
	return &MetaState{Runtime: map[string]any{}}
}

// handleMeta parses a <meta> element for version constraints, component
// enable/disable, response schema, tool definitions, or runtime
// parameters. It emits no IR and mutates compile-time state only.
func (c *Compilation) handleMeta(n *ASTNode, ctx Context) {
	if minV, ok := n.AttrString("minVersion"); ok {
		if compareVersions(Version, minV) < 0 {
			c.Options.Log.Printf("%s: document requires minVersion %s, compiler is %s", c.SourcePath, minV, Version)
		}
	}
	if maxV, ok := n.AttrString("maxVersion"); ok {
		if compareVersions(Version, maxV) > 0 {
			c.Options.Log.Printf("%s: document requires maxVersion %s, compiler is %s", c.SourcePath, maxV, Version)
		}
	}
	if comps, ok := n.AttrString("components"); ok {
		c.applyComponentDirectives(comps)
	}

	metaType, _ := n.AttrString("type")
	switch metaType {
	case "responseSchema":
		c.parseResponseSchema(n)
	case "tool":
		c.parseToolMeta(n)
	case "runtime":
		c.parseRuntimeMeta(n, ctx)
	}
}

// applyComponentDirectives parses `components="-TagA +TagB"` into the
// compile's disabled set: a leading '-' disables, '+' re-enables.
func (c *Compilation) applyComponentDirectives(directives string) {
	for _, field := range strings.Fields(directives) {
		if field == "" {
			continue
		}
		sign := field[0]
		name := field
		switch sign {
		case '-':
			name = field[1:]
			c.disabled[canonicalizeName(name)] = true
		case '+':
			name = field[1:]
			delete(c.disabled, canonicalizeName(name))
		default:
			c.disabled[canonicalizeName(name)] = true
		}
	}
}

func (c *Compilation) parseResponseSchema(n *ASTNode) {
	raw := n.textContent()
	if strings.TrimSpace(raw) == "" {
		return
	}
	var schema map[string]any
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		c.AddError(KindRead, "could not parse responseSchema meta block", n.Span, "", err)
		return
	}
	c.meta.ResponseSchema = schema
}

func (c *Compilation) parseToolMeta(n *ASTNode) {
	raw := n.textContent()
	if strings.TrimSpace(raw) == "" {
		return
	}
	var def struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		c.AddError(KindRead, "could not parse tool meta block", n.Span, "", err)
		return
	}
	if name, ok := n.AttrString("name"); ok {
		def.Name = name
	}
	c.meta.Tools = append(c.meta.Tools, ToolDefinition{Name: def.Name, Description: def.Description, Parameters: def.Parameters})
}

func (c *Compilation) parseRuntimeMeta(n *ASTNode, ctx Context) {
	for _, a := range n.Attrs {
		if canonicalizeName(a.Name) == canonicalizeName("type") {
			continue
		}
		result := Interpolate(a.Value, ctx, c.Options.Trim, func(expr string, err error) {
			c.AddError(KindRead, "could not evaluate runtime meta attribute", n.Span, a.Name, err)
		})
		if result.isString {
			c.meta.Runtime[a.Name] = result.asString
		} else {
			c.meta.Runtime[a.Name] = result.asPieces
		}
	}
}

// compareVersions does a lightweight dotted-integer comparison ("1.2.0" vs
// "1.10.0"); a non-numeric segment counts as 0 so malformed version
// strings degrade to an ordinary comparison rather than a panic.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av = atoiSafe(as[i])
		}
		if i < len(bs) {
			bv = atoiSafe(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
