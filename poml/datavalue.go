package poml

import (
	"encoding/json"
	"strings"
)

// irToValue reduces an IR subtree to a plain Go value (string, []any, or
// map[string]any) for the serializer writers (JSON/YAML/XML)'s "serialize"
// presentation: <obj>/<any> contribute their parsed literal value,
// <table>/<list> become arrays (of row-maps, keyed by header when one
// exists), and anything else collapses to its text content or, when it
// has multiple meaningful children, an array of their values.
func irToValue(n *IRNode) any {
	switch n.Tag {
	case IRText:
		return n.Text
	case IRAny:
		value := childrenToValue(n)
		raw, ok := value.(string)
		if !ok {
			return value
		}
		typ := n.Attrs.GetString("type")
		if typ == "" {
			typ = "string"
		}
		if v, err := parseTypedValue(raw, typ); err == nil {
			return v
		}
		return raw
	case IRObj:
		raw := n.Attrs.GetString("data")
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return decodeJSONBuffers(v)
		}
		return raw
	case IRTable:
		return tableToValue(n)
	case IRList:
		var out []any
		for _, item := range n.Children {
			if item.Tag == IRItem {
				out = append(out, irToValue(item))
			}
		}
		return out
	case IRImg, IRAudio, IRToolRequest, IRToolResponse:
		if m, ok := multimediaFor(n); ok {
			return mediaToValue(m)
		}
		return nil
	default:
		return childrenToValue(n)
	}
}

func childrenToValue(n *IRNode) any {
	var meaningful []*IRNode
	for _, c := range n.Children {
		if c.Tag == IRText && strings.TrimSpace(c.Text) == "" {
			continue
		}
		meaningful = append(meaningful, c)
	}
	switch len(meaningful) {
	case 0:
		return ""
	case 1:
		return irToValue(meaningful[0])
	default:
		allText := true
		for _, c := range meaningful {
			if c.Tag != IRText {
				allText = false
				break
			}
		}
		if allText {
			var b strings.Builder
			for _, c := range meaningful {
				b.WriteString(c.Text)
			}
			return b.String()
		}
		out := make([]any, len(meaningful))
		for i, c := range meaningful {
			out[i] = irToValue(c)
		}
		return out
	}
}

func tableToValue(table *IRNode) []any {
	var header []string
	var rows []*IRNode
	for _, section := range table.Children {
		switch section.Tag {
		case IRThead:
			for _, row := range section.Children {
				if row.Tag == IRTrow {
					header = csvRowCells(row)
				}
			}
		case IRTbody:
			for _, row := range section.Children {
				if row.Tag == IRTrow {
					rows = append(rows, row)
				}
			}
		case IRTrow:
			rows = append(rows, section)
		}
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		cells := csvRowCells(row)
		if header != nil {
			m := map[string]any{}
			for i, h := range header {
				if i < len(cells) {
					m[h] = cells[i]
				}
			}
			out = append(out, m)
			continue
		}
		arr := make([]any, len(cells))
		for i, c := range cells {
			arr[i] = c
		}
		out = append(out, arr)
	}
	return out
}

func mediaToValue(m PositionalContentMultiMedia) any {
	out := map[string]any{"type": m.Type, "position": string(m.Position)}
	if m.Payload.Base64 != "" {
		out["base64"] = m.Payload.Base64
	}
	if m.Payload.Alt != "" {
		out["alt"] = m.Payload.Alt
	}
	if m.Payload.ToolJSON != "" {
		var v any
		if err := json.Unmarshal([]byte(m.Payload.ToolJSON), &v); err == nil {
			out["body"] = v
		} else {
			out["body"] = m.Payload.ToolJSON
		}
	}
	return out
}
