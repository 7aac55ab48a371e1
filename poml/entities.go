package poml

import "strings"

// poml-specific numeric-style escapes decoded only during text
// interpolation, never during lexing, so an attribute like
// `if="a #lt; b"` keeps its literal text through the XML layer and is only
// turned into "a < b" once the reader interpolates it.
var pomlEntities = map[string]string{
	"#lt;":     "<",
	"#gt;":     ">",
	"#amp;":    "&",
	"#quot;":   "\"",
	"#apos;":   "'",
	"#hash;":   "#",
	"#lbrace;": "{",
	"#rbrace;": "}",
}

// decodePomlEntities replaces the POML-specific escapes in s. It runs after
// the standard five XML entities have already been resolved by the XML
// lexer itself, and is applied only to text destined for interpolation.
func decodePomlEntities(s string) string {
	if !strings.ContainsRune(s, '#') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '#' {
			matched := false
			for esc, rep := range pomlEntities {
				if strings.HasPrefix(s[i:], esc) {
					b.WriteString(rep)
					i += len(esc)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
