package poml

import (
	"strings"
)

// interpPiece is either a literal string run or an evaluated expression
// result, the building block for the "collapse to a single string unless
// a piece is non-scalar" rule.
type interpPiece struct {
	literal string
	isExpr  bool
	value   any
}

// findExpressions scans s for non-greedy {{ expr }} runs that are not
// immediately followed by another '}' (so "{{{{ x }}}}"-style macro-looking
// text does not get misparsed), returning the literal/expression pieces in
// order.
func findExpressions(s string) []interpPiece {
	var pieces []interpPiece
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], "{{")
		if start < 0 {
			pieces = append(pieces, interpPiece{literal: s[i:]})
			break
		}
		start += i
		if start > i {
			pieces = append(pieces, interpPiece{literal: s[i:start]})
		}
		end := strings.Index(s[start+2:], "}}")
		if end < 0 {
			pieces = append(pieces, interpPiece{literal: s[start:]})
			break
		}
		end += start + 2
		// non-greedy + "not followed by }": if the byte right after the
		// closing "}}" is itself '}', extend the search for the *next*
		// "}}" so "{{ x }}}" doesn't truncate one brace early.
		for end+2 < len(s) && s[end+2] == '}' {
			next := strings.Index(s[end+2:], "}}")
			if next < 0 {
				break
			}
			end = end + 2 + next
		}
		expr := s[start+2 : end]
		pieces = append(pieces, interpPiece{literal: expr, isExpr: true})
		i = end + 2
	}
	return pieces
}

// interpolationResult is what Interpolate returns: either a fully-collapsed
// string (every piece was scalar) or the raw []any piece list preserved for
// components whose parameters accept native values.
type interpolationResult struct {
	asString string
	asPieces []any
	isString bool
}

// Interpolate evaluates every {{ expr }} run in s against ctx. Errors are
// reported via report (typically c.AddError) and the offending expression
// renders as an empty string so the rest of the compile can proceed. When
// trim is set and s is a single expression run with nothing but
// whitespace before and/or after it, that surrounding whitespace is
// dropped so a template bound to a string S round-trips to exactly S
// instead of carrying the document's own indentation along with it.
func Interpolate(s string, ctx Context, trim bool, report func(expr string, err error)) interpolationResult {
	pieces := findExpressions(s)
	if len(pieces) == 1 && !pieces[0].isExpr {
		return interpolationResult{asString: decodePomlEntities(pieces[0].literal), isString: true}
	}
	if trim {
		pieces = trimSoleExpressionPadding(pieces)
	}

	var values []any
	allScalar := true
	for _, p := range pieces {
		if !p.isExpr {
			if p.literal == "" {
				continue
			}
			values = append(values, decodePomlEntities(p.literal))
			continue
		}
		node, err := ParseExpr(p.literal)
		if err != nil {
			if report != nil {
				report(p.literal, err)
			}
			values = append(values, "")
			continue
		}
		v, err := Eval(node, ctx)
		if err != nil {
			if report != nil {
				report(p.literal, err)
			}
			values = append(values, "")
			continue
		}
		values = append(values, v)
		if !isScalar(v) {
			allScalar = false
		}
	}

	if allScalar {
		var b strings.Builder
		for _, v := range values {
			b.WriteString(toStr(v))
		}
		return interpolationResult{asString: b.String(), isString: true}
	}
	return interpolationResult{asPieces: values}
}

// trimSoleExpressionPadding trims whitespace-only literal pieces that
// immediately precede or follow the single expression piece in a
// [literal?, expr, literal?] sequence, the shape a template like
// "\n  {{x}}\n" parses into. Sequences with more than one expression, or
// with non-whitespace literal padding, are left untouched: trim only
// removes incidental document formatting around a single bound value,
// never content a document author wrote deliberately.
func trimSoleExpressionPadding(pieces []interpPiece) []interpPiece {
	exprCount := 0
	for _, p := range pieces {
		if p.isExpr {
			exprCount++
		}
	}
	if exprCount != 1 {
		return pieces
	}
	out := make([]interpPiece, 0, len(pieces))
	for _, p := range pieces {
		if !p.isExpr && strings.TrimSpace(p.literal) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, int64, int, float64, bool, nil:
		return true
	default:
		return false
	}
}

// isSinglePureExpression reports whether s is exactly one `{{ expr }}` run
// with no surrounding literal text, in which case its native (non-string)
// evaluated value should be preserved rather than stringified: if the
// attribute is purely one expression, its value is kept as a native
// object.
func isSinglePureExpression(s string) (string, bool) {
	trimmed := s
	if !strings.HasPrefix(trimmed, "{{") || !strings.HasSuffix(trimmed, "}}") {
		return "", false
	}
	pieces := findExpressions(s)
	if len(pieces) == 1 && pieces[0].isExpr {
		return pieces[0].literal, true
	}
	return "", false
}
