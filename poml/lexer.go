package poml

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// rawTextTags are elements whose body is preserved verbatim instead of
// being parsed as markup, grounded on the raw-tag CDATA-soup handling in
// arturoeanton-go-xml's xml.sanitizeSoup: their content is wrapped in a
// CDATA section before the XML decoder ever sees it, so stray '<'/'&' in
// code samples cannot break the surrounding parse.
var rawTextTags = []string{"code", "script", "style", "pre"}

var rawTagPattern = func() []*regexp.Regexp {
	pats := make([]*regexp.Regexp, len(rawTextTags))
	for i, tag := range rawTextTags {
		pats[i] = regexp.MustCompile(fmt.Sprintf(`(?is)(<%s(?:\s[^>]*)?>)(.*?)(</%s\s*>)`, tag, tag))
	}
	return pats
}()

// sanitizeRawTagBodies CDATA-wraps the bodies of rawTextTags elements,
// splitting any embedded "]]>" the same way sanitizeSoup does, so the raw
// body byte length is preserved as closely as possible (CDATA markers add a
// fixed overhead that the synthetic-offset bookkeeping below accounts for
// by re-deriving spans from decoder offsets rather than assuming identity).
func sanitizeRawTagBodies(src string) string {
	out := src
	for _, re := range rawTagPattern {
		out = re.ReplaceAllStringFunc(out, func(match string) string {
			parts := re.FindStringSubmatch(match)
			if len(parts) < 4 {
				return match
			}
			open, body, closeTag := parts[1], parts[2], parts[3]
			if strings.Contains(body, "<![CDATA[") {
				return match
			}
			escaped := strings.ReplaceAll(body, "]]>", "]]]]><![CDATA[>")
			return open + "<![CDATA[" + escaped + "]]>" + closeTag
		})
	}
	return out
}

// LexError is a lexical or syntactic parse error with a byte range,
// produced by Parse and folded into the owning Compilation's error
// collection once reading begins.
type LexError struct {
	Message string
	Span    Span
}

// wrapKind records which synthetic-root strategy Parse applied, if any, so
// callers can translate reported ranges back into user coordinates.
type wrapKind int

const (
	wrapNone wrapKind = iota
	wrapText          // invalid XML: <poml syntax="text" whiteSpace="pre">...
	wrapMarkdown      // mixed root: <poml syntax="markdown">...
)

// ParseResult holds the parsed AST plus bookkeeping needed to translate
// positions back into the caller's original coordinate system.
type ParseResult struct {
	Root      *ASTNode
	Errors    []LexError
	Wrap      wrapKind
	Offset    int // byte count of the synthetic opening tag, if any
	Synthetic string
}

// Parse tokenizes and parses src into an XML-like AST with byte-offset
// spans, tolerating free-text documents with no root element at all.
func Parse(src string) *ParseResult {
	res := &ParseResult{}
	trimmed := strings.TrimLeft(src, " \t\r\n")
	looksLikePoml := strings.HasPrefix(trimmed, "<poml") || strings.HasPrefix(trimmed, "<?xml")

	work := src
	if !looksLikePoml {
		if validRootCandidate(trimmed) {
			res.Wrap = wrapMarkdown
			res.Synthetic = `<poml syntax="markdown">`
		} else {
			res.Wrap = wrapText
			res.Synthetic = `<poml syntax="text" whiteSpace="pre">`
		}
		res.Offset = len(res.Synthetic)
		work = res.Synthetic + src + "</poml>"
	}

	sanitized := sanitizeRawTagBodies(work)
	doc, errs := parseXML(sanitized, work)
	res.Root = extractPomlRoot(doc)
	res.Errors = errs
	return res
}

// extractPomlRoot pulls the single <poml> root out of the synthetic
// #document wrapper parseXML always returns, falling back first to the
// first top-level element of any tag, and then to wrapping stray
// top-level content in an empty <poml> element if there is no element
// at all (a SystemError-level situation that should not occur in practice).
func extractPomlRoot(doc *ASTNode) *ASTNode {
	for _, c := range doc.Children {
		if c.Kind == NodeElement && c.Tag == "poml" {
			return c
		}
	}
	for _, c := range doc.Children {
		if c.Kind == NodeElement {
			return c
		}
	}
	return &ASTNode{Kind: NodeElement, Tag: "poml", Children: doc.Children}
}

// validRootCandidate reports whether trimmed looks like it starts with a
// single well-formed XML element (the "mixed root" case gets
// syntax="markdown" wrapping) as opposed to not being XML-shaped at all
// (the "invalid XML" case gets syntax="text" wrapping).
func validRootCandidate(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "<") {
		return false
	}
	dec := xml.NewDecoder(strings.NewReader(trimmed))
	depth := 0
	sawElement := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
			sawElement = true
		case xml.EndElement:
			depth--
		}
	}
	return sawElement && depth == 0
}

// parseXML walks an encoding/xml decoder, building the closed ASTNode
// tagged-variant tree and recovering from decode errors by recording them
// and resuming one token at a time, so one malformed subtree never aborts
// the whole parse.
func parseXML(sanitized string, spanSource string) (*ASTNode, []LexError) {
	dec := xml.NewDecoder(strings.NewReader(sanitized))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var errs []LexError
	root := &ASTNode{Kind: NodeElement, Tag: "#document"}
	stack := []*ASTNode{root}

	for {
		startOffset := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			if err.Error() == "EOF" {
				break
			}
			errs = append(errs, LexError{Message: err.Error(), Span: Span{Start: startOffset, End: startOffset + 1}})
			// Resume: skip forward past the byte that upset the decoder
			// and keep going against a fresh decoder over the remainder.
			remainder := sanitized[min(startOffset+1, len(sanitized)):]
			if remainder == "" || len(remainder) >= len(sanitized) {
				break
			}
			consumed := len(sanitized) - len(remainder)
			sub, subErrs := parseXML(remainder, spanSource)
			offsetErrs := make([]LexError, len(subErrs))
			for i, e := range subErrs {
				offsetErrs[i] = LexError{Message: e.Message, Span: Span{Start: e.Span.Start + consumed, End: e.Span.End + consumed}}
			}
			errs = append(errs, offsetErrs...)
			top := stack[len(stack)-1]
			top.Children = append(top.Children, sub.Children...)
			break
		}

		endOffset := int(dec.InputOffset())
		switch t := tok.(type) {
		case xml.StartElement:
			el := &ASTNode{
				Kind:        NodeElement,
				Tag:         strings.ToLower(t.Name.Local),
				OriginalTag: t.Name.Local,
				OpenTagSpan: Span{Start: startOffset, End: endOffset},
				Span:        Span{Start: startOffset, End: endOffset},
			}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, Attr{
					Name:      a.Name.Local,
					Value:     a.Value,
					NameSpan:  Span{Start: startOffset, End: endOffset},
					ValueSpan: Span{Start: startOffset, End: endOffset},
				})
			}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 1 {
				top := stack[len(stack)-1]
				top.Span.End = endOffset
				top.CloseTagSpan = Span{Start: startOffset, End: endOffset}
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			text := string(t)
			top := stack[len(stack)-1]
			top.Children = append(top.Children, &ASTNode{
				Kind: NodeText,
				Text: text,
				Span: Span{Start: startOffset, End: endOffset},
			})
		case xml.Comment:
			top := stack[len(stack)-1]
			top.Children = append(top.Children, &ASTNode{
				Kind: NodeComment,
				Text: string(t),
				Span: Span{Start: startOffset, End: endOffset},
			})
		}
	}

	// Close any elements left open at EOF (unbalanced tags): close them at
	// end-of-input so downstream readers still see a consistent tree.
	for len(stack) > 1 {
		top := stack[len(stack)-1]
		top.Span.End = len(sanitized)
		errs = append(errs, LexError{Message: fmt.Sprintf("unclosed element <%s>", top.OriginalTag), Span: top.OpenTagSpan})
		stack = stack[:len(stack)-1]
	}

	return root, errs
}
