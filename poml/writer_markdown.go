package poml

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MarkdownWriter renders an <env> subtree to Markdown text using the box
// model in box.go: every IR element becomes one box, classified as
// block (separated by a blank line), newline (separated by one newline)
// or inline (concatenated directly, with whitespace-overlap
// consolidation at the seam).
type MarkdownWriter struct {
	mediaDraft []PositionalContentMultiMedia
}

func (w *MarkdownWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	bb := newBoxBuilder(wctx)
	level := 1
	if wctx.Options != nil {
		level = wctx.Options.BaseHeaderLevel
	}
	for _, c := range w.priorityFilteredChildren(n, n.Children, wctx, level) {
		w.renderInto(bb, c, wctx, level)
	}
	text, mappings := bb.Result()
	text = applyEnvLimits(n, text, wctx)

	// Placeholder runes are emitted in document order regardless of how
	// deeply nested the originating media element was, so zipping them
	// against mediaDraft (appended in the same left-to-right order)
	// recovers each entry's final rune index without needing to thread a
	// shared builder through every recursion level.
	media := make([]PositionalContentMultiMedia, 0, len(w.mediaDraft))
	runeIdx := 0
	draftIdx := 0
	for _, r := range text {
		if r == placeholderRune && draftIdx < len(w.mediaDraft) {
			out := w.mediaDraft[draftIdx]
			out.Index = runeIdx
			media = append(media, out)
			draftIdx++
		}
		runeIdx++
	}
	return WriteResult{Output: text, Mappings: mappings, Multimedia: media}
}

// renderInto renders n as zero or more boxes appended directly to bb,
// dispatching container elements recursively.
func (w *MarkdownWriter) renderInto(bb *boxBuilder, n *IRNode, wctx *writeCtx, level int) {
	switch n.Tag {
	case IRText:
		bb.Append(box{kind: boxInline, text: n.Text, node: n})
	case IRNl:
		bb.Append(box{kind: boxNewline, text: "", node: n})
	case IRSpanTag:
		bb.Append(box{kind: boxInline, text: w.inlineChildren(n, wctx, level), node: n})
	case IRB:
		bb.Append(box{kind: boxInline, text: "**" + w.inlineChildren(n, wctx, level) + "**", node: n})
	case IRI:
		bb.Append(box{kind: boxInline, text: "*" + w.inlineChildren(n, wctx, level) + "*", node: n})
	case IRS:
		bb.Append(box{kind: boxInline, text: "~~" + w.inlineChildren(n, wctx, level) + "~~", node: n})
	case IRU:
		bb.Append(box{kind: boxInline, text: "__" + w.inlineChildren(n, wctx, level) + "__", node: n})
	case IRCode:
		bb.Append(w.renderCode(n, wctx, level))
	case IRP:
		if n.Attrs.Has("nesting") {
			// <section>: a block container whose children are rendered at
			// the next header nesting level, not flattened inline.
			inner := newBoxBuilder(wctx)
			for _, c := range n.Children {
				w.renderInto(inner, c, wctx, level+1)
			}
			text, _ := inner.Result()
			bb.Append(box{kind: boxBlock, text: text, node: n})
			break
		}
		bb.Append(box{kind: boxBlock, text: w.inlineChildren(n, wctx, level), node: n})
	case IRH:
		bb.Append(w.renderHeader(n, wctx, level))
	case IRList:
		bb.Append(w.renderList(n, wctx, level))
	case IRTable:
		bb.Append(w.renderTable(n, wctx, level))
	case IRObj, IRAny:
		bb.Append(w.renderData(n))
	case IRImg, IRAudio, IRToolRequest, IRToolResponse:
		w.renderMediaBox(bb, n)
	case IREnv:
		w.renderNestedEnv(bb, n, wctx)
	default:
		for _, c := range n.Children {
			w.renderInto(bb, c, wctx, level)
		}
	}
}

// inlineChildren renders n's children into one flat inline string, used
// by every element whose Markdown shape is "marker + inline content".
func (w *MarkdownWriter) inlineChildren(n *IRNode, wctx *writeCtx, level int) string {
	inner := newBoxBuilder(wctx)
	for _, c := range n.Children {
		w.renderInto(inner, c, wctx, level)
	}
	text, _ := inner.Result()
	return text
}

func (w *MarkdownWriter) renderMediaBox(bb *boxBuilder, n *IRNode) {
	m, ok := multimediaFor(n)
	if !ok {
		return
	}
	bb.Append(box{kind: boxInline, text: placeholderChar, node: n})
	w.mediaDraft = append(w.mediaDraft, m)
}

func (w *MarkdownWriter) renderCode(n *IRNode, wctx *writeCtx, level int) box {
	text := w.inlineChildren(n, wctx, level)
	if n.Attrs.GetString("inline") == "true" || (!strings.Contains(text, "\n") && n.Attrs.GetString("block") != "true") {
		return box{kind: boxInline, text: "`" + text + "`", node: n}
	}
	lang := n.Attrs.GetString("lang")
	fence := "```" + lang + "\n" + text + "\n```"
	return box{kind: boxBlock, text: fence, node: n}
}

func (w *MarkdownWriter) renderHeader(n *IRNode, wctx *writeCtx, level int) box {
	depth := (level - 1) + n.Attrs.GetInt("level", 1)
	if depth < 1 {
		depth = 1
	}
	if depth > 6 {
		depth = 6
	}
	return box{kind: boxBlock, text: strings.Repeat("#", depth) + " " + w.inlineChildren(n, wctx, level+1), node: n}
}

func (w *MarkdownWriter) renderList(n *IRNode, wctx *writeCtx, level int) box {
	ordered := n.Attrs.GetString("ordered") == "true"
	var items []box
	for i, item := range n.Children {
		if item.Tag != IRItem {
			continue
		}
		marker := "-"
		if ordered {
			marker = strconv.Itoa(i+1) + "."
		}
		content := w.inlineChildren(item, wctx, level)
		line := marker + " " + indentContinuation(content, marker)
		items = append(items, boxFor(boxNewline, line, item))
	}
	if limit := n.Attrs.GetInt(AttrCharLimit, 0); limit > 0 {
		items = reduceBoxesByPriority(items, limit, false, wctx.tokenizer(), wctx.model())
	}
	if limit := n.Attrs.GetInt(AttrTokenLimit, 0); limit > 0 {
		items = reduceBoxesByPriority(items, limit, true, wctx.tokenizer(), wctx.model())
	}
	lines := make([]string, len(items))
	for i, b := range items {
		lines[i] = b.text
	}
	return box{kind: boxBlock, text: strings.Join(lines, "\n"), node: n}
}

// indentContinuation hangs any line after the first under the marker's
// width, so multi-line item content still reads as one list item.
func indentContinuation(content, marker string) string {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	pad := strings.Repeat(" ", len(marker)+1)
	for i := 1; i < len(lines); i++ {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func (w *MarkdownWriter) renderTable(n *IRNode, wctx *writeCtx, level int) box {
	var header []string
	var rows [][]string
	var rowNodes []*IRNode
	for _, section := range n.Children {
		switch section.Tag {
		case IRThead:
			for _, row := range section.Children {
				if row.Tag == IRTrow {
					header = w.tableCells(row, wctx, level)
				}
			}
		case IRTbody:
			for _, row := range section.Children {
				if row.Tag == IRTrow {
					rows = append(rows, w.tableCells(row, wctx, level))
					rowNodes = append(rowNodes, row)
				}
			}
		case IRTrow:
			rows = append(rows, w.tableCells(section, wctx, level))
			rowNodes = append(rowNodes, section)
		}
	}
	rows, _ = w.priorityFilteredRows(n, rows, rowNodes, wctx)
	cols := len(header)
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	widths := columnWidths(header, rows, cols)
	collapse := wctx.Options != nil && wctx.Options.MarkdownTableCollapse

	var b strings.Builder
	if len(header) == 0 {
		header = make([]string, cols)
	}
	writeTableRow(&b, header, widths, collapse)
	b.WriteByte('\n')
	writeTableRule(&b, widths, collapse)
	for _, row := range rows {
		b.WriteByte('\n')
		writeTableRow(&b, row, widths, collapse)
	}
	return box{kind: boxBlock, text: b.String(), node: n}
}

func (w *MarkdownWriter) tableCells(row *IRNode, wctx *writeCtx, level int) []string {
	var cells []string
	for _, cell := range row.Children {
		if cell.Tag != IRTcell {
			continue
		}
		cells = append(cells, strings.ReplaceAll(w.inlineChildren(cell, wctx, level), "|", "\\|"))
	}
	return cells
}

func columnWidths(header []string, rows [][]string, cols int) []int {
	widths := make([]int, cols)
	for i, h := range header {
		if i < cols && len(h) > widths[i] {
			widths[i] = len(h)
		}
	}
	for _, row := range rows {
		for i, c := range row {
			if i < cols && len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}
	return widths
}

func writeTableRow(b *strings.Builder, cells []string, widths []int, collapse bool) {
	b.WriteByte('|')
	for i := range widths {
		val := ""
		if i < len(cells) {
			val = cells[i]
		}
		if collapse {
			b.WriteString(" " + val + " |")
			continue
		}
		b.WriteString(" " + val + strings.Repeat(" ", widths[i]-len(val)) + " |")
	}
}

func writeTableRule(b *strings.Builder, widths []int, collapse bool) {
	b.WriteByte('|')
	for _, w := range widths {
		n := 3
		if !collapse && w > 1 {
			n = w + 2
		}
		b.WriteString(" " + strings.Repeat("-", n-2) + " |")
	}
}

// renderData renders an <obj>/<any> leaf as a fenced, pretty-printed JSON
// block, the closest Markdown analog to "arbitrary structured payload".
func (w *MarkdownWriter) renderData(n *IRNode) box {
	raw := n.Attrs.GetString("data")
	pretty := raw
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		if out, err := json.MarshalIndent(v, "", "  "); err == nil {
			pretty = string(out)
		}
	}
	return box{kind: boxBlock, text: "```json\n" + pretty + "\n```", node: n}
}

// renderNestedEnv handles an <env> nested inside a Markdown document. A
// nested env whose own presentation is also Markdown splices its
// rendered text in verbatim as a block box, and its own multimedia
// drafts are adopted with a fresh start index; any other presentation
// is treated as opaque text and fenced so the surrounding document stays
// valid Markdown.
func (w *MarkdownWriter) renderNestedEnv(bb *boxBuilder, n *IRNode, wctx *writeCtx) {
	childCtx := newWriteCtx(wctx.Options, n)
	res := DispatchEnv(n, childCtx)
	presentation := n.Attrs.GetString(AttrPresentation)
	lang := n.Attrs.GetString(AttrMarkupLang)
	if presentation == "" || presentation == "markup" && (lang == "" || lang == "markdown") {
		w.mediaDraft = append(w.mediaDraft, res.Multimedia...)
		bb.Append(box{kind: boxBlock, text: res.Output, node: n})
		return
	}
	if lang == "" {
		lang = n.Attrs.GetString(AttrSerializer)
	}
	fence := fmt.Sprintf("```%s\n%s\n```", lang, res.Output)
	bb.Append(box{kind: boxBlock, text: fence, node: n})
}

// priorityFilteredChildren renders each of children standalone to
// measure its size, then drops the lowest-priority subset (repeatedly,
// per reduceBoxesByPriority) until the combined size fits within n's own
// char-limit/token-limit attributes. Unlike applyEnvLimits' final text
// truncation, this drops whole children rather than cutting into one of
// their texts, so a lower-priority sibling disappears entirely before a
// higher-priority one is ever touched.
func (w *MarkdownWriter) priorityFilteredChildren(n *IRNode, children []*IRNode, wctx *writeCtx, level int) []*IRNode {
	charLimit := n.Attrs.GetInt(AttrCharLimit, defaultLimit(wctx, false))
	tokenLimit := n.Attrs.GetInt(AttrTokenLimit, defaultLimit(wctx, true))
	if charLimit <= 0 && tokenLimit <= 0 || len(children) == 0 {
		return children
	}
	boxes := make([]box, len(children))
	for i, c := range children {
		tmp := newBoxBuilder(wctx)
		w.renderInto(tmp, c, wctx, level)
		text, _ := tmp.Result()
		boxes[i] = boxFor(boxBlock, text, c)
	}
	if charLimit > 0 {
		boxes = reduceBoxesByPriority(boxes, charLimit, false, wctx.tokenizer(), wctx.model())
	}
	if tokenLimit > 0 {
		boxes = reduceBoxesByPriority(boxes, tokenLimit, true, wctx.tokenizer(), wctx.model())
	}
	out := make([]*IRNode, len(boxes))
	for i, b := range boxes {
		out[i] = b.node
	}
	return out
}

// priorityFilteredRows is renderTable's row-granularity counterpart of
// priorityFilteredChildren: it drops the lowest-priority <trow>s (by
// their own "priority" attribute) until the table's body fits within the
// table node's own char-limit/token-limit attributes.
func (w *MarkdownWriter) priorityFilteredRows(n *IRNode, rows [][]string, rowNodes []*IRNode, wctx *writeCtx) ([][]string, []*IRNode) {
	charLimit := n.Attrs.GetInt(AttrCharLimit, 0)
	tokenLimit := n.Attrs.GetInt(AttrTokenLimit, 0)
	if (charLimit <= 0 && tokenLimit <= 0) || len(rows) == 0 {
		return rows, rowNodes
	}
	boxes := make([]box, len(rows))
	for i, r := range rows {
		boxes[i] = boxFor(boxNewline, strings.Join(r, " "), rowNodes[i])
	}
	if charLimit > 0 {
		boxes = reduceBoxesByPriority(boxes, charLimit, false, wctx.tokenizer(), wctx.model())
	}
	if tokenLimit > 0 {
		boxes = reduceBoxesByPriority(boxes, tokenLimit, true, wctx.tokenizer(), wctx.model())
	}
	kept := make(map[*IRNode]bool, len(boxes))
	for _, b := range boxes {
		kept[b.node] = true
	}
	var outRows [][]string
	var outNodes []*IRNode
	for i, r := range rows {
		if kept[rowNodes[i]] {
			outRows = append(outRows, r)
			outNodes = append(outNodes, rowNodes[i])
		}
	}
	return outRows, outNodes
}

// applyEnvLimits truncates env's rendered text to its own char-limit/
// token-limit attributes, falling back to Options' defaults.
func applyEnvLimits(n *IRNode, text string, wctx *writeCtx) string {
	marker := " (...truncated)"
	if wctx.Options != nil && wctx.Options.TruncateMarker != "" {
		marker = wctx.Options.TruncateMarker
	}
	if limit := n.Attrs.GetInt(AttrCharLimit, defaultLimit(wctx, false)); limit > 0 {
		text = truncateText(text, limit, false, wctx.tokenizer(), wctx.model(), TruncateEnd, marker)
	}
	if limit := n.Attrs.GetInt(AttrTokenLimit, defaultLimit(wctx, true)); limit > 0 {
		text = truncateText(text, limit, true, wctx.tokenizer(), wctx.model(), TruncateEnd, marker)
	}
	return text
}

func defaultLimit(wctx *writeCtx, tokens bool) int {
	if wctx.Options == nil {
		return 0
	}
	if tokens {
		return wctx.Options.DefaultTokenLimit
	}
	return wctx.Options.DefaultCharLimit
}
