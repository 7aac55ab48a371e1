package poml

import (
	"bytes"
	"encoding/csv"
)

// CSVWriter renders the first <table> found in an <env markup-lang="csv"
// | "tsv"> subtree: only one table is ever emitted, any remaining
// content is ignored, and the line ending/BOM are left to the caller
// (Options.CSVLineEnding / Options.CSVEmitBOM).
type CSVWriter struct {
	Delimiter rune
}

func (w *CSVWriter) Write(n *IRNode, wctx *writeCtx) WriteResult {
	table := findFirstTable(n)
	var buf bytes.Buffer
	lineEnding := "\n"
	emitBOM := false
	if wctx.Options != nil {
		if wctx.Options.CSVLineEnding != "" {
			lineEnding = wctx.Options.CSVLineEnding
		}
		emitBOM = wctx.Options.CSVEmitBOM
	}
	if emitBOM {
		buf.WriteString("\xef\xbb\xbf")
	}

	var mappings []MappingNode
	if table != nil {
		mappings = writeCSVTable(&buf, table, w.Delimiter, lineEnding, wctx)
	}
	text := buf.String()
	if table != nil {
		text = applyEnvLimits(table, text, wctx)
	}
	return WriteResult{Output: text, Mappings: mappings}
}

func findFirstTable(n *IRNode) *IRNode {
	var found *IRNode
	n.Walk(func(c *IRNode) {
		if found == nil && c.Tag == IRTable {
			found = c
		}
	})
	return found
}

func writeCSVTable(buf *bytes.Buffer, table *IRNode, delim rune, lineEnding string, wctx *writeCtx) []MappingNode {
	cw := csv.NewWriter(buf)
	cw.Comma = delim
	if lineEnding == "\r\n" {
		cw.UseCRLF = true
	}

	var mappings []MappingNode
	var rows [][]string
	var rowNodes []*IRNode
	for _, section := range table.Children {
		switch section.Tag {
		case IRThead, IRTbody:
			for _, row := range section.Children {
				if row.Tag == IRTrow {
					rows = append(rows, csvRowCells(row))
					rowNodes = append(rowNodes, row)
				}
			}
		case IRTrow:
			rows = append(rows, csvRowCells(section))
			rowNodes = append(rowNodes, section)
		}
	}
	for _, row := range rows {
		_ = cw.Write(row)
	}
	cw.Flush()

	// csv.Writer does not expose per-row byte offsets, so mappings are
	// attached at table granularity for CRLF/quote-escaping accuracy;
	// finer per-row mapping would require reimplementing RFC 4180
	// quoting by hand, which the standard encoding/csv writer already
	// gets right.
	mappings = append(mappings, mappingFor(table, wctx, 0, buf.Len()))
	return mappings
}

func csvRowCells(row *IRNode) []string {
	var cells []string
	for _, cell := range row.Children {
		if cell.Tag == IRTcell {
			cells = append(cells, cellText(cell))
		}
	}
	return cells
}

func cellText(cell *IRNode) string {
	var out string
	for _, c := range cell.Children {
		if c.Tag == IRText {
			out += c.Text
		}
	}
	return out
}
