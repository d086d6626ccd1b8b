package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/viniciusth/dedupe"

	"github.com/jedib0t/go-pretty/v6/table"
)

const defaultMaxWidth = 50

var controlEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

type Renderer struct {
	output   io.Writer
	maxWidth int
}

func NewRenderer(output io.Writer) *Renderer {
	return &Renderer{
		output:   output,
		maxWidth: defaultMaxWidth,
	}
}

// WithMaxWidth sets the number of code points after which text cells are truncated.
func (r *Renderer) WithMaxWidth(maxWidth int) *Renderer {
	r.maxWidth = maxWidth
	return r
}

func (r *Renderer) RenderTable(header []interface{}, records [][]interface{}) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.output)
	tw.SetStyle(table.Style{
		Name: "Dedupe",
		Box: table.BoxStyle{
			MiddleVertical: "|",
			PaddingLeft:    " ",
			PaddingRight:   " ",
		},
		Options: table.Options{
			DoNotColorBordersAndSeparators: true,
			DrawBorder:                     false,
			SeparateColumns:                true,
			SeparateFooter:                 false,
			SeparateHeader:                 false,
			SeparateRows:                   false,
		},
		Color:  table.ColorOptionsDefault,
		Format: table.FormatOptionsDefault,
		HTML:   table.DefaultHTMLOptions,
		Title:  table.TitleOptionsDefault,
	})
	tw.AppendHeader(r.rowInterfaceToTableRow(header), table.RowConfig{})
	tw.AppendRows(r.rowsToTableRows(records), table.RowConfig{})
	tw.Render()
}

// RenderSuffixArray renders every suffix of text in suffix array order.
func (r *Renderer) RenderSuffixArray(text []rune, suffixArray []int32) {
	records := make([][]interface{}, len(suffixArray))
	for i, pos := range suffixArray {
		records[i] = []interface{}{i, pos, r.cell(text[pos:])}
	}
	r.RenderTable([]interface{}{"Index", "Pos", "Suffix"}, records)
}

// RenderLCPArray renders the common prefix of every pair of adjacent suffixes.
func (r *Renderer) RenderLCPArray(text []rune, suffixArray, lcp []int32) {
	records := make([][]interface{}, len(lcp))
	for i, length := range lcp {
		first, second := suffixArray[i], suffixArray[i+1]
		prefix := "(none)"
		if length > 0 {
			prefix = r.cell(text[first : first+length])
		}
		records[i] = []interface{}{i, length, first, second, prefix}
	}
	r.RenderTable([]interface{}{"Index", "LCP", "Pos1", "Pos2", "Common Prefix"}, records)
}

// RenderRanges renders ranges of text with their content.
func (r *Renderer) RenderRanges(text []rune, ranges []dedupe.Range) {
	records := make([][]interface{}, len(ranges))
	for i, rng := range ranges {
		records[i] = []interface{}{rng.Start, rng.End, rng.Len(), r.cell(text[rng.Start:rng.End])}
	}
	r.RenderTable([]interface{}{"Start", "End", "Length", "Content"}, records)
}

// RenderComparison renders original and deduplicated text side by side, line by line.
func (r *Renderer) RenderComparison(original, deduplicated string) {
	originalLength := len([]rune(original))
	deduplicatedLength := len([]rune(deduplicated))
	removed := originalLength - deduplicatedLength

	var percentage float64
	if originalLength > 0 {
		percentage = float64(removed) / float64(originalLength) * 100
	}

	fmt.Fprintf(r.output, "Original length: %d, deduplicated length: %d\n", originalLength, deduplicatedLength) // nolint: errcheck
	fmt.Fprintf(r.output, "Code points removed: %d (%.2f%%)\n", removed, percentage)                            // nolint: errcheck

	originalLines := strings.Split(original, "\n")
	deduplicatedLines := strings.Split(deduplicated, "\n")
	lineCount := max(len(originalLines), len(deduplicatedLines))

	records := make([][]interface{}, lineCount)
	for i := range records {
		records[i] = []interface{}{i + 1, r.lineCell(originalLines, i), r.lineCell(deduplicatedLines, i)}
	}
	r.RenderTable([]interface{}{"Line", "Original", "Deduplicated"}, records)
}

// RenderTrace renders every stage of a traced deduplication.
func (r *Renderer) RenderTrace(trace *dedupe.Trace) {
	text := []rune(trace.Input)

	r.renderTitle(fmt.Sprintf("Deduplicating text of length %d with minimum candidate length %d",
		len(text), trace.MinLength))

	r.renderTitle("Suffix array")
	r.RenderSuffixArray(text, trace.SuffixArray)

	r.renderTitle("LCP array")
	r.RenderLCPArray(text, trace.SuffixArray, trace.LCPArray)

	r.renderTitle("Duplicate ranges")
	r.RenderRanges(text, trace.DuplicateRanges)

	r.renderTitle("Consolidated duplicate ranges")
	r.RenderRanges(text, trace.ConsolidatedRanges)

	r.renderTitle("Comparison")
	r.RenderComparison(trace.Input, trace.Result)
}

func (r *Renderer) renderTitle(title string) {
	fmt.Fprintf(r.output, "\n%s\n\n", title) // nolint: errcheck
}

func (r *Renderer) lineCell(lines []string, index int) string {
	if index >= len(lines) {
		return ""
	}
	return r.cell([]rune(lines[index]))
}

// cell truncates text to the maximum width and escapes control characters
// so that every record stays on one line.
func (r *Renderer) cell(text []rune) string {
	if len(text) > r.maxWidth-3 && len(text) > 3 {
		text = append(text[:max(r.maxWidth-3, 0):max(r.maxWidth-3, 0)], '.', '.', '.')
	}
	return controlEscaper.Replace(string(text))
}

func (r *Renderer) rowsToTableRows(rows [][]interface{}) []table.Row {
	tableRows := make([]table.Row, len(rows))
	for rowIndex, rowValue := range rows {
		tableRows[rowIndex] = r.rowInterfaceToTableRow(rowValue)
	}
	return tableRows
}

func (r *Renderer) rowInterfaceToTableRow(row []interface{}) table.Row {
	tableRow := make(table.Row, len(row))
	copy(tableRow, row)
	return tableRow
}
