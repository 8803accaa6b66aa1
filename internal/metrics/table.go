package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ComparisonHeaders are the column titles of the comparison table.
var ComparisonHeaders = []string{"Model", "RMSE (m)", "MAE (m)", "Shapiro p", "Normal?"}

// ComparisonNote explains the pass/fail column.
const ComparisonNote = "Note: Shapiro-Wilk p-value > 0.05 indicates normally distributed residuals."

// ComparisonCells renders rows as table cells.
func ComparisonCells(rows []Row) [][]string {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{
			r.ModelID,
			FormatMetric(r.RMSE),
			FormatMetric(r.MAE),
			FormatMetric(r.ShapiroP),
			NormalMark(r.IsNormal),
		})
	}
	return cells
}

// RenderComparison prints the comparison table followed by the threshold note.
func RenderComparison(w io.Writer, rows []Row) error {
	if _, err := fmt.Fprintln(w, "Model Comparison"); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No models found.")
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range formatTable(ComparisonHeaders, ComparisonCells(rows), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, ComparisonNote)
	return err
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
