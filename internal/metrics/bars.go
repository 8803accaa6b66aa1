package metrics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	minBarWidth         = 10
	barChar             = "█"
	terminalWidthBackup = 80
)

// RenderBars prints horizontal RMSE and MAE bars for each row, scaled to the
// largest value of each metric. A width <= 0 uses the terminal width.
func RenderBars(w io.Writer, rows []Row, totalWidth int) error {
	if len(rows) == 0 {
		return nil
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	labelWidth := 0
	for _, r := range rows {
		if n := displayWidth(r.ModelID); n > labelWidth {
			labelWidth = n
		}
	}
	// label, " RMSE ", bar, " ", value
	barWidth := BarWidthFor(totalWidth, labelWidth)

	var maxRMSE, maxMAE float64
	for _, r := range rows {
		if r.RMSE > maxRMSE {
			maxRMSE = r.RMSE
		}
		if r.MAE > maxMAE {
			maxMAE = r.MAE
		}
	}

	if _, err := fmt.Fprintln(w, "Error Magnitude (m)"); err != nil {
		return err
	}
	for _, r := range rows {
		label := padCell(r.ModelID, labelWidth, false)
		if _, err := fmt.Fprintf(w, "%s RMSE %s %s\n", label, bar(r.RMSE, maxRMSE, barWidth), FormatMetric(r.RMSE)); err != nil {
			return err
		}
		blank := strings.Repeat(" ", labelWidth)
		if _, err := fmt.Fprintf(w, "%s MAE  %s %s\n", blank, bar(r.MAE, maxMAE, barWidth), FormatMetric(r.MAE)); err != nil {
			return err
		}
	}
	return nil
}

// BarWidthFor computes the bar length that fits next to the label and value.
func BarWidthFor(totalWidth, labelWidth int) int {
	if totalWidth <= 0 {
		return minBarWidth
	}
	// " RMSE " (6) + " " + "0.0000"-ish value (up to 12)
	width := totalWidth - labelWidth - 6 - 1 - 12
	if width < minBarWidth {
		width = minBarWidth
	}
	return width
}

func bar(value, maxValue float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if maxValue > 0 && value > 0 {
		filled = int(value / maxValue * float64(width))
		if filled < 1 {
			filled = 1
		}
		if filled > width {
			filled = width
		}
	}
	return strings.Repeat(barChar, filled) + strings.Repeat(" ", width-filled)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}
