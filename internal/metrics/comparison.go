// Package metrics contains pure derivations over fetched metrics and their
// text rendering.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/verte-zerg/gnssview/internal/model"
)

// ShapiroThreshold is the p-value above which residuals count as normal.
const ShapiroThreshold = 0.05

// Row is one line of the model comparison.
type Row struct {
	ModelID  string  `json:"model" yaml:"model"`
	RMSE     float64 `json:"rmse" yaml:"rmse"`
	MAE      float64 `json:"mae" yaml:"mae"`
	ShapiroP float64 `json:"shapiro_p" yaml:"shapiro_p"`
	IsNormal bool    `json:"is_normal" yaml:"is_normal"`
}

// IsNormal classifies a Shapiro-Wilk p-value. The threshold itself is not normal.
func IsNormal(shapiroP float64) bool {
	return shapiroP > ShapiroThreshold
}

// ComparisonTable derives one row per model present in the dataset. Known
// models come first in canonical order, then any other ids as encountered.
func ComparisonTable(ds model.DatasetMetrics) []Row {
	keys := CanonicalOrder(ds.Keys())
	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		mm, ok := ds.Lookup(key)
		if !ok {
			continue
		}
		rows = append(rows, NewRow(key, mm))
	}
	return rows
}

// NewRow builds a comparison row for one model.
func NewRow(modelID string, mm model.ModelMetrics) Row {
	return Row{
		ModelID:  modelID,
		RMSE:     mm.RMSE,
		MAE:      mm.MAE,
		ShapiroP: mm.ShapiroP,
		IsNormal: IsNormal(mm.ShapiroP),
	}
}

// CanonicalOrder sorts model ids by model.Models and appends unknown ids in
// their original order.
func CanonicalOrder(keys []string) []string {
	rank := make(map[string]int, len(model.Models))
	for i, m := range model.Models {
		rank[m] = i
	}
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, okI := rank[out[i]]
		rj, okJ := rank[out[j]]
		switch {
		case okI && okJ:
			return ri < rj
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}

// Best returns the row with the lowest RMSE.
func Best(rows []Row) (Row, bool) {
	if len(rows) == 0 {
		return Row{}, false
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.RMSE < best.RMSE {
			best = r
		}
	}
	return best, true
}

// FormatMetric renders a metric with four decimals.
func FormatMetric(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

// NormalLabel renders the residual classification for cards.
func NormalLabel(normal bool) string {
	if normal {
		return "✓ Normal"
	}
	return "✗ Not Normal"
}

// NormalMark renders the residual classification for table cells.
func NormalMark(normal bool) string {
	if normal {
		return "✓"
	}
	return "✗"
}
