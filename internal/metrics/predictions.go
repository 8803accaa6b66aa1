package metrics

import (
	"math"

	"github.com/verte-zerg/gnssview/internal/model"
)

// PredictionStats summarizes the residuals of one exported prediction series.
type PredictionStats struct {
	Count       int     `json:"count" yaml:"count"`
	RMSE        float64 `json:"rmse" yaml:"rmse"`
	MAE         float64 `json:"mae" yaml:"mae"`
	MeanError   float64 `json:"mean_error" yaml:"mean_error"`
	MaxAbsError float64 `json:"max_abs_error" yaml:"max_abs_error"`
}

// SummarizePredictions computes residual statistics from the error column.
// They describe the exported sample only, which the backend truncates, so
// they may differ from the document metrics.
func SummarizePredictions(points []model.PredictionPoint) PredictionStats {
	st := PredictionStats{Count: len(points)}
	if len(points) == 0 {
		return st
	}
	var sum, sumAbs, sumSq float64
	for _, p := range points {
		abs := math.Abs(p.Error)
		sum += p.Error
		sumAbs += abs
		sumSq += p.Error * p.Error
		if abs > st.MaxAbsError {
			st.MaxAbsError = abs
		}
	}
	n := float64(len(points))
	st.MeanError = sum / n
	st.MAE = sumAbs / n
	st.RMSE = math.Sqrt(sumSq / n)
	return st
}

// Downsample reduces values to at most n bucket means, keeping their order.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return append([]float64(nil), values...)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo := i * len(values) / n
		hi := (i + 1) * len(values) / n
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}
