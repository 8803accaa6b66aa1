package metrics

import (
	"reflect"
	"testing"

	"github.com/verte-zerg/gnssview/internal/model"
)

func sampleDataset() model.DatasetMetrics {
	return model.NewDatasetMetrics(
		[]string{"Probabilistic", "Custom", "LSTM", "Transformer"},
		map[string]model.ModelMetrics{
			"LSTM":          {RMSE: 1.2345, MAE: 0.9876, ShapiroP: 0.12},
			"Transformer":   {RMSE: 2.5, MAE: 1.5, ShapiroP: 0.05},
			"Probabilistic": {RMSE: 0.8, MAE: 0.4, ShapiroP: 0.051},
			"Custom":        {RMSE: 3, MAE: 2, ShapiroP: 0.9},
		},
	)
}

func TestComparisonTableRowsAndClassification(t *testing.T) {
	ds := sampleDataset()
	rows := ComparisonTable(ds)
	if len(rows) != ds.Len() {
		t.Fatalf("expected %d rows, got %d", ds.Len(), len(rows))
	}
	for _, r := range rows {
		mm, ok := ds.Lookup(r.ModelID)
		if !ok {
			t.Fatalf("row for unknown model %q", r.ModelID)
		}
		if r.IsNormal != (mm.ShapiroP > 0.05) {
			t.Fatalf("model %s: IsNormal=%v for p=%v", r.ModelID, r.IsNormal, mm.ShapiroP)
		}
		if r.RMSE != mm.RMSE || r.MAE != mm.MAE || r.ShapiroP != mm.ShapiroP {
			t.Fatalf("model %s: values not carried over: %+v", r.ModelID, r)
		}
	}
}

func TestComparisonTableCanonicalOrder(t *testing.T) {
	rows := ComparisonTable(sampleDataset())
	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.ModelID
	}
	want := []string{"LSTM", "Transformer", "Probabilistic", "Custom"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestComparisonTableIdempotent(t *testing.T) {
	ds := sampleDataset()
	first := ComparisonTable(ds)
	second := ComparisonTable(ds)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical output, got %+v and %+v", first, second)
	}
}

func TestComparisonTableEmpty(t *testing.T) {
	rows := ComparisonTable(model.DatasetMetrics{})
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", rows)
	}
}

func TestIsNormalBoundary(t *testing.T) {
	cases := []struct {
		p    float64
		want bool
	}{
		{0.05, false},
		{0.0500001, true},
		{0.049, false},
		{0, false},
		{1, true},
	}
	for _, tc := range cases {
		if got := IsNormal(tc.p); got != tc.want {
			t.Fatalf("IsNormal(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestBest(t *testing.T) {
	best, ok := Best(ComparisonTable(sampleDataset()))
	if !ok {
		t.Fatalf("expected a best row")
	}
	if best.ModelID != "Probabilistic" {
		t.Fatalf("expected Probabilistic, got %s", best.ModelID)
	}
	if _, ok := Best(nil); ok {
		t.Fatalf("expected no best row for empty input")
	}
}

func TestFormatMetric(t *testing.T) {
	if got := FormatMetric(1.23456); got != "1.2346" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := FormatMetric(0.12); got != "0.1200" {
		t.Fatalf("unexpected format: %q", got)
	}
}
