package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gnssview/internal/model"
)

func fullDocument(t *testing.T) model.MetricsDocument {
	t.Helper()
	dataset := `{"LSTM": {"rmse": 1, "mae": 0.5, "shapiro_p": 0.2},
		"Transformer": {"rmse": 2, "mae": 1, "shapiro_p": 0.01},
		"Probabilistic": {"rmse": 3, "mae": 2, "shapiro_p": 0.5}}`
	raw := `{"GEO": ` + dataset + `, "MEO1": ` + dataset + `, "MEO2": ` + dataset + `}`
	var doc model.MetricsDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestCheckDocumentValid(t *testing.T) {
	assert.Empty(t, CheckDocument(fullDocument(t)))
}

func TestCheckDocumentMissingDataset(t *testing.T) {
	var doc model.MetricsDocument
	require.NoError(t, json.Unmarshal([]byte(`{"GEO": {"LSTM": {"rmse": 1, "mae": 1, "shapiro_p": 0.1}}}`), &doc))
	errs := CheckDocument(doc)
	require.NotEmpty(t, errs)
	joined := strings.Join(errs, "\n")
	assert.Contains(t, joined, "MEO1")
	assert.Contains(t, joined, "Transformer")
}

func TestCheckDatasetFlagsRangeAndMissingModels(t *testing.T) {
	ds := model.NewDatasetMetrics([]string{"LSTM"}, map[string]model.ModelMetrics{
		"LSTM": {RMSE: -1, MAE: 0.5, ShapiroP: 1.5},
	})
	errs := CheckDataset("GEO", ds)
	require.NotEmpty(t, errs)
	joined := strings.Join(errs, "\n")
	assert.Contains(t, joined, "/GEO/LSTM/rmse")
	assert.Contains(t, joined, "/GEO/LSTM/shapiro_p")
	assert.Contains(t, joined, "Probabilistic")
}

func TestCheckBytes(t *testing.T) {
	assert.NotEmpty(t, CheckBytes([]byte(`{"GEO": {"LSTM": {"rmse": "1"}}}`)))
	errs := CheckBytes([]byte(`{`))
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "JSON parse error"))
}

func TestCheckDecodedDocumentSeesMissingAndNullMetrics(t *testing.T) {
	dataset := `{"LSTM": {"rmse": 1}, "Transformer": {"rmse": 2, "mae": 1, "shapiro_p": null}, "Probabilistic": {}}`
	raw := `{"GEO": ` + dataset + `, "MEO1": ` + dataset + `, "MEO2": ` + dataset + `}`
	var doc model.MetricsDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	joined := strings.Join(CheckDocument(doc), "\n")
	assert.Contains(t, joined, "/GEO/LSTM:")
	assert.Contains(t, joined, "/MEO2/Transformer/shapiro_p:")
	assert.Contains(t, joined, "/MEO1/Probabilistic:")

	geo, ok := doc.Dataset("GEO")
	require.True(t, ok)
	joined = strings.Join(CheckDataset("GEO", geo), "\n")
	assert.Contains(t, joined, "/GEO/LSTM:")
	assert.Contains(t, joined, "/GEO/Transformer/shapiro_p:")
	assert.Contains(t, joined, "/GEO/Probabilistic:")
	assert.NotContains(t, joined, "MEO1")
}
