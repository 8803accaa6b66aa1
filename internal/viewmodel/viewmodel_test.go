package viewmodel

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/model"
)

type fakeFetcher struct {
	doc   model.MetricsDocument
	err   error
	calls int
}

func (f *fakeFetcher) FetchMetrics(context.Context) (model.MetricsDocument, error) {
	f.calls++
	return f.doc, f.err
}

func geoDocument(t *testing.T) model.MetricsDocument {
	t.Helper()
	var doc model.MetricsDocument
	raw := `{"GEO": {"LSTM": {"rmse": 1.2345, "mae": 0.9876, "shapiro_p": 0.12}}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestNewStartsLoadingWithDefaultModel(t *testing.T) {
	vm := New(model.DatasetGEO)
	assert.Equal(t, Loading, vm.State())
	assert.Equal(t, model.ModelLSTM, vm.SelectedModel())
	assert.True(t, vm.Mounted())
	assert.NotEmpty(t, vm.ID())
	assert.False(t, vm.CurrentSelection().Found)
	assert.Empty(t, vm.Rows())
}

func TestReadySelection(t *testing.T) {
	vm := New(model.DatasetGEO)
	fetcher := &fakeFetcher{doc: geoDocument(t)}
	require.True(t, vm.Load(context.Background(), fetcher))
	assert.Equal(t, 1, fetcher.calls)
	require.Equal(t, Ready, vm.State())

	vm.SelectModel(model.ModelLSTM)
	sel := vm.CurrentSelection()
	require.True(t, sel.Found)
	assert.Equal(t, model.ModelMetrics{RMSE: 1.2345, MAE: 0.9876, ShapiroP: 0.12}, sel.Metrics)
	assert.True(t, sel.IsNormal)
	assert.NoError(t, vm.SelectionErr())
}

func TestMissingModelIsNotFound(t *testing.T) {
	vm := New(model.DatasetGEO)
	require.True(t, vm.Settle(geoDocument(t), nil))

	assert.NotPanics(t, func() {
		vm.SelectModel(model.ModelTransformer)
	})
	sel := vm.CurrentSelection()
	assert.False(t, sel.Found)
	assert.Equal(t, model.ModelTransformer, sel.Model)

	var missing *MissingModelError
	require.ErrorAs(t, vm.SelectionErr(), &missing)
	assert.Equal(t, model.ModelTransformer, missing.Model)
}

func TestUnknownModelIsStored(t *testing.T) {
	vm := New(model.DatasetGEO)
	require.True(t, vm.Settle(geoDocument(t), nil))
	vm.SelectModel("GRU")
	assert.Equal(t, "GRU", vm.SelectedModel())
	assert.False(t, vm.CurrentSelection().Found)
	assert.Equal(t, "residuals_gru_GEO.png", vm.Plots().Residual)
}

func TestMissingDatasetFallsBackToNoData(t *testing.T) {
	vm := New(model.DatasetMEO2)
	require.True(t, vm.Settle(geoDocument(t), nil))

	assert.Equal(t, Ready, vm.State())
	assert.False(t, vm.HasData())
	assert.Empty(t, vm.Rows())
	assert.False(t, vm.CurrentSelection().Found)
	var missing *MissingDatasetError
	require.ErrorAs(t, vm.Err(), &missing)
	assert.Equal(t, model.DatasetMEO2, missing.Dataset)
	require.ErrorAs(t, vm.SelectionErr(), &missing)
}

func TestFetchFailureIsTerminal(t *testing.T) {
	vm := New(model.DatasetGEO)
	netErr := &api.NetworkError{Op: "fetch metrics", URL: "http://localhost:5000/api/metrics", Err: errors.New("connection refused")}
	require.True(t, vm.Load(context.Background(), &fakeFetcher{err: netErr}))

	assert.Equal(t, Error, vm.State())
	assert.Equal(t, NetworkErrorMessage, vm.ErrorMessage())
	assert.ErrorIs(t, vm.Err(), netErr)

	assert.False(t, vm.Settle(geoDocument(t), nil))
	assert.False(t, vm.Settle(model.MetricsDocument{}, errors.New("again")))
	assert.Equal(t, Error, vm.State())
	assert.ErrorIs(t, vm.Err(), netErr)

	vm.SelectModel(model.ModelLSTM)
	assert.Equal(t, Error, vm.State())
	assert.False(t, vm.CurrentSelection().Found)
}

func TestGenericFailureMessage(t *testing.T) {
	vm := New(model.DatasetGEO)
	vm.Settle(model.MetricsDocument{}, errors.New("boom"))
	assert.Equal(t, LoadErrorMessage, vm.ErrorMessage())
}

func TestReadyIsTerminal(t *testing.T) {
	vm := New(model.DatasetGEO)
	require.True(t, vm.Settle(geoDocument(t), nil))
	assert.False(t, vm.Settle(model.MetricsDocument{}, errors.New("late failure")))
	assert.Equal(t, Ready, vm.State())
	assert.NoError(t, vm.Err())
}

func TestSelectionQueuedWhileLoading(t *testing.T) {
	vm := New(model.DatasetGEO)
	vm.SelectModel(model.ModelTransformer)
	vm.SelectModel(model.ModelProbabilistic)

	assert.Equal(t, model.ModelLSTM, vm.SelectedModel())
	pending, ok := vm.PendingModel()
	assert.True(t, ok)
	assert.Equal(t, model.ModelProbabilistic, pending)

	require.True(t, vm.Settle(geoDocument(t), nil))
	assert.Equal(t, model.ModelProbabilistic, vm.SelectedModel())
	_, ok = vm.PendingModel()
	assert.False(t, ok)
}

func TestUnmountDropsLateResult(t *testing.T) {
	vm := New(model.DatasetGEO)
	vm.Unmount()
	assert.False(t, vm.Mounted())

	assert.False(t, vm.Settle(geoDocument(t), nil))
	assert.Equal(t, Loading, vm.State())
	assert.False(t, vm.HasData())
	assert.Empty(t, vm.Rows())
	assert.NoError(t, vm.Err())
}

func TestConcurrentSettleAppliesOnce(t *testing.T) {
	vm := New(model.DatasetGEO)
	doc := geoDocument(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 1 {
				err = errors.New("failure")
			}
			if vm.Settle(doc, err) {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
	assert.NotEqual(t, Loading, vm.State())
}

func TestModelsAndWarnings(t *testing.T) {
	vm := New(model.DatasetGEO)
	assert.Equal(t, model.Models, vm.Models())

	require.True(t, vm.Settle(geoDocument(t), nil))
	assert.Equal(t, []string{model.ModelLSTM}, vm.Models())
	warnings := vm.Warnings()
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "/GEO")
}

func TestWarningsReportMissingAndNullMetrics(t *testing.T) {
	raw := `{"GEO": {
		"LSTM": {"rmse": 1},
		"Transformer": {"rmse": 2, "mae": 1, "shapiro_p": null},
		"Probabilistic": {"rmse": 0.5, "mae": 0.25, "shapiro_p": 0.4}
	}}`
	var doc model.MetricsDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	vm := New(model.DatasetGEO)
	require.True(t, vm.Settle(doc, nil))
	joined := strings.Join(vm.Warnings(), "\n")
	assert.Contains(t, joined, "/GEO/LSTM:")
	assert.Contains(t, joined, "/GEO/Transformer/shapiro_p:")
	assert.NotContains(t, joined, "/GEO/Probabilistic")

	vm.SelectModel(model.ModelTransformer)
	sel := vm.CurrentSelection()
	require.True(t, sel.Found)
	assert.Zero(t, sel.Metrics.ShapiroP)
	assert.False(t, sel.IsNormal)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "error", Error.String())
}
