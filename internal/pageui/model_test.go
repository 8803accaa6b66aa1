package pageui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/viewmodel"
)

type fakeBackend struct {
	doc     model.MetricsDocument
	err     error
	missing map[string]bool
}

func (f *fakeBackend) FetchMetrics(context.Context) (model.MetricsDocument, error) {
	return f.doc, f.err
}

func (f *fakeBackend) ResolvePlot(_ context.Context, filename string) (string, error) {
	if f.missing[filename] {
		return "", &api.PlotResolutionError{Filename: filename, StatusCode: 404}
	}
	return "http://backend/api/plots/" + filename, nil
}

func (f *fakeBackend) BaseURL() string {
	return "http://backend"
}

type fakeRecorder struct {
	snaps []model.Snapshot
	err   error
}

func (f *fakeRecorder) InsertSnapshots(_ context.Context, snaps []model.Snapshot) error {
	f.snaps = append(f.snaps, snaps...)
	return f.err
}

func sampleDocument(t *testing.T) model.MetricsDocument {
	t.Helper()
	raw := `{"GEO": {
		"LSTM": {"rmse": 1.2345, "mae": 0.9876, "shapiro_p": 0.12},
		"Transformer": {"rmse": 2.5, "mae": 1.5, "shapiro_p": 0.01},
		"Probabilistic": {"rmse": 0.75, "mae": 0.5, "shapiro_p": 0.3}
	}}`
	var doc model.MetricsDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func newTestModel(t *testing.T, backend *fakeBackend, cfg model.Config) *Model {
	t.Helper()
	if cfg.Dataset == "" {
		cfg.Dataset = model.DatasetGEO
	}
	m := NewModel(Options{Backend: backend, Config: cfg})
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 80})
	return m
}

func TestInitMountsConfiguredDataset(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, model.Config{Dataset: model.DatasetMEO1})
	cmd := m.Init()
	require.NotNil(t, cmd)
	require.NotNil(t, m.vm)
	assert.Equal(t, model.DatasetMEO1, m.ActiveDataset())
	assert.Equal(t, viewmodel.Loading, m.vm.State())
	assert.Contains(t, m.View(), "Loading metrics...")
}

func TestFetchCmdTagsMount(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	msg := fetchCmd(backend, "mount-1", 0)()
	loaded, ok := msg.(metricsLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, "mount-1", loaded.mountID)
	assert.NoError(t, loaded.err)
	_, found := loaded.doc.Dataset(model.DatasetGEO)
	assert.True(t, found)
}

func TestMetricsLoadedRendersSelection(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	m := newTestModel(t, backend, model.Config{})
	m.Init()

	_, cmd := m.Update(metricsLoadedMsg{mountID: m.vm.ID(), doc: backend.doc})
	assert.NotNil(t, cmd)
	require.Equal(t, viewmodel.Ready, m.vm.State())

	view := m.View()
	assert.Contains(t, view, "1.2345")
	assert.Contains(t, view, "0.9876")
	assert.Contains(t, view, "✓ Normal")
	assert.Contains(t, view, "Model Comparison")
	assert.Contains(t, view, metrics.ComparisonNote)
	assert.Contains(t, view, "residuals_lstm_GEO.png")
}

func TestStaleMetricsAreDropped(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	m := newTestModel(t, backend, model.Config{})
	m.Init()
	oldVM := m.vm

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.False(t, oldVM.Mounted())
	require.NotNil(t, m.vm)
	assert.Equal(t, model.DatasetMEO1, m.vm.Dataset())

	_, cmd := m.Update(metricsLoadedMsg{mountID: oldVM.ID(), doc: backend.doc})
	assert.Nil(t, cmd)
	assert.Equal(t, viewmodel.Loading, oldVM.State())
	assert.Equal(t, viewmodel.Loading, m.vm.State())
}

func TestFetchErrorShowsMessage(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, model.Config{})
	m.Init()
	netErr := &api.NetworkError{Op: "fetch metrics", URL: "http://backend/api/metrics", Err: errors.New("connection refused")}

	_, cmd := m.Update(metricsLoadedMsg{mountID: m.vm.ID(), err: netErr})
	assert.Nil(t, cmd)
	assert.Equal(t, viewmodel.Error, m.vm.State())
	assert.Contains(t, m.View(), viewmodel.NetworkErrorMessage)
	assert.NotContains(t, m.View(), "connection refused")
}

func TestMissingDatasetShowsNoData(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	m := newTestModel(t, backend, model.Config{Dataset: model.DatasetMEO2})
	m.Init()
	m.Update(metricsLoadedMsg{mountID: m.vm.ID(), doc: backend.doc})
	assert.Contains(t, m.View(), "No data available for MEO2")
}

func TestSelectionWhileLoadingIsApplied(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	m := newTestModel(t, backend, model.Config{})
	m.Init()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}})
	assert.Equal(t, model.ModelLSTM, m.vm.SelectedModel())

	m.Update(metricsLoadedMsg{mountID: m.vm.ID(), doc: backend.doc})
	assert.Equal(t, model.ModelTransformer, m.vm.SelectedModel())
	assert.Contains(t, m.View(), "✗ Not Normal")
}

func TestInitialModelFromConfig(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	m := newTestModel(t, backend, model.Config{Model: model.ModelProbabilistic})
	m.Init()
	m.Update(metricsLoadedMsg{mountID: m.vm.ID(), doc: backend.doc})
	assert.Equal(t, model.ModelProbabilistic, m.vm.SelectedModel())

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, model.ModelLSTM, m.vm.SelectedModel())
}

func TestCycleModelAndPlots(t *testing.T) {
	backend := &fakeBackend{
		doc:     sampleDocument(t),
		missing: map[string]bool{"comparison_GEO.png": true},
	}
	m := newTestModel(t, backend, model.Config{})
	m.Init()
	m.Update(metricsLoadedMsg{mountID: m.vm.ID(), doc: backend.doc})

	cmd := m.cycleModel(1)
	require.NotNil(t, cmd)
	assert.Equal(t, model.ModelTransformer, m.vm.SelectedModel())

	msg := cmd()
	resolved, ok := msg.(plotsResolvedMsg)
	require.True(t, ok)
	assert.Equal(t, model.ModelTransformer, resolved.modelID)

	m.Update(resolved)
	require.NotNil(t, m.plots)
	assert.False(t, m.plots.Residual.Placeholder)
	assert.True(t, m.plots.Comparison.Placeholder)
	view := m.View()
	assert.Contains(t, view, "http://backend/api/plots/residuals_transformer_GEO.png")
	assert.Contains(t, view, metrics.ComparisonPlaceholder)
}

func TestPlotsForOldSelectionAreDropped(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	m := newTestModel(t, backend, model.Config{})
	m.Init()
	m.Update(metricsLoadedMsg{mountID: m.vm.ID(), doc: backend.doc})

	stale := plotsResolvedMsg{mountID: m.vm.ID(), modelID: model.ModelProbabilistic}
	m.Update(stale)
	assert.Nil(t, m.plots)
}

func TestRecordSnapshots(t *testing.T) {
	backend := &fakeBackend{doc: sampleDocument(t)}
	recorder := &fakeRecorder{}
	m := NewModel(Options{
		Backend:  backend,
		Recorder: recorder,
		Config:   model.Config{Dataset: model.DatasetGEO, HistoryEnabled: true},
	})
	cmd := m.recordCmd(backend.doc)
	require.NotNil(t, cmd)
	saved, ok := cmd().(snapshotsSavedMsg)
	require.True(t, ok)
	assert.NoError(t, saved.err)
	assert.Equal(t, 3, saved.count)
	require.Len(t, recorder.snaps, 3)
	assert.Equal(t, "http://backend", recorder.snaps[0].APIURL)

	m.cfg.HistoryEnabled = false
	assert.Nil(t, m.recordCmd(backend.doc))
}

func TestHomeTab(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, model.Config{})
	m.Init()
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Nil(t, m.vm)
	assert.Equal(t, "", m.ActiveDataset())
	view := m.View()
	assert.Contains(t, view, homeTitle)
	for _, ds := range model.Datasets {
		assert.Contains(t, view, model.DatasetDescriptions[ds])
	}
	assert.True(t, strings.Contains(view, "Root Mean Squared Error"))
}

func TestDigitOnHomeOpensDataset(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, model.Config{})
	m.Init()
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.Nil(t, m.vm)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	assert.NotNil(t, cmd)
	require.NotNil(t, m.vm)
	assert.Equal(t, model.DatasetMEO2, m.ActiveDataset())
	assert.Equal(t, viewmodel.Loading, m.vm.State())
	assert.Equal(t, model.ModelLSTM, m.vm.SelectedModel())

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	require.Equal(t, "", m.ActiveDataset())
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'9'}})
	assert.Nil(t, cmd)
	assert.Nil(t, m.vm)
}

func TestThemeByName(t *testing.T) {
	theme, err := ThemeByName("")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme.Name)

	theme, err = ThemeByName(ThemeLight)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme.Name)

	_, err = ThemeByName("solarized")
	assert.Error(t, err)
}
