// Package viewmodel holds the per-page state machine that turns one metrics
// fetch into display state.
package viewmodel

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/schema"
)

// State is the lifecycle phase of a mounted page.
type State int

const (
	// Loading waits for the single metrics fetch.
	Loading State = iota
	// Ready holds a fetched document.
	Ready
	// Error holds a failed fetch.
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	NetworkErrorMessage = "Unable to load metrics. Check that the backend is reachable."
	LoadErrorMessage    = "Error loading data."
)

// Fetcher retrieves the metrics document.
type Fetcher interface {
	FetchMetrics(ctx context.Context) (model.MetricsDocument, error)
}

// Selection is the derived metrics for the selected model.
type Selection struct {
	Dataset  string
	Model    string
	Metrics  model.ModelMetrics
	IsNormal bool
	Found    bool
}

// ViewModel is the state of one dataset page for the lifetime of one mount.
// Ready and Error are terminal.
type ViewModel struct {
	mu sync.Mutex

	id      string
	dataset string
	mounted bool

	state    State
	err      error
	errMsg   string
	data     model.DatasetMetrics
	hasData  bool
	warnings []string

	selected string
	pending  string
	queued   bool
}

// New mounts a page for dataset with the default model selected.
func New(dataset string) *ViewModel {
	return &ViewModel{
		id:       uuid.NewString(),
		dataset:  dataset,
		mounted:  true,
		state:    Loading,
		selected: model.DefaultModel,
	}
}

// ID identifies this mount.
func (vm *ViewModel) ID() string {
	return vm.id
}

// Dataset returns the dataset this page shows.
func (vm *ViewModel) Dataset() string {
	return vm.dataset
}

// Load performs the fetch and settles with its result.
func (vm *ViewModel) Load(ctx context.Context, f Fetcher) bool {
	doc, err := f.FetchMetrics(ctx)
	return vm.Settle(doc, err)
}

// Settle applies the fetch outcome. Only the first call on a mounted page has
// effect; it reports whether the outcome was applied.
func (vm *ViewModel) Settle(doc model.MetricsDocument, err error) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if !vm.mounted || vm.state != Loading {
		return false
	}
	if err != nil {
		vm.state = Error
		vm.err = err
		vm.errMsg = userMessage(err)
		return true
	}

	vm.state = Ready
	vm.data, vm.hasData = doc.Dataset(vm.dataset)
	if !vm.hasData {
		vm.err = &MissingDatasetError{Dataset: vm.dataset}
	} else {
		vm.warnings = schema.CheckDataset(vm.dataset, vm.data)
	}
	if vm.queued {
		vm.selected = vm.pending
		vm.pending = ""
		vm.queued = false
	}
	return true
}

// Unmount discards the page. Later Settle calls are dropped.
func (vm *ViewModel) Unmount() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.mounted = false
}

// Mounted reports whether the page is still mounted.
func (vm *ViewModel) Mounted() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.mounted
}

// SelectModel stores the model id. While loading the last selection is
// queued and applied when the fetch settles successfully.
func (vm *ViewModel) SelectModel(modelID string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.state == Loading {
		vm.pending = modelID
		vm.queued = true
		return
	}
	vm.selected = modelID
}

// SelectedModel returns the active model id.
func (vm *ViewModel) SelectedModel() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.selected
}

// PendingModel returns a selection queued while loading.
func (vm *ViewModel) PendingModel() (string, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.pending, vm.queued
}

// State returns the lifecycle phase.
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Err returns the fetch error in the Error state, or a *MissingDatasetError
// when Ready without data.
func (vm *ViewModel) Err() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.err
}

// ErrorMessage returns the non-technical message for the Error state.
func (vm *ViewModel) ErrorMessage() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.errMsg
}

// HasData reports whether the fetched document contained the dataset.
func (vm *ViewModel) HasData() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state == Ready && vm.hasData
}

// Warnings returns schema drift diagnostics for the dataset slice.
func (vm *ViewModel) Warnings() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]string(nil), vm.warnings...)
}

// CurrentSelection derives the metrics of the selected model. Found is false
// when not ready, when the dataset is missing, or when the model is absent.
func (vm *ViewModel) CurrentSelection() Selection {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	sel := Selection{Dataset: vm.dataset, Model: vm.selected}
	if vm.state != Ready || !vm.hasData {
		return sel
	}
	mm, ok := vm.data.Lookup(vm.selected)
	if !ok {
		return sel
	}
	sel.Metrics = mm
	sel.IsNormal = metrics.IsNormal(mm.ShapiroP)
	sel.Found = true
	return sel
}

// SelectionErr explains a missing selection, or returns nil.
func (vm *ViewModel) SelectionErr() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	switch {
	case vm.state != Ready:
		return nil
	case !vm.hasData:
		return vm.err
	}
	if _, ok := vm.data.Lookup(vm.selected); !ok {
		return &MissingModelError{Dataset: vm.dataset, Model: vm.selected}
	}
	return nil
}

// Rows returns the comparison table of the dataset slice.
func (vm *ViewModel) Rows() []metrics.Row {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.state != Ready || !vm.hasData {
		return []metrics.Row{}
	}
	return metrics.ComparisonTable(vm.data)
}

// Models returns the model ids of the dataset slice in canonical order, or
// the recognized models when no data is available.
func (vm *ViewModel) Models() []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.state != Ready || !vm.hasData || vm.data.Len() == 0 {
		return append([]string(nil), model.Models...)
	}
	return metrics.CanonicalOrder(vm.data.Keys())
}

// Plots returns the plot references for the dataset and selected model.
func (vm *ViewModel) Plots() metrics.PlotRef {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return metrics.PlotReference(vm.dataset, vm.selected)
}

func userMessage(err error) string {
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return NetworkErrorMessage
	}
	return LoadErrorMessage
}
