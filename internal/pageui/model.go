// Package pageui provides the Bubble Tea metrics dashboard.
package pageui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/verte-zerg/gnssview/internal/api"
	"github.com/verte-zerg/gnssview/internal/logging"
	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/store"
	"github.com/verte-zerg/gnssview/internal/viewmodel"
)

const tabHome = 0

// Backend serves the metrics document and plot files.
type Backend interface {
	viewmodel.Fetcher
	api.PlotResolver
	BaseURL() string
}

// SnapshotRecorder appends fetched metrics to the history log.
type SnapshotRecorder interface {
	InsertSnapshots(ctx context.Context, snaps []model.Snapshot) error
}

// Options configures a dashboard.
type Options struct {
	Backend  Backend
	Recorder SnapshotRecorder
	Config   model.Config
	Theme    Theme
}

type metricsLoadedMsg struct {
	mountID string
	doc     model.MetricsDocument
	err     error
}

type plotsResolvedMsg struct {
	mountID string
	modelID string
	set     api.PlotSet
}

type snapshotsSavedMsg struct {
	count int
	err   error
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	backend  Backend
	recorder SnapshotRecorder
	cfg      model.Config
	theme    Theme
	styles   styles

	tabs      []string
	activeTab int

	vm          *viewmodel.ViewModel
	plots       *api.PlotSet
	initialSent bool

	spinner  spinner.Model
	viewport viewport.Model

	width  int
	height int
	status string
}

// NewModel constructs a dashboard opened on the configured dataset.
func NewModel(opts Options) *Model {
	theme := opts.Theme
	if theme.Name == "" {
		theme = darkTheme
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	st := newStyles(theme)
	s.Style = st.spinner

	m := &Model{
		backend:  opts.Backend,
		recorder: opts.Recorder,
		cfg:      opts.Config,
		theme:    theme,
		styles:   st,
		tabs:     append([]string{"Home"}, model.Datasets...),
		spinner:  s,
		viewport: viewport.New(0, 0),
	}
	for i, tab := range m.tabs {
		if tab == opts.Config.Dataset {
			m.activeTab = i
		}
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.mount()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refreshContent()
		return m, nil
	case spinner.TickMsg:
		if m.vm == nil || m.vm.State() != viewmodel.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshContent()
		return m, cmd
	case metricsLoadedMsg:
		return m, m.handleMetrics(msg)
	case plotsResolvedMsg:
		if m.vm == nil || msg.mountID != m.vm.ID() || msg.modelID != m.vm.SelectedModel() {
			return m, nil
		}
		set := msg.set
		m.plots = &set
		m.refreshContent()
		return m, nil
	case snapshotsSavedMsg:
		if msg.err != nil {
			logging.LogEvent("snapshot insert failed: %v", msg.err)
			m.status = "History not saved: " + msg.err.Error()
			m.updateLayout()
		} else {
			logging.LogEvent("recorded %d snapshots", msg.count)
		}
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.viewport.View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// ActiveDataset returns the dataset of the current tab, or "" on the home tab.
func (m *Model) ActiveDataset() string {
	if m.activeTab == tabHome {
		return ""
	}
	return m.tabs[m.activeTab]
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.vm != nil {
			m.vm.Unmount()
		}
		return tea.Quit
	case "left", "h", "shift+tab":
		return m.moveTab(-1)
	case "right", "l", "tab":
		return m.moveTab(1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		if m.activeTab == tabHome {
			return m.openDataset(idx)
		}
		return m.selectIndex(idx)
	case "up", "k":
		return m.cycleModel(-1)
	case "down", "j":
		return m.cycleModel(1)
	case "g", "home":
		m.viewport.GotoTop()
		return nil
	case "G", "end":
		m.viewport.GotoBottom()
		return nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

func (m *Model) moveTab(delta int) tea.Cmd {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	return m.openTab(next)
}

// openDataset opens the idx-th dataset tab from the home tab.
func (m *Model) openDataset(idx int) tea.Cmd {
	tab := tabHome + 1 + idx
	if idx < 0 || tab >= len(m.tabs) {
		return nil
	}
	return m.openTab(tab)
}

func (m *Model) openTab(tab int) tea.Cmd {
	m.activeTab = tab
	cmd := m.mount()
	m.viewport.GotoTop()
	return tea.Batch(cmd, tea.ClearScreen)
}

// mount discards the current page and starts a fresh one for the active tab.
func (m *Model) mount() tea.Cmd {
	if m.vm != nil {
		m.vm.Unmount()
		m.vm = nil
	}
	m.plots = nil
	m.status = ""
	dataset := m.ActiveDataset()
	if dataset == "" {
		m.refreshContent()
		return nil
	}
	m.vm = viewmodel.New(dataset)
	if !m.initialSent {
		m.initialSent = true
		if m.cfg.Model != "" && m.cfg.Model != model.DefaultModel {
			m.vm.SelectModel(m.cfg.Model)
		}
	}
	logging.LogEvent("mount %s id=%s", dataset, m.vm.ID())
	m.refreshContent()
	return tea.Batch(m.spinner.Tick, fetchCmd(m.backend, m.vm.ID(), m.cfg.Timeout))
}

func (m *Model) handleMetrics(msg metricsLoadedMsg) tea.Cmd {
	if m.vm == nil || msg.mountID != m.vm.ID() {
		logging.LogEvent("dropped stale metrics for mount %s", msg.mountID)
		return nil
	}
	if !m.vm.Settle(msg.doc, msg.err) {
		return nil
	}
	m.refreshContent()
	if msg.err != nil {
		logging.LogEvent("mount %s failed: %v", msg.mountID, msg.err)
		return nil
	}
	return tea.Batch(m.plotsCmd(), m.recordCmd(msg.doc))
}

func (m *Model) selectIndex(idx int) tea.Cmd {
	if m.vm == nil {
		return nil
	}
	models := m.vm.Models()
	if idx < 0 || idx >= len(models) {
		return nil
	}
	return m.selectModel(models[idx])
}

func (m *Model) cycleModel(delta int) tea.Cmd {
	if m.vm == nil {
		return nil
	}
	models := m.vm.Models()
	if len(models) == 0 {
		return nil
	}
	current := m.vm.SelectedModel()
	if pending, ok := m.vm.PendingModel(); ok {
		current = pending
	}
	idx := -1
	for i, id := range models {
		if id == current {
			idx = i
		}
	}
	next := (idx + delta + len(models)) % len(models)
	if idx < 0 && delta < 0 {
		next = len(models) - 1
	}
	return m.selectModel(models[next])
}

func (m *Model) selectModel(id string) tea.Cmd {
	before := m.vm.SelectedModel()
	m.vm.SelectModel(id)
	if m.vm.State() != viewmodel.Ready || before == m.vm.SelectedModel() {
		m.refreshContent()
		return nil
	}
	m.plots = nil
	m.refreshContent()
	return m.plotsCmd()
}

func (m *Model) plotsCmd() tea.Cmd {
	if m.vm == nil || m.vm.State() != viewmodel.Ready {
		return nil
	}
	return plotsCmd(m.backend, m.vm.ID(), m.vm.SelectedModel(), m.vm.Plots(), m.cfg.Timeout)
}

func (m *Model) recordCmd(doc model.MetricsDocument) tea.Cmd {
	if m.recorder == nil || !m.cfg.HistoryEnabled {
		return nil
	}
	snaps := store.SnapshotsFromDocument(uuid.NewString(), time.Now(), m.backend.BaseURL(), doc)
	recorder := m.recorder
	return func() tea.Msg {
		err := recorder.InsertSnapshots(context.Background(), snaps)
		return snapshotsSavedMsg{count: len(snaps), err: err}
	}
}

func fetchCmd(backend Backend, mountID string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		doc, err := backend.FetchMetrics(ctx)
		return metricsLoadedMsg{mountID: mountID, doc: doc, err: err}
	}
}

func plotsCmd(resolver api.PlotResolver, mountID, modelID string, ref metrics.PlotRef, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := withTimeout(timeout)
		defer cancel()
		return plotsResolvedMsg{mountID: mountID, modelID: modelID, set: api.ResolvePlots(ctx, resolver, ref)}
	}
}

func withTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(m.styles.activeNav.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.status != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
}
