package pageui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gnssview/internal/metrics"
	"github.com/verte-zerg/gnssview/internal/model"
	"github.com/verte-zerg/gnssview/internal/viewmodel"
)

const (
	homeTitle    = "GNSS Satellite Error Prediction"
	homeSubtitle = "AI/ML-based prediction of time-varying satellite clock and ephemeris errors"
	homeOverview = "This system predicts satellite errors for Day 8 using 7 days of training data.\n" +
		"Three models are compared: LSTM, Transformer, and Probabilistic."
)

var metricGlossary = [][2]string{
	{"RMSE", "Root Mean Squared Error (lower is better)"},
	{"MAE", "Mean Absolute Error (lower is better)"},
	{"Shapiro p-value", "Test for normal distribution of residuals (p > 0.05 = good)"},
}

func (m *Model) refreshContent() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	if m.vm == nil {
		m.viewport.SetContent(m.renderHome(width))
		return
	}
	m.viewport.SetContent(m.renderPage(width))
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, m.styles.activeNav.Render(tab))
		} else {
			parts = append(parts, m.styles.inactiveNav.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Backend: %s", m.backendURL())
	if m.vm != nil {
		summary = fmt.Sprintf("Dataset: %s  Model: %s  State: %s  Backend: %s",
			m.vm.Dataset(), m.vm.SelectedModel(), m.vm.State(), m.backendURL())
	}
	return tabs + "\n" + m.styles.header.Render(truncateLine(summary, m.width))
}

func (m *Model) backendURL() string {
	if m.backend == nil {
		return "-"
	}
	return m.backend.BaseURL()
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Model: 1-3 or up/down  Scroll: pgup/pgdn  Quit: q"
	if m.vm == nil {
		help = "Nav: left/right  Open: 1-3  Scroll: pgup/pgdn  Quit: q"
	}
	help = m.styles.header.Render(help)
	if m.status != "" {
		return help + "\n" + m.styles.err.Render(m.status)
	}
	return help
}

func (m *Model) renderHome(width int) string {
	lines := []string{
		m.styles.title.Render(homeTitle),
		m.styles.header.Render(homeSubtitle),
		"",
		m.styles.panel.Render(m.styles.title.Render("Project Overview") + "\n" + homeOverview),
		"",
		m.styles.title.Render("Datasets"),
	}
	for i, ds := range model.Datasets {
		lines = append(lines, fmt.Sprintf("  %s  %-5s %s",
			m.styles.header.Render(fmt.Sprintf("[%d]", i+1)), ds, model.DatasetDescriptions[ds]))
	}
	lines = append(lines, "", m.styles.title.Render("Key Metrics"))
	for _, entry := range metricGlossary {
		lines = append(lines, fmt.Sprintf("  %s: %s", m.styles.cardValue.Render(entry[0]), entry[1]))
	}
	lines = append(lines, "", m.styles.header.Render(truncateLine("Press a dataset number or use left/right to open it.", width)))
	return strings.Join(lines, "\n")
}

func (m *Model) renderPage(width int) string {
	dataset := m.vm.Dataset()
	title := m.styles.title.Render(fmt.Sprintf("%s Dataset", dataset))
	if desc := model.DatasetDescriptions[dataset]; desc != "" {
		title += "  " + m.styles.header.Render(desc)
	}

	switch m.vm.State() {
	case viewmodel.Loading:
		msg := fmt.Sprintf("%s Loading metrics...", m.spinner.View())
		if pending, ok := m.vm.PendingModel(); ok {
			msg += m.styles.header.Render(fmt.Sprintf("  (will show %s)", pending))
		}
		return title + "\n\n" + msg
	case viewmodel.Error:
		return title + "\n\n" + m.styles.err.Render(m.vm.ErrorMessage())
	}

	if !m.vm.HasData() {
		return title + "\n\n" + m.styles.header.Render(fmt.Sprintf("No data available for %s", dataset))
	}

	sections := []string{
		title,
		m.renderSelector(),
		m.renderCards(width),
		m.renderComparison(width),
		m.renderPlots(),
	}
	if warnings := m.renderWarnings(); warnings != "" {
		sections = append(sections, warnings)
	}
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderSelector() string {
	selected := m.vm.SelectedModel()
	parts := []string{"Select Model:"}
	for i, id := range m.vm.Models() {
		label := fmt.Sprintf("%d %s", i+1, id)
		if id == selected {
			parts = append(parts, m.styles.activeNav.Render(label))
		} else {
			parts = append(parts, m.styles.inactiveNav.Render(label))
		}
	}
	parts[0] = lipgloss.NewStyle().PaddingTop(1).Render(parts[0])
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderCards(width int) string {
	sel := m.vm.CurrentSelection()
	if !sel.Found {
		var missing *viewmodel.MissingModelError
		if err := m.vm.SelectionErr(); errors.As(err, &missing) {
			return m.styles.err.Render(fmt.Sprintf("Model %s not found", missing.Model))
		}
		return m.styles.err.Render(fmt.Sprintf("Model %s not found", sel.Model))
	}
	normal := m.styles.err.Render(metrics.NormalLabel(false))
	if sel.IsNormal {
		normal = m.styles.good.Render(metrics.NormalLabel(true))
	}
	cards := []string{
		m.metricCard("RMSE", m.styles.cardValue.Render(metrics.FormatMetric(sel.Metrics.RMSE)), "meters"),
		m.metricCard("MAE", m.styles.cardValue.Render(metrics.FormatMetric(sel.Metrics.MAE)), "meters"),
		m.metricCard("Shapiro p-value", m.styles.cardValue.Render(metrics.FormatMetric(sel.Metrics.ShapiroP)), "normality test"),
		m.metricCard("Residuals", normal, ""),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) metricCard(label, value, unit string) string {
	content := m.styles.cardTitle.Render(label) + "\n" + value
	if unit != "" {
		content += "\n" + m.styles.cardUnit.Render(unit)
	}
	return m.styles.card.Render(content)
}

func (m *Model) renderComparison(width int) string {
	rows := m.vm.Rows()
	title := m.styles.title.Render("Model Comparison")
	if len(rows) == 0 {
		return title + "\n" + m.styles.header.Render("No models found.")
	}
	t := buildComparisonTable(rows, m.vm.SelectedModel(), width, m.theme)
	return title + "\n" + t.View() + "\n" + m.styles.header.Render(truncateLine(metrics.ComparisonNote, width))
}

func buildComparisonTable(rows []metrics.Row, selected string, width int, theme Theme) table.Model {
	columns := make([]table.Column, len(metrics.ComparisonHeaders))
	widths := []int{14, 10, 10, 10, 8}
	for i, title := range metrics.ComparisonHeaders {
		columns[i] = table.Column{Title: title, Width: maxInt(widths[i], lipgloss.Width(title))}
	}
	cells := metrics.ComparisonCells(rows)
	tableRows := make([]table.Row, len(cells))
	cursor := 0
	for i, c := range cells {
		tableRows[i] = table.Row(c)
		if rows[i].ModelID == selected {
			cursor = i
		}
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(len(tableRows)+1),
	)
	t.SetWidth(width)
	t.SetStyles(tableStyles(theme))
	t.SetCursor(cursor)
	return t
}

func (m *Model) renderPlots() string {
	ref := m.vm.Plots()
	lines := []string{m.styles.title.Render("Plots")}
	if m.plots == nil {
		lines = append(lines,
			fmt.Sprintf("  Residuals:  %s %s", ref.Residual, m.styles.header.Render("(resolving...)")),
			fmt.Sprintf("  Comparison: %s %s", ref.Comparison, m.styles.header.Render("(resolving...)")),
		)
		return strings.Join(lines, "\n")
	}
	lines = append(lines,
		m.plotLine("Residuals: ", m.plots.Residual),
		m.plotLine("Comparison:", m.plots.Comparison),
	)
	return strings.Join(lines, "\n")
}

func (m *Model) plotLine(label string, st metrics.PlotStatus) string {
	if st.Placeholder {
		return fmt.Sprintf("  %s %s %s", label, st.Filename, m.styles.warn.Render("not found, placeholder: "+st.URL))
	}
	return fmt.Sprintf("  %s %s", label, st.URL)
}

func (m *Model) renderWarnings() string {
	warnings := m.vm.Warnings()
	if len(warnings) == 0 {
		return ""
	}
	lines := []string{m.styles.warn.Render("Schema warnings")}
	for _, w := range warnings {
		lines = append(lines, "  "+m.styles.header.Render(w))
	}
	return strings.Join(lines, "\n")
}
