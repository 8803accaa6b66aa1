package pageui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Theme names accepted by ThemeByName.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme is the color palette of the page UI.
type Theme struct {
	Name   string
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Border lipgloss.Color
	Accent lipgloss.Color
	Good   lipgloss.Color
	Bad    lipgloss.Color
}

var (
	darkTheme = Theme{
		Name:   ThemeDark,
		Text:   lipgloss.Color("#F0F0F0"),
		Muted:  lipgloss.Color("#8C8C8C"),
		Border: lipgloss.Color("#4A4A4A"),
		Accent: lipgloss.Color("#C89A3A"),
		Good:   lipgloss.Color("#52C41A"),
		Bad:    lipgloss.Color("#FF4D4F"),
	}
	lightTheme = Theme{
		Name:   ThemeLight,
		Text:   lipgloss.Color("#1F1F1F"),
		Muted:  lipgloss.Color("#6B7280"),
		Border: lipgloss.Color("#D1D5DB"),
		Accent: lipgloss.Color("#1E40AF"),
		Good:   lipgloss.Color("#059669"),
		Bad:    lipgloss.Color("#DC2626"),
	}
)

// ThemeByName returns the named theme.
func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", ThemeDark:
		return darkTheme, nil
	case ThemeLight:
		return lightTheme, nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q (use %s or %s)", name, ThemeDark, ThemeLight)
	}
}

type styles struct {
	activeNav   lipgloss.Style
	inactiveNav lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	err         lipgloss.Style
	warn        lipgloss.Style
	good        lipgloss.Style
	card        lipgloss.Style
	cardTitle   lipgloss.Style
	cardValue   lipgloss.Style
	cardUnit    lipgloss.Style
	panel       lipgloss.Style
	spinner     lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		activeNav: lipgloss.NewStyle().
			Foreground(t.Text).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(t.Accent),
		inactiveNav: lipgloss.NewStyle().
			Foreground(t.Muted).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(t.Border),
		header: lipgloss.NewStyle().Foreground(t.Muted),
		title:  lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		err:    lipgloss.NewStyle().Foreground(t.Bad),
		warn:   lipgloss.NewStyle().Foreground(t.Accent),
		good:   lipgloss.NewStyle().Foreground(t.Good).Bold(true),
		card: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(t.Border),
		cardTitle: lipgloss.NewStyle().Foreground(t.Muted),
		cardValue: lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		cardUnit:  lipgloss.NewStyle().Foreground(t.Muted).Italic(true),
		panel: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Accent),
		spinner: lipgloss.NewStyle().Foreground(t.Accent),
	}
}

func tableStyles(t Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(t.Border).
		Foreground(t.Text).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	s.Cell = s.Cell.
		Foreground(t.Text).
		Padding(0, 1).
		PaddingLeft(0)
	s.Selected = s.Cell.
		Foreground(t.Accent).
		Bold(true)
	return s
}
