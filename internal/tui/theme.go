// Package tui provides the Bubble Tea tracker interface.
package tui

import "github.com/charmbracelet/lipgloss"

// Theme is a named color palette for the tracker view.
type Theme struct {
	Name    string
	Text    string
	Muted   string
	Running string
	Header  string
	Accent  string
	Danger  string
}

// Themes lists the selectable palettes, cycled with the theme key. The
// first entry is the default.
var Themes = []Theme{
	{
		Name:    "slate",
		Text:    "#F0F0F0",
		Muted:   "#8C8C8C",
		Running: "#7FD962",
		Header:  "#C89A3A",
		Accent:  "#C89A3A",
		Danger:  "#FF4D4F",
	},
	{
		Name:    "paper",
		Text:    "#2E2E2E",
		Muted:   "#767676",
		Running: "#1F7A1F",
		Header:  "#8A5A00",
		Accent:  "#8A5A00",
		Danger:  "#B00020",
	},
	{
		Name:    "midnight",
		Text:    "#C8D3F5",
		Muted:   "#545C7E",
		Running: "#C3E88D",
		Header:  "#82AAFF",
		Accent:  "#82AAFF",
		Danger:  "#FF757F",
	},
	{
		Name:    "ember",
		Text:    "#E6D9C3",
		Muted:   "#8A7A66",
		Running: "#F2A65A",
		Header:  "#D96C47",
		Accent:  "#D96C47",
		Danger:  "#E84545",
	},
}

// ThemeByName returns the named theme, falling back to the default.
func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme following the named one in the cycle.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

type styles struct {
	text    lipgloss.Style
	muted   lipgloss.Style
	running lipgloss.Style
	header  lipgloss.Style
	cursor  lipgloss.Style
	status  lipgloss.Style
	danger  lipgloss.Style
	locked  lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		text:    lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		running: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Running)).Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Header)).Bold(true),
		cursor:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		status:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		danger:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)),
		locked:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Danger)).Bold(true),
	}
}
