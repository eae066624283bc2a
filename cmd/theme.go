package cmd

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors used by status output.
type Theme struct {
	Primary   lipgloss.Color // labels
	Success   lipgloss.Color // open, focused
	Warning   lipgloss.Color // stale handle
	TextMuted lipgloss.Color // closed, hints
}

// DarkTheme returns the default theme for dark terminal backgrounds.
func DarkTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#fab283"),
		Success:   lipgloss.Color("#7fd88f"),
		Warning:   lipgloss.Color("#f5a742"),
		TextMuted: lipgloss.Color("#808080"),
	}
}

// LightTheme returns a theme for bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("#b35c00"),
		Success:   lipgloss.Color("#116329"),
		Warning:   lipgloss.Color("#bf8700"),
		TextMuted: lipgloss.Color("#656d76"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

type styles struct {
	label lipgloss.Style
	good  lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		label: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Width(10),
		good:  lipgloss.NewStyle().Foreground(t.Success),
		warn:  lipgloss.NewStyle().Foreground(t.Warning),
		muted: lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}
