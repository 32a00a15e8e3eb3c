// Package ui provides the visual styling for the OTP interactive CLI.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Light Mode Colors
	LightForeground = lipgloss.Color("#101F38")
	LightAccent     = lipgloss.Color("#8BC34A")
	LightMuted      = lipgloss.Color("#6b7684")

	// Dark Mode Colors
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkAccent     = lipgloss.Color("#8BC34A")
	DarkMuted      = lipgloss.Color("#7a8699")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#8BC34A")
	Warning     = lipgloss.Color("#FFC107")
	Info        = lipgloss.Color("#2196F3")
)

// Theme holds the current color scheme
type Theme struct {
	Foreground lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Accent:     LightAccent,
		Muted:      LightMuted,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		IsDark:     true,
	}
}

// ThemeByName resolves a configured theme name, defaulting to dark.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds the rendered lipgloss styles for the chat surface.
type Styles struct {
	Header     lipgloss.Style
	Divider    lipgloss.Style
	Prompt     lipgloss.Style
	Annotation lipgloss.Style
	Assistant  lipgloss.Style
	Muted      lipgloss.Style
	OK         lipgloss.Style
	Warn       lipgloss.Style
	Error      lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Header:     lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Divider:    lipgloss.NewStyle().Foreground(theme.Muted),
		Prompt:     lipgloss.NewStyle().Bold(true).Foreground(theme.Foreground),
		Annotation: lipgloss.NewStyle().Foreground(Info),
		Assistant:  lipgloss.NewStyle().Foreground(theme.Accent),
		Muted:      lipgloss.NewStyle().Foreground(theme.Muted),
		OK:         lipgloss.NewStyle().Foreground(Success),
		Warn:       lipgloss.NewStyle().Foreground(Warning),
		Error:      lipgloss.NewStyle().Foreground(Destructive),
	}
}

// DefaultStyles returns styles for the dark theme.
func DefaultStyles() Styles {
	return NewStyles(DarkTheme())
}
