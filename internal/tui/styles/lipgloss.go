// Package styles holds the catalog browser palettes and lipgloss styles.
package styles

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Theme       Theme
	Title       lipgloss.Style
	Text        lipgloss.Style
	Muted       lipgloss.Style
	Accent      lipgloss.Style
	Panel       lipgloss.Style
	Selected    lipgloss.Style
	Placeholder lipgloss.Style
	Required    lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
}

// DefaultStyles builds styles from the default theme.
func DefaultStyles() Styles {
	return BuildStyles(DefaultTheme)
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	tokens := theme.Tokens
	fg := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	}

	return Styles{
		Theme:  theme,
		Title:  fg(tokens.Text).Bold(true),
		Text:   fg(tokens.Text),
		Muted:  fg(tokens.TextMuted),
		Accent: fg(tokens.Accent),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(tokens.Border)).
			Padding(0, 1),
		Selected:    fg(tokens.Focus).Bold(true),
		Placeholder: fg(tokens.Placeholder),
		Required:    fg(tokens.Required).Bold(true),
		Success:     fg(tokens.Success),
		Warning:     fg(tokens.Warning),
		Error:       fg(tokens.Error),
	}
}
