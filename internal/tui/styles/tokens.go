package styles

import "strings"

// ThemeTokens defines the semantic color roles for the catalog browser.
type ThemeTokens struct {
	Panel       string
	Text        string
	TextMuted   string
	Border      string
	Accent      string
	Focus       string
	Placeholder string
	Required    string
	Success     string
	Warning     string
	Error       string
}

// Theme bundles a palette with a name.
type Theme struct {
	Name   string
	Tokens ThemeTokens
}

// DefaultTheme is the baseline palette.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Panel:       "#121821",
		Text:        "#E6EDF3",
		TextMuted:   "#8B9AAE",
		Border:      "#223043",
		Accent:      "#5B8DEF",
		Focus:       "#7AA2F7",
		Placeholder: "#D2A8FF",
		Required:    "#FFA657",
		Success:     "#3FB950",
		Warning:     "#D29922",
		Error:       "#F85149",
	},
}

// HighContrastTheme favors visibility on low-contrast terminals.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Tokens: ThemeTokens{
		Panel:       "#000000",
		Text:        "#FFFFFF",
		TextMuted:   "#C0C0C0",
		Border:      "#FFFFFF",
		Accent:      "#00A2FF",
		Focus:       "#FFD400",
		Placeholder: "#FF66FF",
		Required:    "#FFB000",
		Success:     "#00FF5A",
		Warning:     "#FFB000",
		Error:       "#FF4040",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	DefaultTheme.Name:      DefaultTheme,
	HighContrastTheme.Name: HighContrastTheme,
}

// ThemeByName returns the named theme, falling back to DefaultTheme.
func ThemeByName(name string) (Theme, bool) {
	theme, ok := Themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return DefaultTheme, false
	}
	return theme, true
}
