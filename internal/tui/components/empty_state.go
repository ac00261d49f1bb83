// Package components provides reusable catalog browser components.
package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/querycat/internal/tui/styles"
)

// EmptyState is a message shown when a list has nothing to display.
type EmptyState struct {
	Title       string
	Subtitle    string
	Suggestions []Suggestion
}

// Suggestion is a command the user can run, with a short description.
type Suggestion struct {
	Command     string
	Description string
}

// Render renders the empty state with the given styles.
func (e EmptyState) Render(styleSet styles.Styles) string {
	lines := []string{styleSet.Muted.Render(e.Title)}
	if e.Subtitle != "" {
		lines = append(lines, styleSet.Muted.Render(e.Subtitle))
	}

	if len(e.Suggestions) > 0 {
		lines = append(lines, "", styleSet.Text.Render("Try:"))
		for _, s := range e.Suggestions {
			line := "  " + styleSet.Accent.Render(s.Command)
			if s.Description != "" {
				line += styleSet.Muted.Render(fmt.Sprintf("  # %s", s.Description))
			}
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// EmptyCatalog is shown when no query files were loaded.
func EmptyCatalog() EmptyState {
	return EmptyState{
		Title:    "No query templates loaded",
		Subtitle: "Builtin templates are disabled and no query files were found.",
		Suggestions: []Suggestion{
			{Command: "querycat browse --catalog-dir ./queries", Description: "load a directory of query files"},
			{Command: "querycat validate queries/*.yaml", Description: "check query files for errors"},
		},
	}
}

// NoMatches is shown when a search filters out every template.
func NoMatches(search string) EmptyState {
	return EmptyState{
		Title:    fmt.Sprintf("No templates match %q", search),
		Subtitle: "Press esc to clear the search.",
	}
}
