package components

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/opencode-ai/querycat/internal/tui/styles"
)

// ParameterList renders a template's effective parameters, one per line.
type ParameterList struct {
	Parameters []queries.Parameter
	// Values holds rendered values from a successful resolution, if any.
	Values map[string]string
}

// Render renders the parameter list.
func (p ParameterList) Render(styleSet styles.Styles) string {
	if len(p.Parameters) == 0 {
		return styleSet.Muted.Render("(no parameters)")
	}

	width := 0
	for _, param := range p.Parameters {
		if len(param.Name) > width {
			width = len(param.Name)
		}
	}

	lines := make([]string, 0, len(p.Parameters))
	for _, param := range p.Parameters {
		name := styleSet.Placeholder.Render(fmt.Sprintf("%-*s", width, param.Name))
		line := fmt.Sprintf("%s  %s", name, styleSet.Muted.Render(fmt.Sprintf("%-8s", param.Type)))

		switch {
		case param.Required():
			line += "  " + styleSet.Required.Render("required")
		case p.Values != nil:
			line += "  = " + styleSet.Text.Render(fmt.Sprintf("%q", p.Values[param.Name]))
		default:
			line += "  = " + styleSet.Text.Render(fmt.Sprintf("%v", param.Default))
		}

		if param.Description != "" {
			line += styleSet.Muted.Render("  " + param.Description)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
