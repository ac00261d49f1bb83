package components

import (
	"strings"
	"testing"

	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/opencode-ai/querycat/internal/tui/styles"
)

func TestEmptyStateRender(t *testing.T) {
	styleSet := styles.DefaultStyles()

	result := EmptyCatalog().Render(styleSet)
	if !strings.Contains(result, "No query templates loaded") {
		t.Errorf("expected title in output, got: %s", result)
	}
	if !strings.Contains(result, "querycat validate") {
		t.Errorf("expected suggestion in output, got: %s", result)
	}

	result = NoMatches("dns").Render(styleSet)
	if !strings.Contains(result, `"dns"`) {
		t.Errorf("expected search text in output, got: %s", result)
	}
	if strings.Contains(result, "Try:") {
		t.Errorf("expected no suggestions header, got: %s", result)
	}
}

func TestParameterListRender(t *testing.T) {
	styleSet := styles.DefaultStyles()
	list := ParameterList{
		Parameters: []queries.Parameter{
			{Name: "table", Type: queries.ParamTypeString, Default: "AlertEvents", HasDefault: true},
			{Name: "host_name", Type: queries.ParamTypeString, Description: "Name of the host"},
		},
	}

	result := list.Render(styleSet)
	lines := strings.Split(result, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), result)
	}
	if !strings.Contains(lines[0], "AlertEvents") {
		t.Errorf("expected default value, got: %s", lines[0])
	}
	if !strings.Contains(lines[1], "required") || !strings.Contains(lines[1], "Name of the host") {
		t.Errorf("expected required marker and description, got: %s", lines[1])
	}

	list.Values = map[string]string{"table": "Archive"}
	if result := list.Render(styleSet); !strings.Contains(result, `"Archive"`) {
		t.Errorf("expected resolved value, got: %s", result)
	}

	if result := (ParameterList{}).Render(styleSet); !strings.Contains(result, "no parameters") {
		t.Errorf("expected placeholder text, got: %s", result)
	}
}
