// Package tui implements the querycat catalog browser.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/opencode-ai/querycat/internal/history"
	"github.com/opencode-ai/querycat/internal/models"
	"github.com/opencode-ai/querycat/internal/queries"
	"github.com/opencode-ai/querycat/internal/tui/components"
	"github.com/opencode-ai/querycat/internal/tui/styles"
)

// Config configures the catalog browser.
type Config struct {
	Resolver *queries.Resolver
	Theme    string
	// History enables recording the selected resolution with "r".
	History history.Repository
}

// Run launches the catalog browser.
func Run(cfg Config) error {
	m, err := newModel(cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

type model struct {
	width    int
	height   int
	styles   styles.Styles
	resolver *queries.Resolver
	history  history.Repository

	templates []*queries.Template
	filtered  []*queries.Template
	cursor    int

	searching    bool
	search       string
	showResolved bool
	status       string
}

const recordTimeout = 5 * time.Second

type recordedMsg struct {
	res *models.Resolution
	err error
}

const (
	minWidth        = 60
	minHeight       = 15
	defaultListRows = 10
)

func newModel(cfg Config) (model, error) {
	if cfg.Resolver == nil {
		return model{}, fmt.Errorf("tui: resolver is required")
	}

	theme, ok := styles.ThemeByName(cfg.Theme)
	if !ok && cfg.Theme != "" {
		return model{}, fmt.Errorf("tui: unknown theme %q", cfg.Theme)
	}

	templates := cfg.Resolver.Catalog().List()
	return model{
		styles:    styles.BuildStyles(theme),
		resolver:  cfg.Resolver,
		history:   cfg.History,
		templates: templates,
		filtered:  templates,
	}, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			if len(m.filtered) > 0 {
				m.cursor = len(m.filtered) - 1
			}
		case "/":
			m.searching = true
		case "tab":
			m.showResolved = !m.showResolved
		case "r":
			cmd := m.recordCmd()
			return m, cmd
		case "esc":
			if m.search != "" {
				m.setSearch("")
				return m, nil
			}
			return m, tea.Quit
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case recordedMsg:
		if msg.err != nil {
			m.status = "record failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("recorded %s as %s", msg.res.Template, msg.res.ID)
		}
	}
	return m, nil
}

// recordCmd resolves the selected template with defaults and stores it in history.
func (m *model) recordCmd() tea.Cmd {
	tmpl := m.selected()
	if tmpl == nil {
		return nil
	}
	if m.history == nil {
		m.status = "history is disabled (set history.enabled)"
		return nil
	}

	result, err := m.resolver.ResolveTemplate(tmpl, nil)
	if err != nil {
		m.status = "cannot record: " + err.Error()
		return nil
	}

	repo := m.history
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		res, err := history.RecordResolution(ctx, repo, result, tmpl.Source, models.ResolutionSourceTUI)
		return recordedMsg{res: res, err: err}
	}
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.searching = false
	case tea.KeyEsc:
		m.searching = false
		m.setSearch("")
	case tea.KeyBackspace:
		if m.search != "" {
			runes := []rune(m.search)
			m.setSearch(string(runes[:len(runes)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		m.setSearch(m.search + string(msg.Runes))
	}
	return m, nil
}

func (m *model) setSearch(search string) {
	m.search = search
	m.filtered = filterTemplates(m.templates, search)
	m.cursor = 0
}

// filterTemplates matches search case-insensitively against names, descriptions and tags.
func filterTemplates(templates []*queries.Template, search string) []*queries.Template {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return templates
	}

	out := make([]*queries.Template, 0, len(templates))
	for _, tmpl := range templates {
		haystack := []string{tmpl.Name, tmpl.Description}
		haystack = append(haystack, tmpl.Tags()...)
		for _, field := range haystack {
			if strings.Contains(strings.ToLower(field), needle) {
				out = append(out, tmpl)
				break
			}
		}
	}
	return out
}

func (m model) selected() *queries.Template {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return m.filtered[m.cursor]
}

func (m model) View() string {
	if m.width > 0 && m.height > 0 {
		if m.width < minWidth || m.height < minHeight {
			return fmt.Sprintf("%s\n", joinLines(m.smallViewLines()))
		}
	}

	title := fmt.Sprintf("querycat catalog (%d templates)", len(m.templates))
	lines := []string{m.styles.Title.Render(title), ""}

	if m.searching || m.search != "" {
		prompt := "/" + m.search
		if m.searching {
			prompt += "_"
		}
		lines = append(lines, m.styles.Accent.Render(prompt), "")
	}

	lines = append(lines, m.listLines()...)
	lines = append(lines, "")

	if tmpl := m.selected(); tmpl != nil {
		lines = append(lines, m.renderDetail(tmpl))
	}

	if m.status != "" {
		lines = append(lines, "", m.styles.Accent.Render(m.status))
	}

	lines = append(lines, "", m.styles.Muted.Render("Shortcuts: q quit | j/k move | / search | tab raw/resolved | r record"))

	return fmt.Sprintf("%s\n", joinLines(lines))
}

func (m model) listLines() []string {
	if len(m.templates) == 0 {
		return []string{components.EmptyCatalog().Render(m.styles)}
	}
	if len(m.filtered) == 0 {
		return []string{components.NoMatches(m.search).Render(m.styles)}
	}

	rows := m.listRows()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := start + rows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		tmpl := m.filtered[i]
		label := tmpl.Name
		if tmpl.Description != "" {
			label += m.styles.Muted.Render("  " + tmpl.Description)
		}
		if i == m.cursor {
			lines = append(lines, m.styles.Selected.Render("> "+tmpl.Name)+strings.TrimPrefix(label, tmpl.Name))
			continue
		}
		lines = append(lines, "  "+m.styles.Text.Render(label))
	}
	if end < len(m.filtered) {
		lines = append(lines, m.styles.Muted.Render(fmt.Sprintf("  ... %d more", len(m.filtered)-end)))
	}
	return lines
}

func (m model) listRows() int {
	if m.height <= 0 {
		return defaultListRows
	}
	rows := m.height / 3
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m model) renderDetail(tmpl *queries.Template) string {
	lines := []string{m.styles.Accent.Render(tmpl.Name)}
	if tmpl.Description != "" {
		lines = append(lines, m.styles.Text.Render(tmpl.Description))
	}
	lines = append(lines, m.styles.Muted.Render("source: "+tmpl.Source), "")

	params := components.ParameterList{Parameters: tmpl.EffectiveParameters()}

	if m.showResolved {
		result, err := m.resolver.ResolveTemplate(tmpl, nil)
		if err != nil {
			lines = append(lines, params.Render(m.styles), "", m.styles.Error.Render(err.Error()))
		} else {
			params.Values = result.Values
			lines = append(lines, params.Render(m.styles), "", m.styles.Success.Render("resolved with defaults:"), result.Query)
		}
	} else {
		lines = append(lines, params.Render(m.styles), "", m.styles.Muted.Render("query:"), tmpl.Query)
	}

	panel := m.styles.Panel
	if m.width > 0 {
		panel = panel.Width(m.width - 4)
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m model) smallViewLines() []string {
	message := fmt.Sprintf("Terminal too small (%dx%d).", m.width, m.height)
	hint := fmt.Sprintf("Resize to at least %dx%d.", minWidth, minHeight)

	return []string{
		m.styles.Warning.Render(message),
		m.styles.Muted.Render(hint),
		m.styles.Muted.Render("Press q to quit."),
	}
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
