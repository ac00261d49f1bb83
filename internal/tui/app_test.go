package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/querycat/internal/models"
	"github.com/opencode-ai/querycat/internal/queries"
)

func newTestModel(t *testing.T) model {
	t.Helper()
	files, err := queries.LoadBuiltinQueryFiles()
	require.NoError(t, err)
	catalog, err := queries.NewCatalog(files...)
	require.NoError(t, err)

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	resolver := queries.NewResolver(catalog, queries.WithClock(func() time.Time { return now }))

	m, err := newModel(Config{Resolver: resolver})
	require.NoError(t, err)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 60})
	return updated.(model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m model, keys ...string) model {
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(model)
	}
	return m
}

func TestNewModelRequiresResolver(t *testing.T) {
	_, err := newModel(Config{})
	assert.Error(t, err)
}

func TestNewModelRejectsUnknownTheme(t *testing.T) {
	files, err := queries.LoadBuiltinQueryFiles()
	require.NoError(t, err)
	catalog, err := queries.NewCatalog(files...)
	require.NoError(t, err)

	_, err = newModel(Config{Resolver: queries.NewResolver(catalog), Theme: "neon"})
	assert.Error(t, err)

	m, err := newModel(Config{Resolver: queries.NewResolver(catalog), Theme: "high-contrast"})
	require.NoError(t, err)
	assert.Equal(t, "high-contrast", m.styles.Theme.Name)
}

func TestViewListsTemplates(t *testing.T) {
	m := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, "querycat catalog (10 templates)")
	assert.Contains(t, view, "> get_alert")
	assert.Contains(t, view, "host_alerts")
	assert.Contains(t, view, "query:")
	assert.Contains(t, view, "source: builtin")
}

func TestNavigation(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "j", "down")
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, "list_alerts", m.selected().Name)

	m = press(m, "k")
	assert.Equal(t, "host_alerts", m.selected().Name)

	m = press(m, "G")
	assert.Equal(t, "top_alerting_hosts", m.selected().Name)
	m = press(m, "j")
	assert.Equal(t, "top_alerting_hosts", m.selected().Name)

	m = press(m, "g", "k")
	assert.Equal(t, 0, m.cursor)
}

func TestSearchFiltersTemplates(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "/", "h", "a", "s", "h")
	assert.True(t, m.searching)
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "list_alerts_for_hash", m.selected().Name)
	assert.Contains(t, m.View(), "/hash_")

	m = press(m, "enter")
	assert.False(t, m.searching)
	assert.Equal(t, "hash", m.search)

	m = press(m, "/", "z", "z")
	assert.Empty(t, m.filtered)
	assert.Contains(t, m.View(), `No templates match "hashzz"`)

	m = press(m, "backspace", "backspace", "enter")
	assert.Len(t, m.filtered, 1)

	m = press(m, "esc")
	assert.Equal(t, "", m.search)
	assert.Len(t, m.filtered, 10)
}

func TestSearchMatchesTags(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "/", "S", "E", "C", "U", "R", "I", "T", "Y")
	assert.Len(t, m.filtered, 10)
}

func TestToggleResolvedView(t *testing.T) {
	m := newTestModel(t)

	// list_alerts resolves from defaults alone.
	m = press(m, "j", "j", "tab")
	assert.True(t, m.showResolved)
	view := m.View()
	assert.Contains(t, view, "resolved with defaults:")
	assert.Contains(t, view, "datetime(2026-09-18T12:00:00.000000Z)")

	// host_alerts needs host_name.
	m = press(m, "k")
	view = m.View()
	assert.Contains(t, view, "host_name")
	assert.Contains(t, view, "required")
	assert.NotContains(t, view, "resolved with defaults:")

	m = press(m, "tab")
	assert.Contains(t, m.View(), `ComputerName has "{host_name}"`)
}

func TestSmallTerminal(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	view := updated.(model).View()

	assert.Contains(t, view, "Terminal too small (40x10).")
	assert.False(t, strings.Contains(view, "querycat catalog"))
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "esc"} {
		m := newTestModel(t)
		_, cmd := m.Update(key(k))
		require.NotNil(t, cmd, k)
		assert.Equal(t, tea.QuitMsg{}, cmd(), k)
	}

	m := newTestModel(t)
	m = press(m, "/")
	_, cmd := m.Update(key("q"))
	assert.Nil(t, cmd)
}

func TestEmptyCatalog(t *testing.T) {
	catalog, err := queries.NewCatalog()
	require.NoError(t, err)
	m, err := newModel(Config{Resolver: queries.NewResolver(catalog)})
	require.NoError(t, err)

	assert.Contains(t, m.View(), "No query templates loaded")
	assert.Nil(t, m.selected())
}

type fakeHistory struct {
	created []*models.Resolution
	err     error
}

func (f *fakeHistory) Create(ctx context.Context, res *models.Resolution) error {
	if f.err != nil {
		return f.err
	}
	res.ID = "res-1"
	f.created = append(f.created, res)
	return nil
}

func TestRecordSelected(t *testing.T) {
	repo := &fakeHistory{}
	m := newTestModel(t)
	m.history = repo

	// list_alerts
	m = press(m, "j", "j")
	updated, cmd := m.Update(key("r"))
	require.NotNil(t, cmd)
	updated, _ = updated.(model).Update(cmd())
	m = updated.(model)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "list_alerts", repo.created[0].Template)
	assert.Equal(t, models.ResolutionSourceTUI, repo.created[0].Source)
	assert.Equal(t, queries.BuiltinSource, repo.created[0].TemplateSource)
	assert.Contains(t, m.View(), "recorded list_alerts as res-1")
}

func TestRecordErrors(t *testing.T) {
	m := newTestModel(t)
	updated, cmd := m.Update(key("r"))
	assert.Nil(t, cmd)
	assert.Contains(t, updated.(model).View(), "history is disabled")

	// host_alerts needs host_name.
	m.history = &fakeHistory{}
	m = press(m, "j")
	updated, cmd = m.Update(key("r"))
	assert.Nil(t, cmd)
	assert.Contains(t, updated.(model).View(), "cannot record")

	m.history = &fakeHistory{err: errors.New("disk full")}
	m = press(m, "j")
	_, cmd = m.Update(key("r"))
	require.NotNil(t, cmd)
	updated, _ = m.Update(cmd())
	assert.Contains(t, updated.(model).View(), "disk full")
}
