package queries

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, source, content string) *QueryFile {
	t.Helper()
	file, err := parseQueryFile([]byte(content), source)
	require.NoError(t, err)
	return file
}

func TestCatalogFirstFileWins(t *testing.T) {
	local := mustParse(t, "local.yaml", "sources:\n  list_alerts:\n    query: Local\n  local_only:\n    query: Only\n")
	builtins, err := LoadBuiltinQueryFiles()
	require.NoError(t, err)

	catalog, err := NewCatalog(append([]*QueryFile{local}, builtins...)...)
	require.NoError(t, err)

	tmpl, err := catalog.Get("list_alerts")
	require.NoError(t, err)
	assert.Equal(t, "Local", tmpl.Query)
	assert.Equal(t, "local.yaml", tmpl.Source)

	shadowed := catalog.Shadowed()
	require.Len(t, shadowed, 1)
	assert.Equal(t, "list_alerts", shadowed[0].Name)
	assert.Equal(t, BuiltinSource, shadowed[0].Source)

	assert.Len(t, catalog.Files(), 1+len(builtins))
	assert.Contains(t, catalog.Names(), "local_only")
	assert.Contains(t, catalog.Names(), "host_alerts")
}

func TestCatalogNamesSorted(t *testing.T) {
	file := mustParse(t, "f.yaml", "sources:\n  zeta:\n    query: z\n  alpha:\n    query: a\n  mid:\n    query: m\n")

	catalog, err := NewCatalog(file)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, catalog.Names())
	assert.Equal(t, 3, catalog.Len())

	list := catalog.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)

	names := catalog.Names()
	names[0] = "mutated"
	assert.Equal(t, "alpha", catalog.Names()[0])
}

func TestCatalogGetUnknown(t *testing.T) {
	catalog, err := NewCatalog()
	require.NoError(t, err)

	_, err = catalog.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Equal(t, 0, catalog.Len())

	var nilCatalog *Catalog
	_, err = nilCatalog.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Empty(t, nilCatalog.List())
}

func TestCatalogRejectsInvalidNames(t *testing.T) {
	file := &QueryFile{
		Source:    "manual",
		Templates: []*Template{{Name: "bad name", Query: "x"}},
	}

	_, err := NewCatalog(file)
	assert.ErrorIs(t, err, ErrInvalidQueryFile)
}

func TestCatalogFilter(t *testing.T) {
	sentinel := mustParse(t, "sentinel.yaml", `metadata:
  data_environments: [LogAnalytics]
  data_families: [SecurityAlert]
  tags: [alert, azure]
sources:
  sentinel_alerts:
    query: SecurityAlert
`)
	builtins, err := LoadBuiltinQueryFiles()
	require.NoError(t, err)

	catalog, err := NewCatalog(append([]*QueryFile{sentinel}, builtins...)...)
	require.NoError(t, err)

	azure := catalog.Filter(Filter{Tags: []string{"Azure"}})
	require.Len(t, azure, 1)
	assert.Equal(t, "sentinel_alerts", azure[0].Name)

	mde := catalog.Filter(Filter{Environment: "mde"})
	assert.NotEmpty(t, mde)
	for _, tmpl := range mde {
		assert.Equal(t, BuiltinSource, tmpl.Source)
	}

	both := catalog.Filter(Filter{Tags: []string{"alert"}})
	assert.Len(t, both, catalog.Len())

	none := catalog.Filter(Filter{Family: "SecurityAlert", Environment: "MDATP"})
	assert.Empty(t, none)
}

func TestBuiltinCatalogPlaceholdersDeclared(t *testing.T) {
	files, err := LoadBuiltinQueryFiles()
	require.NoError(t, err)
	catalog, err := NewCatalog(files...)
	require.NoError(t, err)

	for _, tmpl := range catalog.List() {
		for _, name := range tmpl.Placeholders() {
			_, ok := tmpl.Parameter(name)
			assert.True(t, ok, "%s: placeholder %q is not declared", tmpl.Name, name)
		}
		assert.Equal(t, "alerts", tmpl.DataSource(), tmpl.Name)
		assert.Contains(t, tmpl.Tags(), "security", tmpl.Name)
	}
}

func TestParsePlaceholders(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []segment
	}{
		{
			name:  "plain text",
			query: "SecurityAlert | take 10",
			want:  []segment{{text: "SecurityAlert | take 10"}},
		},
		{
			name:  "placeholders",
			query: "{table} | take {n}",
			want: []segment{
				{text: "table", placeholder: true},
				{text: " | take "},
				{text: "n", placeholder: true},
			},
		},
		{
			name:  "escaped braces",
			query: `print d = dynamic({{"a": "{v}"}})`,
			want: []segment{
				{text: `print d = dynamic({"a": "`},
				{text: "v", placeholder: true},
				{text: `"})`},
			},
		},
		{
			name:  "non identifier braces stay literal",
			query: "{ x } {1a} {",
			want:  []segment{{text: "{ x } {1a} {"}},
		},
		{
			name:  "adjacent placeholders",
			query: "{a}{b}",
			want: []segment{
				{text: "a", placeholder: true},
				{text: "b", placeholder: true},
			},
		},
		{
			name:  "empty",
			query: "",
			want:  []segment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePlaceholders(tt.query))
		})
	}
}

func TestParseOverrides(t *testing.T) {
	files, err := LoadBuiltinQueryFiles()
	require.NoError(t, err)
	catalog, err := NewCatalog(files...)
	require.NoError(t, err)
	tmpl, err := catalog.Get("top_alerting_hosts")
	require.NoError(t, err)

	overrides, err := ParseOverrides(tmpl, []string{"limit=25", "start=-7", "table=Alerts=Archive", "extra="})
	require.NoError(t, err)

	assert.Equal(t, int64(25), overrides["limit"])
	assert.Equal(t, "-7", overrides["start"])
	assert.Equal(t, "Alerts=Archive", overrides["table"])
	assert.Equal(t, "", overrides["extra"])

	r := NewResolver(catalog, WithClock(fixedClock))
	query, err := r.Resolve(tmpl.Name, overrides)
	require.NoError(t, err)
	assert.Contains(t, query, "| top 25 by AlertCount desc")
	assert.Contains(t, query, "datetime(2026-10-11T12:00:00.000000Z)")
}

func TestParseOverridesErrors(t *testing.T) {
	files, err := LoadBuiltinQueryFiles()
	require.NoError(t, err)
	catalog, err := NewCatalog(files...)
	require.NoError(t, err)
	tmpl, err := catalog.Get("top_alerting_hosts")
	require.NoError(t, err)

	_, err = ParseOverrides(tmpl, []string{"limit=many"})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = ParseOverrides(tmpl, []string{"noequals"})
	assert.Error(t, err)

	_, err = ParseOverrides(tmpl, []string{"bad-name=1"})
	assert.Error(t, err)

	overrides, err := ParseOverrides(nil, []string{"limit=many"})
	require.NoError(t, err)
	assert.Equal(t, "many", overrides["limit"])
}
