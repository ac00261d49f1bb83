package queries

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog is an immutable set of query templates keyed by name.
//
// A Catalog is safe for concurrent use; nothing mutates it after NewCatalog returns.
type Catalog struct {
	templates map[string]*Template
	names     []string
	files     []*QueryFile
	shadowed  []*Template
}

// Filter selects templates by file metadata. Empty fields match everything.
type Filter struct {
	Tags        []string
	Environment string
	Family      string
}

// NewCatalog builds a catalog from query files given in precedence order.
// When two files define the same template name, the earlier file wins.
func NewCatalog(files ...*QueryFile) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[string]*Template),
		files:     make([]*QueryFile, 0, len(files)),
	}

	for _, file := range files {
		if file == nil {
			continue
		}
		c.files = append(c.files, file)
		for _, tmpl := range file.Templates {
			if tmpl == nil {
				continue
			}
			if !validTemplateName(tmpl.Name) {
				return nil, &QueryFileError{Source: file.Source, Field: "sources", Message: fmt.Sprintf("invalid template name %q", tmpl.Name)}
			}
			if _, exists := c.templates[tmpl.Name]; exists {
				c.shadowed = append(c.shadowed, tmpl)
				continue
			}
			if tmpl.segments == nil {
				tmpl.segments = parsePlaceholders(tmpl.Query)
			}
			c.templates[tmpl.Name] = tmpl
			c.names = append(c.names, tmpl.Name)
		}
	}

	sort.Strings(c.names)
	return c, nil
}

// Get returns the template with the given name.
func (c *Catalog) Get(name string) (*Template, error) {
	if c != nil {
		if tmpl, ok := c.templates[name]; ok {
			return tmpl, nil
		}
	}
	return nil, &UnknownTemplateError{Name: name}
}

// Len returns the number of templates in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Names returns template names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// List returns all templates sorted by name.
func (c *Catalog) List() []*Template {
	return c.Filter(Filter{})
}

// Filter returns templates whose file metadata matches the filter, sorted by name.
func (c *Catalog) Filter(f Filter) []*Template {
	if c == nil {
		return []*Template{}
	}
	result := make([]*Template, 0, len(c.names))
	for _, name := range c.names {
		tmpl := c.templates[name]
		if matchesFilter(tmpl, f) {
			result = append(result, tmpl)
		}
	}
	return result
}

// Files returns the query files the catalog was built from, in precedence order.
func (c *Catalog) Files() []*QueryFile {
	if c == nil {
		return nil
	}
	files := make([]*QueryFile, len(c.files))
	copy(files, c.files)
	return files
}

// Shadowed returns templates hidden by a same-named template from an earlier file.
func (c *Catalog) Shadowed() []*Template {
	if c == nil {
		return nil
	}
	shadowed := make([]*Template, len(c.shadowed))
	copy(shadowed, c.shadowed)
	return shadowed
}

func matchesFilter(tmpl *Template, f Filter) bool {
	var meta FileMetadata
	if tmpl.File != nil {
		meta = *tmpl.File
	}

	if len(f.Tags) > 0 && !containsAny(meta.Tags, f.Tags) {
		return false
	}
	if f.Environment != "" && !containsAny(meta.DataEnvironments, []string{f.Environment}) {
		return false
	}
	if f.Family != "" && !containsAny(meta.DataFamilies, []string{f.Family}) {
		return false
	}
	return true
}

func containsAny(values, wanted []string) bool {
	for _, want := range wanted {
		for _, value := range values {
			if strings.EqualFold(value, want) {
				return true
			}
		}
	}
	return false
}

// validTemplateName accepts names such as "list_alerts" or "alerts.by-host".
func validTemplateName(name string) bool {
	if strings.TrimSpace(name) != name || name == "" {
		return false
	}
	return !strings.ContainsAny(name, " \t\r\n{}")
}
