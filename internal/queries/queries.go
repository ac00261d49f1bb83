// Package queries provides loading and resolution of parameterized alert query templates.
package queries

import "strings"

// ParamType is the declared type of a template parameter.
type ParamType string

const (
	ParamTypeString   ParamType = "str"
	ParamTypeInt      ParamType = "int"
	ParamTypeDatetime ParamType = "datetime"
)

// Valid reports whether the type is one of the supported parameter types.
func (t ParamType) Valid() bool {
	switch t {
	case ParamTypeString, ParamTypeInt, ParamTypeDatetime:
		return true
	default:
		return false
	}
}

// Parameter describes a single template parameter.
type Parameter struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`

	// HasDefault distinguishes an empty default ("") from an absent one.
	HasDefault bool `json:"has_default"`
}

// Required reports whether the parameter must be supplied by the caller.
func (p Parameter) Required() bool {
	return !p.HasDefault
}

// Template is a single named query definition.
type Template struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Parameters  []Parameter    `json:"parameters,omitempty"`
	Query       string         `json:"query"`

	// Defaults is the shared parameter set of the file the template came from.
	Defaults []Parameter   `json:"defaults,omitempty"`
	File     *FileMetadata `json:"-"`
	Source   string        `json:"source"` // file path or "builtin"

	segments []segment
}

// FileMetadata is the top-level metadata block of a query file.
type FileMetadata struct {
	Version          int      `yaml:"version" json:"version"`
	Description      string   `yaml:"description" json:"description,omitempty"`
	DataEnvironments []string `yaml:"data_environments,omitempty" json:"data_environments,omitempty"`
	DataFamilies     []string `yaml:"data_families,omitempty" json:"data_families,omitempty"`
	Tags             []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// QueryFile is a parsed query file: metadata, shared defaults and its templates.
type QueryFile struct {
	Metadata        FileMetadata
	DefaultMetadata map[string]any
	Defaults        []Parameter
	Templates       []*Template
	Source          string
}

// EffectiveParameters returns the shared defaults merged with the template's own
// parameters. A query-specific parameter replaces a shared one of the same name in place;
// the rest are appended in declaration order.
func (t *Template) EffectiveParameters() []Parameter {
	merged := make([]Parameter, 0, len(t.Defaults)+len(t.Parameters))
	index := make(map[string]int, len(t.Defaults)+len(t.Parameters))

	for _, param := range t.Defaults {
		index[param.Name] = len(merged)
		merged = append(merged, param)
	}
	for _, param := range t.Parameters {
		if i, ok := index[param.Name]; ok {
			merged[i] = param
			continue
		}
		index[param.Name] = len(merged)
		merged = append(merged, param)
	}
	return merged
}

// Parameter returns the effective parameter with the given name.
func (t *Template) Parameter(name string) (Parameter, bool) {
	for i := len(t.Parameters) - 1; i >= 0; i-- {
		if t.Parameters[i].Name == name {
			return t.Parameters[i], true
		}
	}
	for _, param := range t.Defaults {
		if param.Name == name {
			return param, true
		}
	}
	return Parameter{}, false
}

// Placeholders returns the placeholder names referenced by the query, in order of
// first appearance.
func (t *Template) Placeholders() []string {
	segments := t.segments
	if segments == nil {
		segments = parsePlaceholders(t.Query)
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, seg := range segments {
		if !seg.placeholder {
			continue
		}
		if _, ok := seen[seg.text]; ok {
			continue
		}
		seen[seg.text] = struct{}{}
		names = append(names, seg.text)
	}
	return names
}

// Tags returns the tags of the file the template was loaded from.
func (t *Template) Tags() []string {
	if t.File == nil {
		return nil
	}
	return t.File.Tags
}

// DataSource returns the data_source metadata value, if any.
func (t *Template) DataSource() string {
	if t.Metadata == nil {
		return ""
	}
	value, _ := t.Metadata["data_source"].(string)
	return strings.TrimSpace(value)
}
