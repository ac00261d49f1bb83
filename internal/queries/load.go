package queries

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type rawQueryFile struct {
	Metadata FileMetadata `yaml:"metadata"`
	Defaults struct {
		Metadata   map[string]any `yaml:"metadata"`
		Parameters yaml.Node      `yaml:"parameters"`
	} `yaml:"defaults"`
	Sources yaml.Node `yaml:"sources"`
}

type rawSource struct {
	Description string         `yaml:"description"`
	Metadata    map[string]any `yaml:"metadata"`
	Args        struct {
		Query string `yaml:"query"`
	} `yaml:"args"`
	Query      string    `yaml:"query"`
	Parameters yaml.Node `yaml:"parameters"`
}

type rawParameter struct {
	Description string    `yaml:"description"`
	Type        string    `yaml:"type"`
	Default     yaml.Node `yaml:"default"`
}

// LoadQueryFile reads a single query file from disk.
func LoadQueryFile(path string) (*QueryFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("query file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file %s: %w", path, err)
	}

	file, err := parseQueryFile(data, path)
	if err != nil {
		return nil, fmt.Errorf("parse query file %s: %w", path, err)
	}
	return file, nil
}

// LoadQueryFilesFromDir loads all query files from a directory.
func LoadQueryFilesFromDir(dir string) ([]*QueryFile, error) {
	if strings.TrimSpace(dir) == "" {
		return []*QueryFile{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*QueryFile{}, nil
		}
		return nil, fmt.Errorf("read query dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	files := make([]*QueryFile, 0, len(names))
	for _, name := range names {
		file, err := LoadQueryFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	return files, nil
}

func parseQueryFile(data []byte, source string) (*QueryFile, error) {
	var raw rawQueryFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	defaults, err := parseParameters(&raw.Defaults.Parameters, source, "defaults.parameters")
	if err != nil {
		return nil, err
	}

	file := &QueryFile{
		Metadata:        raw.Metadata,
		DefaultMetadata: raw.Defaults.Metadata,
		Defaults:        defaults,
		Source:          source,
	}
	file.Metadata.Description = strings.TrimSpace(file.Metadata.Description)

	if isEmptyNode(&raw.Sources) {
		return nil, &QueryFileError{Source: source, Field: "sources", Message: "at least one source is required"}
	}
	if raw.Sources.Kind != yaml.MappingNode {
		return nil, &QueryFileError{Source: source, Field: "sources", Message: "must be a mapping of template name to definition"}
	}

	seen := make(map[string]struct{})
	for i := 0; i+1 < len(raw.Sources.Content); i += 2 {
		name := strings.TrimSpace(raw.Sources.Content[i].Value)
		field := "sources." + name
		if !validTemplateName(name) {
			return nil, &QueryFileError{Source: source, Field: "sources", Message: fmt.Sprintf("invalid template name %q", name)}
		}
		if _, exists := seen[name]; exists {
			return nil, &QueryFileError{Source: source, Field: field, Message: "duplicate template name"}
		}
		seen[name] = struct{}{}

		var src rawSource
		if err := raw.Sources.Content[i+1].Decode(&src); err != nil {
			return nil, &QueryFileError{Source: source, Field: field, Message: err.Error()}
		}

		query := src.Args.Query
		if query == "" {
			query = src.Query
		}
		if strings.TrimSpace(query) == "" {
			return nil, &QueryFileError{Source: source, Field: field + ".args.query", Message: "query is required"}
		}
		if src.Args.Query != "" && src.Query != "" && src.Args.Query != src.Query {
			return nil, &QueryFileError{Source: source, Field: field, Message: "query and args.query disagree"}
		}

		params, err := parseParameters(&src.Parameters, source, field+".parameters")
		if err != nil {
			return nil, err
		}

		tmpl := &Template{
			Name:        name,
			Description: strings.TrimSpace(src.Description),
			Metadata:    mergeMetadata(raw.Defaults.Metadata, src.Metadata),
			Parameters:  params,
			Query:       query,
			Defaults:    defaults,
			File:        &file.Metadata,
			Source:      source,
			segments:    parsePlaceholders(query),
		}
		file.Templates = append(file.Templates, tmpl)
	}

	return file, nil
}

// parseParameters decodes a parameter mapping, keeping document order.
func parseParameters(node *yaml.Node, source, field string) ([]Parameter, error) {
	if isEmptyNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &QueryFileError{Source: source, Field: field, Message: "must be a mapping of parameter name to definition"}
	}

	params := make([]Parameter, 0, len(node.Content)/2)
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		paramField := field + "." + name
		if !isIdentifier(name) {
			return nil, &QueryFileError{Source: source, Field: paramField, Message: "parameter name must be an identifier"}
		}
		if _, exists := seen[name]; exists {
			return nil, &QueryFileError{Source: source, Field: paramField, Message: "duplicate parameter"}
		}
		seen[name] = struct{}{}

		var raw rawParameter
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, &QueryFileError{Source: source, Field: paramField, Message: err.Error()}
		}

		param := Parameter{
			Name:        name,
			Type:        ParamType(strings.ToLower(strings.TrimSpace(raw.Type))),
			Description: strings.TrimSpace(raw.Description),
		}
		if param.Type == "" {
			param.Type = ParamTypeString
		}
		if !param.Type.Valid() {
			return nil, &QueryFileError{Source: source, Field: paramField + ".type", Message: fmt.Sprintf("unknown parameter type %q", raw.Type)}
		}

		if !isEmptyNode(&raw.Default) {
			var value any
			if err := raw.Default.Decode(&value); err != nil {
				return nil, &QueryFileError{Source: source, Field: paramField + ".default", Message: err.Error()}
			}
			if err := checkValue(param.Type, value); err != nil {
				return nil, &QueryFileError{Source: source, Field: paramField + ".default", Message: err.Error()}
			}
			param.Default = value
			param.HasDefault = true
		}

		params = append(params, param)
	}

	return params, nil
}

func isEmptyNode(node *yaml.Node) bool {
	if node == nil || node.Kind == 0 {
		return true
	}
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func mergeMetadata(maps ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}
