package queries

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// BuiltinSource marks templates bundled with querycat.
const BuiltinSource = "builtin"

// LoadBuiltinQueryFiles returns the query files bundled with querycat.
func LoadBuiltinQueryFiles() ([]*QueryFile, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin queries: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	files := make([]*QueryFile, 0, len(names))
	for _, name := range names {
		data, err := builtinFS.ReadFile("builtin/" + name)
		if err != nil {
			return nil, fmt.Errorf("read builtin query file %s: %w", name, err)
		}
		file, err := parseQueryFile(data, BuiltinSource)
		if err != nil {
			return nil, fmt.Errorf("parse builtin query file %s: %w", name, err)
		}
		files = append(files, file)
	}

	return files, nil
}
