package queries

import (
	"os"
	"path/filepath"
)

// QueryFileSearchPaths returns query directories in precedence order.
func QueryFileSearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".querycat", "queries"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "querycat", "queries"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "querycat", "queries"))
	return paths
}

// LoadOptions controls which query files make up a catalog.
type LoadOptions struct {
	// ProjectDir adds <dir>/.querycat/queries ahead of the user and system paths.
	ProjectDir string
	// Dirs are searched before the default search paths.
	Dirs []string
	// Files are loaded before any directory.
	Files []string
	// SkipSearchPaths disables the default search paths.
	SkipSearchPaths bool
	// SkipBuiltin disables the bundled query files.
	SkipBuiltin bool
}

// LoadQueryFiles loads query files in precedence order: explicit files, explicit
// directories, search paths, then builtins.
func LoadQueryFiles(opts LoadOptions) ([]*QueryFile, error) {
	files := make([]*QueryFile, 0)

	for _, path := range opts.Files {
		file, err := LoadQueryFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	dirs := append([]string{}, opts.Dirs...)
	if !opts.SkipSearchPaths {
		dirs = append(dirs, QueryFileSearchPaths(opts.ProjectDir)...)
	}
	for _, dir := range dirs {
		loaded, err := LoadQueryFilesFromDir(dir)
		if err != nil {
			return nil, err
		}
		files = append(files, loaded...)
	}

	if !opts.SkipBuiltin {
		builtins, err := LoadBuiltinQueryFiles()
		if err != nil {
			return nil, err
		}
		files = append(files, builtins...)
	}

	return files, nil
}

// LoadCatalog loads query files and builds a catalog from them.
func LoadCatalog(opts LoadOptions) (*Catalog, error) {
	files, err := LoadQueryFiles(opts)
	if err != nil {
		return nil, err
	}
	return NewCatalog(files...)
}
