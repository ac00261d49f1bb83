package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigExists is returned by WriteTemplate when the file exists and force is unset.
var ErrConfigExists = errors.New("config file already exists")

// Template is the commented config file written by "querycat config init".
const Template = `# querycat Configuration File
# Values here are overridden by QUERYCAT_* environment variables and command flags.

catalog:
  # Extra directories of query files, searched before the default search paths.
  dirs: []
  # Individual query files, loaded before any directory.
  files: []
  # Adds <project_dir>/.querycat/queries ahead of the user and system paths.
  project_dir: ""
  include_builtin: true
  skip_search_paths: false

resolver:
  # Unit of a bare integer datetime offset such as -7.
  offset_unit: 24h
  time_format: "2006-01-02T15:04:05.000000Z"

logging:
  level: warn        # debug, info, warn, error
  format: console    # console or json

history:
  enabled: false
  # path: ~/.local/share/querycat/history.db
  retention: 720h

server:
  host: 127.0.0.1
  port: 50061
  requests_per_second: 50
  burst_size: 100

tui:
  theme: default     # default or high-contrast
`

// WriteTemplate writes Template to path, creating parent directories.
func WriteTemplate(path string, force bool) error {
	if path == "" {
		path = filepath.Join(DefaultConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
