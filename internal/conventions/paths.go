package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default memrun data directory name (relative to home).
	DefaultDataDir = ".memrun"
	// DBFile is the filename of the run history SQLite database.
	DBFile = "memrun.db"
	// ProfilesDir is the subdirectory for run profile YAML files.
	ProfilesDir = "profiles"
	// ProfileFileExt is the file extension for run profile files.
	ProfileFileExt = ".yaml"
)

// DBPath returns the full path to the run history database.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ProfilePath returns the full path to a named run profile file.
func ProfilePath(dataDir, name string) string {
	return filepath.Join(dataDir, ProfilesDir, name+ProfileFileExt)
}
