package config

import (
	"os"
	"path/filepath"
)

// FileNames are the config file names searched in the working directory.
var FileNames = []string{"gomigrator.yaml", ".gomigrator.yaml", "gomigrator.hcl"}

// DefaultConfigLocations returns the config file locations to search in
// precedence order
func DefaultConfigLocations() []string {
	var locations []string

	if cwd, err := os.Getwd(); err == nil {
		for _, name := range FileNames {
			locations = append(locations, filepath.Join(cwd, name))
		}
	}

	if p := GetUserConfigPath(); p != "" {
		locations = append(locations, p)
	}

	return locations
}

// FindConfigFile finds the first existing config file
func FindConfigFile() string {
	for _, loc := range DefaultConfigLocations() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// GetUserConfigPath returns the user-level config path
func GetUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gomigrator", "config.yaml")
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *Config {
	return (&Config{}).withDefaults()
}

// LoadOrDefault loads path, or the first config file found when path is
// empty, or the defaults when there is none. It returns the file used.
func LoadOrDefault(path string) (*Config, string, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return NewDefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
