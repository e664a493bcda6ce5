package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBackupSuffix is appended to a file's path to name its backup.
const DefaultBackupSuffix = ".bak"

// DefaultWatchDebounce is how long the watcher waits for a burst of file
// events to settle before invalidating the graph.
const DefaultWatchDebounce = 500 * time.Millisecond

// DefaultMCPAddr is the listen address of the MCP server.
const DefaultMCPAddr = "localhost:8089"

// ProjectConfig holds project-level settings loaded from pyimports.yml.
type ProjectConfig struct {
	ExcludeDirs     []string `yaml:"excludeDirs,omitempty"`
	ExcludeGlobs    []string `yaml:"excludeGlobs,omitempty"`
	BackupSuffix    string   `yaml:"backupSuffix,omitempty"`
	Workers         int      `yaml:"workers,omitempty"`
	ParseCacheSize  int      `yaml:"parseCacheSize,omitempty"`
	LogLevel        string   `yaml:"logLevel,omitempty"`
	WatchDebounceMs int      `yaml:"watchDebounceMs,omitempty"`
	MCPAddr         string   `yaml:"mcpAddr,omitempty"`
}

// Load attempts to read pyimports.yml or pyimports.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"pyimports.yml", "pyimports.yaml"} {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		return cfg, err
	}
	return &ProjectConfig{}, nil
}

// LoadFile reads a config from an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Backup returns the configured backup suffix or the default.
func (c *ProjectConfig) Backup() string {
	if c.BackupSuffix == "" {
		return DefaultBackupSuffix
	}
	return c.BackupSuffix
}

// WatchDebounce returns the configured debounce window or the default.
func (c *ProjectConfig) WatchDebounce() time.Duration {
	if c.WatchDebounceMs <= 0 {
		return DefaultWatchDebounce
	}
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// Addr returns the configured MCP listen address or the default.
func (c *ProjectConfig) Addr() string {
	if c.MCPAddr == "" {
		return DefaultMCPAddr
	}
	return c.MCPAddr
}
