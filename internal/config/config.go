// Package config holds gjfed configuration: a YAML file with defaults and
// GJFED_* environment overrides. The config never changes engine semantics;
// it only points at the catalog, the backup store and presentation options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full gjfed configuration.
type Config struct {
	// CatalogPath overrides the embedded keyword catalog. Empty means use
	// the catalog compiled into the binary.
	CatalogPath string `yaml:"catalog_path,omitempty"`

	// BackupDir is where pre-save copies go.
	BackupDir string `yaml:"backup_dir,omitempty"`

	// KeepBackups bounds the store; cleanup keeps this many.
	// Zero or negative disables pruning.
	KeepBackups int `yaml:"keep_backups,omitempty"`

	// Verbose switches the logger to debug level.
	Verbose bool `yaml:"verbose,omitempty"`

	// Theme for the TUI ("light" or "dark").
	Theme string `yaml:"theme,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BackupDir:   "backups",
		KeepBackups: 10,
		Theme:       "dark",
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "gjfed", "config.yaml")
}

// Load reads configuration from path (or DefaultPath when path is empty),
// fills unset fields from Default, and applies environment overrides last.
// A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			if cfg.BackupDir == "" {
				cfg.BackupDir = Default().BackupDir
			}
			if cfg.Theme == "" {
				cfg.Theme = Default().Theme
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv maps GJFED_* variables over the loaded values. Environment wins
// over file; flags win over both (handled by the command layer).
func (c *Config) applyEnv() {
	if v := os.Getenv("GJFED_CATALOG"); v != "" {
		c.CatalogPath = v
	}
	if v := os.Getenv("GJFED_BACKUP_DIR"); v != "" {
		c.BackupDir = v
	}
	if v := os.Getenv("GJFED_KEEP_BACKUPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.KeepBackups = n
		}
	}
	if v := os.Getenv("GJFED_VERBOSE"); v == "1" || v == "true" {
		c.Verbose = true
	}
	if v := os.Getenv("GJFED_THEME"); v != "" {
		c.Theme = v
	}
}
