package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"sortbot/internal/categorize"
	"sortbot/internal/faults"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	Root     string `toml:"root"`
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Categories overrides the built-in extension rule table. When Rules is
// non-empty it replaces the defaults wholesale.
type Categories struct {
	Default string              `toml:"default"`
	Rules   map[string][]string `toml:"rules"`
}

// Organize controls batch scans and per-file filtering.
type Organize struct {
	Ignore  []string `toml:"ignore"`
	Workers int      `toml:"workers"`
}

// Watch controls the real-time monitor.
type Watch struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Mover controls retry of transiently locked files.
type Mover struct {
	MaxRetries       int `toml:"max_retries"`
	InitialBackoffMS int `toml:"initial_backoff_ms"`
}

// History controls the outcome ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Metrics controls the Prometheus endpoint served while watching.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sortbot.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Categories Categories `toml:"categories"`
	Organize   Organize   `toml:"organize"`
	Watch      Watch      `toml:"watch"`
	Mover      Mover      `toml:"mover"`
	History    History    `toml:"history"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sortbot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Errors wrap faults.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, invalid("resolve path", err)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, invalid("open config", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, invalid("parse config", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, invalid("normalize", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("sortbot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state, lock, and log directories. The organized
// root is never created here; a missing root is reported by the organizer.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LockDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Categorizer builds the rule table described by the configuration.
func (c *Config) Categorizer() (*categorize.Categorizer, error) {
	return categorize.New(c.Rules(), c.Categories.Default)
}

// Rules returns the configured rule table, falling back to the built-in defaults.
func (c *Config) Rules() categorize.Rules {
	if len(c.Categories.Rules) == 0 {
		return categorize.DefaultRules()
	}
	return categorize.Rules(c.Categories.Rules)
}

// HistoryPath is the SQLite outcome ledger location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockDir holds the per-root single-instance lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// DebounceWindow is the quiet period a watched path must observe before it is organized.
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// InitialBackoff is the first delay between attempts on a locked file.
func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.Mover.InitialBackoffMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config already exists at %s", path)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}

func invalid(operation string, err error) error {
	return faults.Wrap(faults.ErrConfiguration, "config", operation, "", err)
}
