package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"sortbot/internal/faults"
)

// Validate ensures the configuration is usable. Every error wraps
// faults.ErrConfiguration.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validatePaths,
		c.validateCategories,
		c.validateOrganize,
		c.validateTiming,
		c.validateMetrics,
		c.validateLogging,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return faults.Wrap(faults.ErrConfiguration, "config", "validate", "", err)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.Root == "" {
		return fmt.Errorf("paths.root must be set")
	}
	if c.Paths.StateDir == "" {
		return fmt.Errorf("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateCategories() error {
	if _, err := c.Categorizer(); err != nil {
		return fmt.Errorf("categories: %w", err)
	}
	return nil
}

func (c *Config) validateOrganize() error {
	if c.Organize.Workers < 1 {
		return fmt.Errorf("organize.workers must be at least 1")
	}
	for _, pattern := range c.Organize.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("organize.ignore: invalid pattern %q", pattern)
		}
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must be non-negative")
	}
	if c.Mover.MaxRetries < 0 {
		return fmt.Errorf("mover.max_retries must be non-negative")
	}
	if c.Mover.InitialBackoffMS < 0 {
		return fmt.Errorf("mover.initial_backoff_ms must be non-negative")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	listen := strings.TrimSpace(c.Metrics.Listen)
	if listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(listen); err != nil {
		return fmt.Errorf("metrics.listen: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
