package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sortbot/internal/categorize"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCategories(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(EnvRoot); ok && strings.TrimSpace(value) != "" {
		c.Paths.Root = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = defaultRoot
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.Root, err = expandPath(strings.TrimSpace(c.Paths.Root)); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

// normalizeCategories title-cases labels and canonicalizes extensions. Two
// labels that collapse to the same title are merged so the duplicate
// extension check in categorize.New still sees every claim.
func (c *Config) normalizeCategories() error {
	c.Categories.Default = NormalizeLabel(c.Categories.Default)
	if c.Categories.Default == "" {
		c.Categories.Default = categorize.Others
	}
	if len(c.Categories.Rules) == 0 {
		c.Categories.Rules = nil
		return nil
	}

	rules := make(map[string][]string, len(c.Categories.Rules))
	for rawLabel, exts := range c.Categories.Rules {
		label := NormalizeLabel(rawLabel)
		if label == "" {
			return fmt.Errorf("categories.rules: empty category label %q", rawLabel)
		}
		for _, raw := range exts {
			rules[label] = append(rules[label], categorize.NormalizeExtension(raw))
		}
		if _, ok := rules[label]; !ok {
			rules[label] = []string{}
		}
	}
	c.Categories.Rules = rules
	return nil
}

func (c *Config) normalizeOrganize() {
	if c.Organize.Ignore == nil {
		c.Organize.Ignore = DefaultIgnore()
	}
	patterns := make([]string, 0, len(c.Organize.Ignore))
	for _, pattern := range c.Organize.Ignore {
		if trimmed := strings.TrimSpace(pattern); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	c.Organize.Ignore = patterns
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

var titleCaser = cases.Title(language.English)

// NormalizeLabel trims a category label and title-cases it.
func NormalizeLabel(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return ""
	}
	return titleCaser.String(label)
}
