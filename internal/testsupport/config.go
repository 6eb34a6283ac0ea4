package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sortbot/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// an existing root plus state and log directories outside it. Timing is
// shortened so watch and retry tests stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Root = filepath.Join(base, "inbox")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Watch.DebounceMS = 50
	cfgVal.Mover.InitialBackoffMS = 1
	cfgVal.Logging.RetentionDays = 0

	if err := os.MkdirAll(cfgVal.Paths.Root, 0o755); err != nil {
		t.Fatalf("mkdir root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRules replaces the category rule table.
func WithRules(fallback string, rules map[string][]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categories.Default = fallback
		b.cfg.Categories.Rules = rules
	}
}

// WithHistoryDisabled turns off the SQLite outcome ledger.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// WithRootInsideState nests the root under the state directory, a layout the
// startup check must reject.
func WithRootInsideState() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.StateDir = b.cfg.Paths.Root
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.Root)
}
