package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"sortbot/internal/categorize"
	"sortbot/internal/config"
	"sortbot/internal/faults"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvRoot, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "Downloads"); cfg.Paths.Root != want {
		t.Fatalf("unexpected root: got %q want %q", cfg.Paths.Root, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "sortbot"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if cfg.DebounceWindow() != time.Second {
		t.Fatalf("expected 1s debounce, got %s", cfg.DebounceWindow())
	}
	if cfg.InitialBackoff() != time.Second || cfg.Mover.MaxRetries != 3 {
		t.Fatalf("unexpected mover defaults: %+v", cfg.Mover)
	}
	if cfg.Organize.Workers != 4 {
		t.Fatalf("unexpected workers %d", cfg.Organize.Workers)
	}
	if len(cfg.Organize.Ignore) != len(config.DefaultIgnore()) {
		t.Fatalf("unexpected ignore list %v", cfg.Organize.Ignore)
	}

	cat, err := cfg.Categorizer()
	if err != nil {
		t.Fatalf("Categorizer: %v", err)
	}
	if got := cat.Category("Report.PDF"); got != categorize.Documents {
		t.Fatalf("expected Documents, got %q", got)
	}
}

func TestLoadHonoursRootEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := t.TempDir()
	t.Setenv(config.EnvRoot, override)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.Root != override {
		t.Fatalf("expected root %q, got %q", override, cfg.Paths.Root)
	}
}

func TestLoadCustomRulesNormalizesLabels(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvRoot, "")
	path := filepath.Join(t.TempDir(), "sortbot.toml")
	content := `
[paths]
root = "~/inbox"

[categories]
default = "misc"

[categories.rules]
ebooks = [".EPUB", "mobi"]
pictures = ["JPG"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Categories.Default != "Misc" {
		t.Fatalf("expected title-cased default, got %q", cfg.Categories.Default)
	}
	exts, ok := cfg.Categories.Rules["Ebooks"]
	if !ok {
		t.Fatalf("expected Ebooks label, got %v", cfg.Categories.Rules)
	}
	if strings.Join(exts, ",") != "epub,mobi" {
		t.Fatalf("unexpected extensions %v", exts)
	}

	cat, err := cfg.Categorizer()
	if err != nil {
		t.Fatalf("Categorizer: %v", err)
	}
	if got := cat.Category("novel.epub"); got != "Ebooks" {
		t.Fatalf("expected Ebooks, got %q", got)
	}
	if got := cat.Category("song.mp3"); got != "Misc" {
		t.Fatalf("custom rules replace defaults; expected Misc, got %q", got)
	}
}

func TestLoadRejectsDuplicateExtension(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "dup.toml")
	content := `
[categories.rules]
Pictures = ["png"]
Images = ["PNG"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected duplicate extension error")
	}
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "typo.toml")
	if err := os.WriteFile(path, []byte("[watch]\ndebounce = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown key, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"workers", func(c *config.Config) { c.Organize.Workers = 0 }},
		{"debounce", func(c *config.Config) { c.Watch.DebounceMS = -1 }},
		{"retries", func(c *config.Config) { c.Mover.MaxRetries = -1 }},
		{"backoff", func(c *config.Config) { c.Mover.InitialBackoffMS = -5 }},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }},
		{"glob", func(c *config.Config) { c.Organize.Ignore = []string{"[abc"} }},
		{"label", func(c *config.Config) { c.Categories.Rules = map[string][]string{"a/b": {"x"}} }},
		{"metrics", func(c *config.Config) { c.Metrics.Listen = "9464" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.Root = t.TempDir()
			cfg.Paths.StateDir = t.TempDir()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !faults.IsFatal(err) {
				t.Fatalf("expected fatal configuration error, got %v", err)
			}
		})
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(config.EnvRoot, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Watch.DebounceMS != 1000 || decoded.Mover.MaxRetries != 3 {
		t.Fatalf("sample drifted from defaults: %+v %+v", decoded.Watch, decoded.Mover)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if err := config.CreateSample(path); err == nil {
		t.Fatal("expected CreateSample to refuse overwriting")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.LockDir(), cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	cases := map[string]string{
		"  pictures ": "Pictures",
		"DOCUMENTS":   "Documents",
		"raw   files": "Raw Files",
		"":            "",
	}
	for in, want := range cases {
		if got := config.NormalizeLabel(in); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
