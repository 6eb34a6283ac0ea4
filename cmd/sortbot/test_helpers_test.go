package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sortbot/internal/config"
	"sortbot/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.EnvRoot, "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nroot = %q\nstate_dir = %q\nlog_dir = %q\n\n", cfg.Paths.Root, cfg.Paths.StateDir, cfg.Paths.LogDir)
	if len(cfg.Categories.Rules) > 0 {
		fmt.Fprintf(&b, "[categories]\ndefault = %q\n[categories.rules]\n", cfg.Categories.Default)
		for label, exts := range cfg.Categories.Rules {
			quoted := make([]string, len(exts))
			for i, ext := range exts {
				quoted[i] = fmt.Sprintf("%q", ext)
			}
			fmt.Fprintf(&b, "%s = [%s]\n", label, strings.Join(quoted, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "[watch]\ndebounce_ms = %d\n\n", cfg.Watch.DebounceMS)
	fmt.Fprintf(&b, "[mover]\nmax_retries = %d\ninitial_backoff_ms = %d\n\n", cfg.Mover.MaxRetries, cfg.Mover.InitialBackoffMS)
	fmt.Fprintf(&b, "[history]\nenabled = %t\n\n", cfg.History.Enabled)
	fmt.Fprintf(&b, "[logging]\nformat = \"json\"\nlevel = \"debug\"\nretention_days = %d\n", cfg.Logging.RetentionDays)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
