package config

import "sortbot/internal/categorize"

const (
	defaultRoot             = "~/Downloads"
	defaultStateDir         = "~/.local/share/sortbot"
	defaultLogDir           = "~/.local/share/sortbot/logs"
	defaultWorkers          = 4
	defaultDebounceMS       = 1000
	defaultMaxRetries       = 3
	defaultInitialBackoffMS = 1000
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30

	// EnvRoot overrides paths.root when set.
	EnvRoot = "SORTBOT_ROOT"
)

// DefaultIgnore lists the partial-download and temporary-file globs skipped
// unless the configuration provides its own list.
func DefaultIgnore() []string {
	return []string{"*.tmp", "*.temp", "*.part", "*.crdownload", "*.download", "*.partial", "~$*"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			Root:     defaultRoot,
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Categories: Categories{
			Default: categorize.Others,
		},
		Organize: Organize{
			Ignore:  DefaultIgnore(),
			Workers: defaultWorkers,
		},
		Watch: Watch{
			DebounceMS: defaultDebounceMS,
		},
		Mover: Mover{
			MaxRetries:       defaultMaxRetries,
			InitialBackoffMS: defaultInitialBackoffMS,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
