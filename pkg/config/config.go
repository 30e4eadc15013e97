package config

import "time"

// Config is the root Tiller configuration.
type Config struct {
	// Rules configures the rule directories and engine limits.
	Rules RulesConfig `yaml:"rules"`

	// Audit configures evaluation trace persistence.
	Audit AuditConfig `yaml:"audit"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus instrumentation.
	Metrics MetricsConfig `yaml:"metrics"`
}

// RulesConfig configures the rule store, parser, and merger.
type RulesConfig struct {
	// GlobalDir, UserDir, and ProjectDir are the scope directories.
	// Empty entries disable that scope.
	GlobalDir  string `yaml:"global_dir"`
	UserDir    string `yaml:"user_dir"`
	ProjectDir string `yaml:"project_dir"`

	// AllowedExtensions lists the file extensions scanned for rule
	// documents. Default: [".md"].
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// MaxDocumentSize caps a single rule document in bytes.
	// Default: 1 MiB.
	MaxDocumentSize int64 `yaml:"max_document_size"`

	// MaxContentSize caps the merged rule content in bytes.
	// Default: 100000.
	MaxContentSize int `yaml:"max_content_size"`

	// References configures in-content file reference resolution.
	References ReferencesConfig `yaml:"references"`

	// Watch configures the directory watcher.
	Watch WatchConfig `yaml:"watch"`
}

// ReferencesConfig configures #[[file:...]] resolution.
type ReferencesConfig struct {
	// AllowedDirs lists the directories file references may resolve
	// into. References outside them render as blocked markers.
	// Default: the configured scope directories.
	AllowedDirs []string `yaml:"allowed_dirs"`

	// MaxExpansions caps reference expansion per document. Default: 50.
	MaxExpansions int `yaml:"max_expansions"`
}

// WatchConfig configures the rule directory watcher.
type WatchConfig struct {
	// Enabled turns on filesystem watching. Default: false.
	Enabled bool `yaml:"enabled"`

	// DebounceInterval is how long to wait after the last file event
	// before reloading. Default: 250ms.
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// RescanSchedule is an optional cron expression for periodic full
	// rescans. Empty disables scheduled rescans.
	RescanSchedule string `yaml:"rescan_schedule"`
}

// AuditConfig configures evaluation trace persistence.
type AuditConfig struct {
	// Backend selects the storage backend: "none", "memory", or
	// "sqlite". Default: "none".
	Backend string `yaml:"backend"`

	// Path is the SQLite database path (sqlite backend only).
	Path string `yaml:"path"`

	// RetentionDays removes traces older than this many days.
	// Zero disables age-based pruning.
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords keeps at most this many traces. Zero disables
	// count-based pruning.
	MaxRecords int `yaml:"max_records"`

	// PruneSchedule is a cron expression for automatic pruning.
	// Empty disables scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	// Default: info.
	Level string `yaml:"level"`

	// Format is json, text, or console. Default: text.
	Format string `yaml:"format"`

	// AddSource includes file:line attribution. Default: false.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	// Enabled turns on metric collection. Default: false.
	Enabled bool `yaml:"enabled"`

	// ListenAddress serves /metrics when non-empty (e.g. ":9464").
	ListenAddress string `yaml:"listen_address"`
}
