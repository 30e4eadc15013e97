package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration from path, applies environment variable
// overrides, fills in defaults, and validates the result. A missing
// file is not an error when path is empty.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides maps TILLER_SECTION_FIELD environment variables
// onto individual config fields.
func (c *Config) applyEnvOverrides() {
	setString(&c.Rules.GlobalDir, "TILLER_RULES_GLOBAL_DIR")
	setString(&c.Rules.UserDir, "TILLER_RULES_USER_DIR")
	setString(&c.Rules.ProjectDir, "TILLER_RULES_PROJECT_DIR")
	setInt64(&c.Rules.MaxDocumentSize, "TILLER_RULES_MAX_DOCUMENT_SIZE")
	setInt(&c.Rules.MaxContentSize, "TILLER_RULES_MAX_CONTENT_SIZE")
	setInt(&c.Rules.References.MaxExpansions, "TILLER_RULES_MAX_EXPANSIONS")
	setBool(&c.Rules.Watch.Enabled, "TILLER_RULES_WATCH_ENABLED")
	setDuration(&c.Rules.Watch.DebounceInterval, "TILLER_RULES_WATCH_DEBOUNCE")
	setString(&c.Rules.Watch.RescanSchedule, "TILLER_RULES_WATCH_RESCAN_SCHEDULE")

	setString(&c.Audit.Backend, "TILLER_AUDIT_BACKEND")
	setString(&c.Audit.Path, "TILLER_AUDIT_PATH")
	setInt(&c.Audit.RetentionDays, "TILLER_AUDIT_RETENTION_DAYS")
	setInt(&c.Audit.MaxRecords, "TILLER_AUDIT_MAX_RECORDS")
	setString(&c.Audit.PruneSchedule, "TILLER_AUDIT_PRUNE_SCHEDULE")

	setString(&c.Logging.Level, "TILLER_LOGGING_LEVEL")
	setString(&c.Logging.Format, "TILLER_LOGGING_FORMAT")
	setBool(&c.Logging.AddSource, "TILLER_LOGGING_ADD_SOURCE")

	setBool(&c.Metrics.Enabled, "TILLER_METRICS_ENABLED")
	setString(&c.Metrics.ListenAddress, "TILLER_METRICS_LISTEN_ADDRESS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
