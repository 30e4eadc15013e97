package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// Validate checks the configuration for inconsistencies. It runs after
// defaults have been applied.
func (c *Config) Validate() error {
	if c.Rules.MaxDocumentSize <= 0 {
		return fmt.Errorf("rules.max_document_size must be positive, got %d", c.Rules.MaxDocumentSize)
	}
	if c.Rules.MaxContentSize <= 0 {
		return fmt.Errorf("rules.max_content_size must be positive, got %d", c.Rules.MaxContentSize)
	}
	if c.Rules.References.MaxExpansions <= 0 {
		return fmt.Errorf("rules.references.max_expansions must be positive, got %d", c.Rules.References.MaxExpansions)
	}
	if c.Rules.Watch.DebounceInterval < 0 {
		return fmt.Errorf("rules.watch.debounce_interval must not be negative")
	}
	if s := c.Rules.Watch.RescanSchedule; s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("rules.watch.rescan_schedule: invalid cron expression %q: %w", s, err)
		}
	}

	switch c.Audit.Backend {
	case "none", "memory", "sqlite":
	default:
		return fmt.Errorf("audit.backend must be one of none, memory, sqlite, got %q", c.Audit.Backend)
	}
	if c.Audit.Backend == "sqlite" && c.Audit.Path == "" {
		return fmt.Errorf("audit.path is required for the sqlite backend")
	}
	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit.retention_days must not be negative")
	}
	if c.Audit.MaxRecords < 0 {
		return fmt.Errorf("audit.max_records must not be negative")
	}
	if s := c.Audit.PruneSchedule; s != "" {
		if _, err := cron.ParseStandard(s); err != nil {
			return fmt.Errorf("audit.prune_schedule: invalid cron expression %q: %w", s, err)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("logging.format must be one of json, text, console, got %q", c.Logging.Format)
	}

	return nil
}
