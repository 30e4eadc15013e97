package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns a configuration with all defaults applied. The user
// and project directories follow the conventional layout: rules under
// $HOME/.tiller/rules and ./.tiller/rules respectively.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Rules.UserDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Rules.UserDir = filepath.Join(home, ".tiller", "rules")
		}
	}
	if c.Rules.ProjectDir == "" {
		c.Rules.ProjectDir = filepath.Join(".tiller", "rules")
	}
	if len(c.Rules.AllowedExtensions) == 0 {
		c.Rules.AllowedExtensions = []string{".md"}
	}
	if c.Rules.MaxDocumentSize == 0 {
		c.Rules.MaxDocumentSize = 1 << 20
	}
	if c.Rules.MaxContentSize == 0 {
		c.Rules.MaxContentSize = 100000
	}
	if len(c.Rules.References.AllowedDirs) == 0 {
		c.Rules.References.AllowedDirs = c.scopeDirs()
	}
	if c.Rules.References.MaxExpansions == 0 {
		c.Rules.References.MaxExpansions = 50
	}
	if c.Rules.Watch.DebounceInterval == 0 {
		c.Rules.Watch.DebounceInterval = 250 * time.Millisecond
	}
	if c.Audit.Backend == "" {
		c.Audit.Backend = "none"
	}
	if c.Audit.Path == "" {
		c.Audit.Path = filepath.Join("data", "audit.db")
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

func (c *Config) scopeDirs() []string {
	var dirs []string
	for _, d := range []string{c.Rules.GlobalDir, c.Rules.UserDir, c.Rules.ProjectDir} {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
