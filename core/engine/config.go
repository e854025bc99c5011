package engine

import (
	"strings"
	"time"

	"module-loader/core/retry"
)

const (
	SourceStorage = "storage"
	SourceDir     = "dir"
	SourceChain   = "chain"
)

// Config holds the loader section of the application configuration.
type Config struct {
	// RegistryPath is the YAML or TOML registry file.
	RegistryPath string `mapstructure:"registry_path" default:"registry.yaml"`
	// Source selects where module code comes from (storage, dir, chain).
	Source string `mapstructure:"source" default:"storage"`
	// SourceDir is the directory read by the dir source.
	SourceDir         string `mapstructure:"source_dir" default:"modules"`
	TimeoutMs         int    `mapstructure:"timeout_ms" default:"10000"`
	PriorityTimeoutMs int    `mapstructure:"priority_timeout_ms" default:"30000"`
	InitTimeoutMs     int    `mapstructure:"init_timeout_ms" default:"15000"`
	MaxRetries        int    `mapstructure:"max_retries" default:"3"`
	BaseDelayMs       int    `mapstructure:"base_delay_ms" default:"500"`
	MaxDelayMs        int    `mapstructure:"max_delay_ms" default:"10000"`
	Concurrency       int    `mapstructure:"concurrency" default:"5"`
	// Preload lists the references loaded at startup.
	Preload []string `mapstructure:"preload" default:""`
	// Overrides are ref=path pairs seeded into the resolver.
	Overrides []string `mapstructure:"overrides" default:""`
	// Notifications is the capacity of the in-memory notification log.
	Notifications int `mapstructure:"notifications" default:"100"`
}

// Policy returns the retry policy described by c.
func (c Config) Policy() retry.Policy {
	p := retry.DefaultPolicy()
	if c.MaxRetries > 0 {
		p.MaxAttempts = c.MaxRetries
	}
	if c.BaseDelayMs > 0 {
		p.BaseDelay = time.Duration(c.BaseDelayMs) * time.Millisecond
	}
	if c.MaxDelayMs > 0 {
		p.MaxDelay = time.Duration(c.MaxDelayMs) * time.Millisecond
	}
	return p
}

// OverrideTable parses the ref=path pairs. Malformed pairs are skipped.
func (c Config) OverrideTable() map[string]string {
	out := make(map[string]string, len(c.Overrides))
	for _, pair := range c.Overrides {
		ref, target, ok := strings.Cut(pair, "=")
		ref, target = strings.TrimSpace(ref), strings.TrimSpace(target)
		if !ok || ref == "" || target == "" {
			continue
		}
		out[ref] = target
	}
	return out
}

// Apply copies the configured tuning into opts.
func (c Config) Apply(opts Options) Options {
	opts.Policy = c.Policy()
	opts.Overrides = c.OverrideTable()
	opts.Timeout = millis(c.TimeoutMs)
	opts.PriorityTimeout = millis(c.PriorityTimeoutMs)
	opts.InitTimeout = millis(c.InitTimeoutMs)
	opts.Concurrency = c.Concurrency
	return opts
}

func millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
