// Package config provides configuration management for projtool using
// Viper for flexible loading from files, environment variables, and
// command-line flags, plus the per-project config cache (the engine's
// Path & Config Cache component).
//
// Tool-wide settings (this file) and per-project configuration files
// (cache.go) are deliberately separate concerns: the former governs how
// the engine itself behaves, the latter is the compilation unit the
// engine reasons about.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ToolConfig is projtool's own configuration, loaded with the usual
// precedence: CLI flags > PROJTOOL_ environment variables > .projtool.yml.
type ToolConfig struct {
	Engine  EngineConfig  `yaml:"engine"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
	Targets []string      `yaml:"-"` // CLI positional args, not from file
}

// EngineConfig carries the engine-visible CLI surface plus the
// engine's own operating constants.
type EngineConfig struct {
	Dry                  bool   `yaml:"dry"`
	Force                bool   `yaml:"force"`
	Verbose              bool   `yaml:"verbose"`
	Clean                bool   `yaml:"clean"`
	ListEmittedFiles     bool   `yaml:"list_emitted_files"`
	ListFiles            bool   `yaml:"list_files"`
	Pretty               bool   `yaml:"pretty"`
	Incremental          bool   `yaml:"incremental"`
	TraceResolution      bool   `yaml:"trace_resolution"`
	Diagnostics          bool   `yaml:"diagnostics"`
	ExtendedDiagnostics  bool   `yaml:"extended_diagnostics"`
	ConfigExtension      string `yaml:"config_extension"`
	Version              string `yaml:"-"` // engine build version, for the build-info gate
	CaseSensitiveHost    bool   `yaml:"case_sensitive_host"`
}

// WatchConfig governs the Watch Orchestrator.
type WatchConfig struct {
	Enabled             bool          `yaml:"enabled"`
	PreserveWatchOutput bool          `yaml:"preserve_watch_output"`
	DebounceDelay       time.Duration `yaml:"debounce_delay"`
}

// LogConfig governs the engine's structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfigExtension is appended to a project name lacking a
// configuration extension when the Path & Config Cache resolves it.
const DefaultConfigExtension = ".projconf.json"

// Load reads tool configuration via viper (file + env + flags already
// bound by the CLI layer) and applies defaults for anything unset.
func Load() (*ToolConfig, error) {
	var cfg ToolConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Engine.ConfigExtension == "" {
		cfg.Engine.ConfigExtension = DefaultConfigExtension
	}
	if cfg.Watch.DebounceDelay == 0 {
		cfg.Watch.DebounceDelay = 250 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if viper.IsSet("watch.preserve_watch_output") {
		cfg.Watch.PreserveWatchOutput = viper.GetBool("watch.preserve_watch_output")
	}
	if viper.IsSet("engine.case_sensitive_host") {
		cfg.Engine.CaseSensitiveHost = viper.GetBool("engine.case_sensitive_host")
	} else {
		cfg.Engine.CaseSensitiveHost = true
	}

	if err := validateToolConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateToolConfig applies security-focused checks to the loaded
// config: the config extension starts with '.', the debounce delay is
// not negative, and no CLI target contains path traversal. Names are
// not checked for shell metacharacters.
func validateToolConfig(cfg *ToolConfig) error {
	if cfg.Engine.ConfigExtension != "" && !strings.HasPrefix(cfg.Engine.ConfigExtension, ".") {
		return fmt.Errorf("config_extension must start with '.': %q", cfg.Engine.ConfigExtension)
	}
	if cfg.Watch.DebounceDelay < 0 {
		return fmt.Errorf("debounce_delay must be non-negative")
	}
	for _, target := range cfg.Targets {
		cleanPath := filepath.Clean(target)
		if strings.Contains(cleanPath, "..") {
			return fmt.Errorf("target %q contains path traversal", target)
		}
	}
	return nil
}
