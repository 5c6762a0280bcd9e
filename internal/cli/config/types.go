// Package config provides configuration management for the LeapPack CLI.
//
// This package extends the shared project configuration from
// internal/config with CLI-specific fields: build history location,
// verbosity and output format.
package config

import (
	sharedcfg "github.com/leapstack-labs/leappack/internal/config"
)

// ProjectConfig is an alias for the shared project configuration.
// This allows CLI code to use config.ProjectConfig without importing
// internal/config.
type ProjectConfig = sharedcfg.ProjectConfig

// Config holds all CLI configuration options.
type Config struct {
	ProjectConfig `koanf:",squash"`

	StatePath    string `koanf:"state_path"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths resolve against. It is
	// inferred, never read from the config file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values - project defaults live in internal/config
const (
	DefaultStateFile = ".leappack/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Defaults returns a Config populated with default values, rooted at root.
func Defaults(root string) *Config {
	return &Config{
		ProjectConfig: *sharedcfg.Defaults(),
		StatePath:     resolvePathRelativeTo(DefaultStateFile, root),
		OutputFormat:  DefaultOutput,
		ProjectRoot:   root,
	}
}
