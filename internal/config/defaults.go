package config

import (
	"slices"

	"github.com/leapstack-labs/leappack/internal/bundler"
	"github.com/leapstack-labs/leappack/pkg/core"
)

// Default configuration values.
const (
	DefaultOutfile     = bundler.DefaultOutfile
	DefaultNamespace   = bundler.DefaultNamespace
	DefaultGlobalParam = bundler.DefaultGlobalParam
	DefaultTarget      = bundler.DefaultTarget
	DefaultTreeshake   = true
)

// Defaults returns a ProjectConfig populated with default values.
func Defaults() *ProjectConfig {
	return &ProjectConfig{
		Input:       slices.Clone(bundler.DefaultInput),
		Outfile:     DefaultOutfile,
		Treeshake:   DefaultTreeshake,
		Namespace:   DefaultNamespace,
		GlobalParam: DefaultGlobalParam,
		Target:      DefaultTarget,
		Plugins:     slices.Clone(core.DefaultStages),
	}
}

// DefaultMap returns the defaults keyed the way koanf stores them.
func DefaultMap() map[string]any {
	d := Defaults()
	return map[string]any{
		"input":          d.Input,
		"outfile":        d.Outfile,
		"treeshake":      d.Treeshake,
		"banner":         "",
		"namespace":      d.Namespace,
		"global_param":   d.GlobalParam,
		"target":         d.Target,
		"minify":         false,
		"strict_exports": false,
		"plugins":        d.Plugins,
		"incremental":    false,
	}
}

// ApplyDefaults fills empty fields of a ProjectConfig. Booleans are left
// alone since their zero value is meaningful.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	d := Defaults()
	if len(c.Input) == 0 {
		c.Input = d.Input
	}
	if c.Outfile == "" {
		c.Outfile = d.Outfile
	}
	if c.Namespace == "" {
		c.Namespace = d.Namespace
	}
	if c.GlobalParam == "" {
		c.GlobalParam = d.GlobalParam
	}
	if c.Target == "" {
		c.Target = d.Target
	}
	if len(c.Plugins) == 0 {
		c.Plugins = d.Plugins
	}
}
