// Package config provides the shared project configuration for LeapPack.
// This package is decoupled from CLI concerns: it describes leappack.yaml
// and converts it into bundler options.
package config

import (
	"maps"
	"path/filepath"
	"slices"

	"github.com/leapstack-labs/leappack/internal/bundler"
)

// ProjectConfig is the schema of leappack.yaml.
type ProjectConfig struct {
	// Input holds the unit glob patterns, in priority order.
	Input   []string `koanf:"input" yaml:"input"`
	Outfile string   `koanf:"outfile" yaml:"outfile"`

	Treeshake   bool   `koanf:"treeshake" yaml:"treeshake"`
	Banner      string `koanf:"banner" yaml:"banner,omitempty"`
	Namespace   string `koanf:"namespace" yaml:"namespace"`
	GlobalParam string `koanf:"global_param" yaml:"global_param"`
	Target      string `koanf:"target" yaml:"target"`
	Minify      bool   `koanf:"minify" yaml:"minify"`

	// StrictExports fails the build on duplicate export names instead of
	// warning.
	StrictExports bool `koanf:"strict_exports" yaml:"strict_exports"`

	// Plugins is the ordered stage pipeline.
	Plugins []string `koanf:"plugins" yaml:"plugins"`

	// HostModules maps bare specifiers to globals the host provides.
	HostModules map[string]string `koanf:"host_modules" yaml:"host_modules,omitempty"`

	// Aliases maps extra namespace names to "unit/path.js#export".
	Aliases map[string]string `koanf:"aliases" yaml:"aliases,omitempty"`

	Incremental bool `koanf:"incremental" yaml:"incremental"`
}

// BundleOptions converts the project config into bundler options rooted
// at root.
func (c *ProjectConfig) BundleOptions(root string) bundler.Options {
	outfile := c.Outfile
	if outfile != "" && !filepath.IsAbs(outfile) {
		outfile = filepath.Join(root, outfile)
	}
	return bundler.Options{
		Root:          root,
		Input:         slices.Clone(c.Input),
		Outfile:       outfile,
		TreeShake:     c.Treeshake,
		Banner:        c.Banner,
		Namespace:     c.Namespace,
		GlobalParam:   c.GlobalParam,
		Target:        c.Target,
		Minify:        c.Minify,
		StrictExports: c.StrictExports,
		Stages:        slices.Clone(c.Plugins),
		HostModules:   maps.Clone(c.HostModules),
		Aliases:       maps.Clone(c.Aliases),
	}
}
