package config

import (
	"fmt"
	"os"
	"slices"
)

// outputModes are the accepted values of the output key.
var outputModes = []string{"", "auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid. Bundle options are
// validated by the bundler itself.
func (c *Config) Validate() error {
	if len(c.Input) == 0 {
		return fmt.Errorf("input is required")
	}
	if c.Outfile == "" {
		return fmt.Errorf("outfile is required")
	}
	if !slices.Contains(outputModes, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	return nil
}

// ValidateProjectRoot checks that the project root exists.
func (c *Config) ValidateProjectRoot() error {
	info, err := os.Stat(c.ProjectRoot)
	if os.IsNotExist(err) {
		return fmt.Errorf("project directory does not exist: %s\nHint: run 'leappack init' or use --project-dir", c.ProjectRoot)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("project root is not a directory: %s", c.ProjectRoot)
	}
	return nil
}
