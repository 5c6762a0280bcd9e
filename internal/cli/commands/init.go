package commands

import (
	"errors"
	"fmt"
	"os"

	intconfig "github.com/leapstack-labs/leappack/internal/config"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new LeapPack project",
		Long: `Initialize a new LeapPack project with a default configuration and
two sample module units.

This creates:
  - leappack.yaml configuration file
  - src/modules/ with functions.js and index.js
  - .gitignore excluding build output and local state`,
		Example: `  # Initialize in current directory
  leappack init

  # Initialize in a new directory
  leappack init my-project

  # Force overwrite existing config
  leappack init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	r := NewCommandContextWithoutBundler(cmd).Renderer

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath, err := intconfig.WriteFile(dir, intconfig.Defaults(), force)
	if err != nil {
		if errors.Is(err, intconfig.ErrConfigExists) {
			return err
		}
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, err := copyTemplate("minimal", dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	r.StatusLine(intconfig.ConfigFileName, "success", configPath)
	for _, f := range files {
		r.StatusLine(f, "success", "")
	}

	r.Println("")
	r.Success("LeapPack project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Add module units to src/modules/")
	r.Println("  2. Run 'leappack list' to see units and exports")
	r.Println("  3. Run 'leappack build' to write the bundle")
	r.Println("  4. Run 'leappack call inc 1' to try it")

	return nil
}
