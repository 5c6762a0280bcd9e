package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/leappack/internal/bundler"
	"github.com/leapstack-labs/leappack/internal/cli/output"
	"github.com/leapstack-labs/leappack/internal/sandbox"
	"github.com/spf13/cobra"
)

// CallOptions holds options for the call command.
type CallOptions struct {
	Build          bool
	AmbientExports bool
	Timeout        time.Duration
}

// CallResult is the JSON form of a call.
type CallResult struct {
	Name   string `json:"name"`
	Result any    `json:"result"`
}

// NewCallCommand creates the call command.
func NewCallCommand() *cobra.Command {
	opts := &CallOptions{}

	cmd := &cobra.Command{
		Use:   "call <name> [json-args...]",
		Short: "Load the artifact and call one of its exports",
		Long: `Load the bundle artifact into an embedded JavaScript runtime, the way a
scripting host would, and call an export on its namespace object.

Arguments are parsed as JSON. The result is printed as JSON.

By default the artifact on disk is loaded; use --build to bundle in memory
first without writing anything.`,
		Example: `  # Call inc(2)
  leappack call inc 2

  # Call a nested export
  leappack call Namespace.doSomething

  # Bundle in memory, then call
  leappack call --build inc 41`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, opts, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVar(&opts.Build, "build", false, "Bundle in memory before calling")
	cmd.Flags().BoolVar(&opts.AmbientExports, "ambient-exports", false, "Provide a global exports object, like CommonJS hosts")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "Limit for loading and calling (0 disables)")

	return cmd
}

func runCall(cmd *cobra.Command, opts *CallOptions, name string, rawArgs []string) error {
	cmdCtx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	sbOpts := sandbox.Options{
		Namespace:      cmdCtx.Bundler.Options().Namespace,
		AmbientExports: opts.AmbientExports,
		Timeout:        opts.Timeout,
		Logger:         cmdCtx.Logger,
	}

	var sb *sandbox.Sandbox
	if opts.Build {
		art, err := cmdCtx.Bundler.Build(ctx, bundler.BuildOptions{Force: true, DryRun: true})
		if err != nil {
			return err
		}
		for _, w := range art.Warnings {
			cmdCtx.Logger.Debug("build warning", "warning", w)
		}
		sb, err = sandbox.Load(ctx, art.Path, art.Contents, sbOpts)
		if err != nil {
			return err
		}
	} else {
		outPath, err := cmdCtx.Bundler.OutputPath()
		if err != nil {
			return err
		}
		sb, err = sandbox.LoadFile(ctx, outPath, sbOpts)
		if err != nil {
			return fmt.Errorf("%w (run 'leappack build' first or pass --build)", err)
		}
	}

	result, err := sb.CallJSON(ctx, name, rawArgs)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(CallResult{Name: name, Result: result})
	}
	return r.JSON(result)
}
