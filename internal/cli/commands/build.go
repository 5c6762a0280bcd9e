package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leappack/internal/bundler"
	"github.com/leapstack-labs/leappack/internal/cli/output"
	"github.com/leapstack-labs/leappack/internal/loader"
	"github.com/leapstack-labs/leappack/internal/watch"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/spf13/cobra"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Watch bool
	Force bool
	// Strict reaches the bundler through the config loader as strict_exports.
	Strict bool
	DryRun bool
}

// BuildSummary is the JSON form of a build result.
type BuildSummary struct {
	*core.Artifact
	Bytes      int   `json:"bytes"`
	DurationMS int64 `json:"duration_ms"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bundle the module units into one artifact",
		Long: `Bundle every module unit matched by the input globs into a single artifact.

Units are concatenated in glob order and their exports aggregated into one
namespace; when two units export the same name the later unit wins (use
--strict to fail instead). The output is wrapped in an isolating function
scope and written atomically: a failed build leaves the previous artifact
untouched.`,
		Example: `  # Build once
  leappack build

  # Rebuild on every change
  leappack build --watch

  # Fail on duplicate export names
  leappack build --strict

  # Build without writing, print the summary as JSON
  leappack build --dry-run --output json`,
		Aliases: []string{"bundle"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Rebuild when source files change")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Rebuild even if inputs are unchanged")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail on duplicate export names")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Build without writing the artifact or recording history")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	var (
		cmdCtx  *CommandContext
		cleanup = func() {}
		err     error
	)
	if opts.DryRun {
		cmdCtx, err = NewCommandContextWithoutStore(cmd)
	} else {
		cmdCtx, cleanup, err = NewCommandContext(cmd)
	}
	if err != nil {
		return err
	}
	defer cleanup()

	bo := bundler.BuildOptions{Force: opts.Force, DryRun: opts.DryRun}

	if opts.Watch {
		return watchBuild(cmd, cmdCtx, bo)
	}

	art, err := cmdCtx.Bundler.Build(cmd.Context(), bo)
	if err != nil {
		return err
	}
	return reportBuild(cmdCtx.Renderer, art, opts.DryRun)
}

func watchBuild(cmd *cobra.Command, cmdCtx *CommandContext, bo bundler.BuildOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outPath, err := cmdCtx.Bundler.OutputPath()
	if err != nil {
		return err
	}
	root := cmdCtx.Cfg.ProjectRoot

	w, err := watch.New(watch.Options{
		Root:   root,
		Ignore: []string{loader.RelPath(root, outPath)},
		Logger: cmdCtx.Logger,
	}, func(ctx context.Context) error {
		art, err := cmdCtx.Bundler.Build(ctx, bo)
		if err != nil {
			cmdCtx.Renderer.Error(err.Error())
			return err
		}
		return reportBuild(cmdCtx.Renderer, art, bo.DryRun)
	})
	if err != nil {
		return err
	}

	cmdCtx.Renderer.Println(cmdCtx.Renderer.Muted("Watching for changes, press Ctrl+C to stop"))
	return w.Run(ctx)
}

// reportBuild renders a finished build.
func reportBuild(r *output.Renderer, art *core.Artifact, dryRun bool) error {
	for _, w := range art.Warnings {
		r.Warning(w)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(BuildSummary{
			Artifact:   art,
			Bytes:      art.Size(),
			DurationMS: art.Duration.Milliseconds(),
		})
	}

	status := "success"
	detail := fmt.Sprintf("%d units, %d exports, %s", len(art.Units), len(art.Exports), formatBytes(art.Size()))
	switch {
	case art.Skipped:
		status = "skipped"
		detail = "inputs unchanged"
	case dryRun:
		detail += ", not written"
	}
	r.StatusLine(art.Path, status, detail)
	return nil
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
