package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leappack/internal/bundler"
	"github.com/leapstack-labs/leappack/internal/cli/config"
	"github.com/leapstack-labs/leappack/internal/cli/output"
	"github.com/leapstack-labs/leappack/internal/state"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Bundler  *bundler.Bundler
	Store    core.Store
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a bundler backed by the
// build history store. A store that cannot be opened is logged and the
// bundler runs without history.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutBundler(cmd)

	store, err := openStore(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		cmdCtx.Logger.Warn("build history disabled", "error", err)
	} else {
		cmdCtx.Store = store
	}

	cleanup := func() {
		if cmdCtx.Store != nil {
			_ = cmdCtx.Store.Close()
		}
	}

	b, err := createBundler(cmdCtx.Cfg, cmdCtx.Store, cmdCtx.Logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cmdCtx.Bundler = b

	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext whose bundler
// keeps no history. Useful for commands that only plan.
func NewCommandContextWithoutStore(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutBundler(cmd)
	b, err := createBundler(cmdCtx.Cfg, nil, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	cmdCtx.Bundler = b
	return cmdCtx, nil
}

// NewCommandContextWithoutBundler creates a CommandContext with only the
// configuration, logger and renderer.
func NewCommandContextWithoutBundler(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

// getConfig returns the current configuration, or the defaults rooted at
// the working directory when no configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults(".")
}

func openStore(cfg *config.Config, logger *slog.Logger) (core.Store, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return store, nil
}

func createBundler(cfg *config.Config, store core.Store, logger *slog.Logger) (*bundler.Bundler, error) {
	if err := cfg.ValidateProjectRoot(); err != nil {
		return nil, err
	}
	return bundler.New(bundler.Config{
		Options:     cfg.BundleOptions(cfg.ProjectRoot),
		Incremental: cfg.Incremental,
		Store:       store,
		Logger:      logger,
	})
}
