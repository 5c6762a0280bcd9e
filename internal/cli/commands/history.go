package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/leappack/internal/cli/output"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/spf13/cobra"
)

// HistoryEntry is the JSON form of one recorded build.
type HistoryEntry struct {
	ID          string     `json:"id"`
	OutputPath  string     `json:"output_path"`
	Status      string     `json:"status"`
	Units       int        `json:"units"`
	Exports     int        `json:"exports"`
	Warnings    int        `json:"warnings"`
	Hash        string     `json:"hash,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
	Error       string     `json:"error,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent builds",
		Long: `Show recent builds recorded in the state database, newest first.

Each build records its status, the number of units and exports, and the
hash of the artifact it produced.`,
		Example: `  # Last 20 builds
  leappack history

  # Last 5 builds as JSON
  leappack history --limit 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of builds to show")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if cmdCtx.Store == nil {
		return errors.New("build history is not available")
	}

	builds, err := cmdCtx.Store.ListBuilds(limit)
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(builds))
	for _, b := range builds {
		entries = append(entries, historyEntry(b))
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(entries)
	}

	if len(entries) == 0 {
		r.Println(r.Muted("No builds recorded yet"))
		return nil
	}

	r.Header(1, fmt.Sprintf("Builds (%d)", len(entries)))
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		rows = append(rows, []string{
			e.StartedAt.Local().Format(time.DateTime),
			e.Status,
			fmt.Sprintf("%d", e.Units),
			fmt.Sprintf("%d", e.Exports),
			(time.Duration(e.DurationMS) * time.Millisecond).String(),
			hash,
		})
	}
	r.Table([]string{"Started", "Status", "Units", "Exports", "Duration", "Hash"}, rows)

	for _, e := range entries {
		if e.Error != "" {
			r.Warning(fmt.Sprintf("%s: %s", e.ID, e.Error))
		}
	}
	return nil
}

func historyEntry(b *core.Build) HistoryEntry {
	return HistoryEntry{
		ID:          b.ID,
		OutputPath:  b.OutputPath,
		Status:      string(b.Status),
		Units:       b.UnitCount,
		Exports:     b.ExportCount,
		Warnings:    b.WarningCount,
		Hash:        b.ArtifactHash,
		StartedAt:   b.StartedAt,
		CompletedAt: b.CompletedAt,
		DurationMS:  b.Duration().Milliseconds(),
		Error:       b.Error,
	}
}
