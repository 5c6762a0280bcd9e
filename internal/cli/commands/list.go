package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leappack/internal/bundler"
	"github.com/leapstack-labs/leappack/internal/cli/output"
	"github.com/spf13/cobra"
)

// ListOutput is the JSON form of the list command.
type ListOutput struct {
	Namespace  string       `json:"namespace"`
	Units      []UnitInfo   `json:"units"`
	Exports    []ExportInfo `json:"exports"`
	Duplicates []string     `json:"duplicates,omitempty"`
}

// UnitInfo describes one module unit.
type UnitInfo struct {
	Path    string   `json:"path"`
	Exports []string `json:"exports"`
	Imports []string `json:"imports,omitempty"`
	Size    int64    `json:"size"`
}

// ExportInfo describes one aggregated namespace name.
type ExportInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List module units and the exports they contribute",
		Long: `List the module units matched by the input globs, in concatenation order,
and the aggregated namespace they produce. Nothing is written.

Duplicate export names are reported with the unit that wins.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List units and exports
  leappack list

  # List as JSON
  leappack list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}

	plan, err := cmdCtx.Bundler.Plan(cmd.Context())
	if err != nil {
		return err
	}

	out := listOutput(cmdCtx.Bundler.Options().Namespace, plan)

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	default:
		listRender(r, out)
		return nil
	}
}

func listOutput(namespace string, plan *bundler.Plan) ListOutput {
	out := ListOutput{
		Namespace: namespace,
		Units:     make([]UnitInfo, 0, len(plan.Units)),
		Exports:   make([]ExportInfo, 0, plan.Namespace.Len()),
	}
	for _, u := range plan.Units {
		out.Units = append(out.Units, UnitInfo{
			Path:    u.Path,
			Exports: u.Exports,
			Imports: u.Imports,
			Size:    u.Size,
		})
	}
	for _, e := range plan.Namespace.Entries() {
		out.Exports = append(out.Exports, ExportInfo{Name: e.Name, Source: e.Value.String()})
	}
	for _, d := range plan.Duplicates {
		out.Duplicates = append(out.Duplicates, d.String())
	}
	return out
}

// listRender outputs units and exports as text or markdown.
func listRender(r *output.Renderer, out ListOutput) {
	r.Header(1, fmt.Sprintf("Units (%d total)", len(out.Units)))
	for i, u := range out.Units {
		exports := "no exports"
		if len(u.Exports) > 0 {
			exports = strings.Join(u.Exports, ", ")
		}
		r.Printf("%d. %s %s\n", i+1, u.Path, r.Muted("("+exports+")"))
	}
	r.Println("")

	r.Header(1, fmt.Sprintf("Namespace %s (%d exports)", out.Namespace, len(out.Exports)))
	rows := make([][]string, 0, len(out.Exports))
	for _, e := range out.Exports {
		rows = append(rows, []string{e.Name, e.Source})
	}
	r.Table([]string{"Name", "Source"}, rows)

	for _, d := range out.Duplicates {
		r.Warning(d)
	}
}
