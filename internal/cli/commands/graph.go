package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leappack/internal/cli/output"
	"github.com/leapstack-labs/leappack/internal/dag"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/spf13/cobra"
)

// GraphOutput is the JSON form of the graph command.
type GraphOutput struct {
	Levels     []GraphLevel `json:"levels"`
	Roots      []string     `json:"roots"`
	Leaves     []string     `json:"leaves"`
	Affected   []string     `json:"affected,omitempty"`
	TotalUnits int          `json:"total_units"`
	TotalEdges int          `json:"total_edges"`
}

// GraphLevel groups units whose imports all sit in earlier levels.
type GraphLevel struct {
	Level int         `json:"level"`
	Units []GraphNode `json:"units"`
}

// GraphNode is one unit and its edges.
type GraphNode struct {
	Path       string   `json:"path"`
	Imports    []string `json:"imports,omitempty"`
	ImportedBy []string `json:"imported_by,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var affected []string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the import graph between module units",
		Long: `Display the import graph between module units.

Units are grouped by level: level 0 units import no other unit, and every
unit at level N imports only units from earlier levels. Imports of files
that are not units (helpers, packages) are not shown.

Use --affected to list the units that transitively depend on a unit.`,
		Example: `  # Show the graph
  leappack graph

  # Units affected by a change to functions.js
  leappack graph --affected src/modules/functions.js

  # Output as JSON
  leappack graph --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGraph(cmd, affected)
		},
	}

	cmd.Flags().StringSliceVar(&affected, "affected", nil, "List units depending on these units")

	return cmd
}

func runGraph(cmd *cobra.Command, affected []string) error {
	cmdCtx, err := NewCommandContextWithoutStore(cmd)
	if err != nil {
		return err
	}

	plan, err := cmdCtx.Bundler.Plan(cmd.Context())
	if err != nil {
		return err
	}

	for _, a := range affected {
		if _, ok := plan.Graph.Node(a); !ok {
			return fmt.Errorf("%s is not a module unit", a)
		}
	}

	out, err := graphOutput(plan.Graph, affected)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		graphMarkdown(r, out)
	default:
		graphText(r, out)
	}
	return nil
}

func graphOutput(g *dag.Graph[*core.Unit], affected []string) (GraphOutput, error) {
	levels, err := g.Levels()
	if err != nil {
		return GraphOutput{}, fmt.Errorf("failed to order units: %w", err)
	}

	out := GraphOutput{
		Levels:     make([]GraphLevel, 0, len(levels)),
		Roots:      g.Roots(),
		Leaves:     g.Leaves(),
		TotalUnits: g.NodeCount(),
		TotalEdges: g.EdgeCount(),
	}
	for i, level := range levels {
		gl := GraphLevel{Level: i, Units: make([]GraphNode, 0, len(level))}
		for _, id := range level {
			gl.Units = append(gl.Units, GraphNode{
				Path:       id,
				Imports:    g.Imports(id),
				ImportedBy: g.Importers(id),
			})
		}
		out.Levels = append(out.Levels, gl)
	}
	if len(affected) > 0 {
		out.Affected = g.Affected(affected)
	}
	return out, nil
}

// graphText outputs the graph in styled text format.
func graphText(r *output.Renderer, out GraphOutput) {
	styles := r.Styles()

	r.Header(1, "Import Graph")

	for _, level := range out.Levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", level.Level)))
		for _, n := range level.Units {
			r.Printf("  %s\n", styles.Name.Render(n.Path))
			if len(n.Imports) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("imports:"), strings.Join(n.Imports, ", "))
			}
			if len(n.ImportedBy) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("imported by:"), strings.Join(n.ImportedBy, ", "))
			}
		}
		r.Println("")
	}

	if out.Affected != nil {
		r.Println(styles.Header2.Render("Affected:"))
		for _, a := range out.Affected {
			r.Printf("  %s\n", a)
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d units, %d imports", out.TotalUnits, out.TotalEdges)))
}

// graphMarkdown outputs the graph in markdown format.
func graphMarkdown(r *output.Renderer, out GraphOutput) {
	r.Println(output.FormatHeader(1, "Import Graph"))
	r.Println("")

	for _, level := range out.Levels {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Level %d", level.Level)))
		for _, n := range level.Units {
			r.Printf("- %s\n", n.Path)
			if len(n.Imports) > 0 {
				r.Printf("  - imports: %s\n", strings.Join(n.Imports, ", "))
			}
			if len(n.ImportedBy) > 0 {
				r.Printf("  - imported by: %s\n", strings.Join(n.ImportedBy, ", "))
			}
		}
		r.Println("")
	}

	if out.Affected != nil {
		r.Println(output.FormatHeader(2, "Affected"))
		for _, a := range out.Affected {
			r.Printf("- %s\n", a)
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Units", fmt.Sprintf("%d", out.TotalUnits)))
	r.Println(output.FormatKeyValue("Total Imports", fmt.Sprintf("%d", out.TotalEdges)))
	r.Println(output.FormatKeyValue("Roots", strings.Join(out.Roots, ", ")))
	r.Println(output.FormatKeyValue("Leaves", strings.Join(out.Leaves, ", ")))
}
