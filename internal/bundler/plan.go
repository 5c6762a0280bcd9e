package bundler

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leappack/internal/dag"
	"github.com/leapstack-labs/leappack/internal/loader"
	"github.com/leapstack-labs/leappack/internal/namespace"
	"github.com/leapstack-labs/leappack/pkg/core"
)

// Plan is everything decided before esbuild emits the artifact.
type Plan struct {
	// Root is the absolute project root.
	Root string
	// Units in concatenation order.
	Units []*core.Unit
	// Namespace maps each exported name to the unit export that provides it.
	Namespace *namespace.Namespace[core.ExportRef]
	// Duplicates lists names provided by more than one source.
	Duplicates []namespace.Duplicate
	// Graph is the import graph between units.
	Graph *dag.Graph[*core.Unit]
	// Entry is the generated merge entry source.
	Entry string
	// Warnings collects analysis diagnostics, duplicates and import cycles.
	Warnings []string
}

// Plan discovers and analyses the units and aggregates their exports
// without running the bundle step.
func (b *Bundler) Plan(ctx context.Context) (*Plan, error) {
	units, err := loader.Discover(ctx, loader.Options{
		Root:     b.opts.Root,
		Patterns: b.opts.Input,
		Logger:   b.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(b.opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	warnings, err := analyze(root, units)
	if err != nil {
		return nil, err
	}

	ns, dups, err := aggregate(units, b.opts.Aliases, b.opts.StrictExports)
	if err != nil {
		return nil, err
	}
	for _, d := range dups {
		b.logger.Warn("duplicate export", "name", d.Name, "sources", d.Sources, "winner", d.Winner)
		warnings = append(warnings, d.String())
	}

	graph, err := importGraph(units)
	if err != nil {
		return nil, err
	}
	if cycle, ok := graph.Cycle(); ok {
		warnings = append(warnings, (&dag.CycleError{Path: cycle}).Error())
	}

	b.logger.Debug("planned bundle", "units", len(units), "exports", ns.Len(), "duplicates", len(dups))

	return &Plan{
		Root:       root,
		Units:      units,
		Namespace:  ns,
		Duplicates: dups,
		Graph:      graph,
		Entry:      entrySource(units, ns),
		Warnings:   warnings,
	}, nil
}

// aggregate registers every named export in unit order, then the aliases
// in name order.
func aggregate(units []*core.Unit, aliases map[string]string, strict bool) (*namespace.Namespace[core.ExportRef], []namespace.Duplicate, error) {
	builder := namespace.NewBuilder[core.ExportRef]()
	byPath := make(map[string]*core.Unit, len(units))

	for _, u := range units {
		byPath[u.Path] = u
		for _, name := range u.Exports {
			builder.Register(name, u.Path, core.ExportRef{Unit: u.Path, Local: name})
		}
	}

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref, err := ParseRef(aliases[name])
		if err != nil {
			return nil, nil, fmt.Errorf("alias %q: %w", name, err)
		}
		u, ok := byPath[ref.Unit]
		if !ok {
			return nil, nil, fmt.Errorf("alias %q: %s is not a module unit", name, ref.Unit)
		}
		if ref.Local != "default" && !u.HasExport(ref.Local) {
			return nil, nil, fmt.Errorf("alias %q: %s does not export %q", name, ref.Unit, ref.Local)
		}
		builder.Register(name, ref.String(), ref)
	}

	policy := namespace.PolicyWarn
	if strict {
		policy = namespace.PolicyError
	}
	return builder.Finalize(policy)
}

// importGraph links units by their imports of other units. Imports of
// non-unit files and self-imports carry no ordering and are skipped.
func importGraph(units []*core.Unit) (*dag.Graph[*core.Unit], error) {
	g := dag.NewGraph[*core.Unit]()
	for _, u := range units {
		g.AddNode(u.Path, u)
	}
	for _, u := range units {
		for _, imp := range u.Imports {
			if _, ok := g.Node(imp); !ok || imp == u.Path {
				continue
			}
			if err := g.AddEdge(imp, u.Path); err != nil {
				return nil, fmt.Errorf("failed to link %s to %s: %w", u.Path, imp, err)
			}
		}
	}
	return g, nil
}

// entrySource renders the merge entry: one import per unit in order, then
// one assignment per namespace name onto the wrapper's exports binding.
func entrySource(units []*core.Unit, ns *namespace.Namespace[core.ExportRef]) string {
	index := make(map[string]int, len(units))
	for i, u := range units {
		index[u.Path] = i
	}

	// Locals needed per unit, in namespace order.
	needed := make(map[string][]string)
	for _, e := range ns.Entries() {
		if !slices.Contains(needed[e.Value.Unit], e.Value.Local) {
			needed[e.Value.Unit] = append(needed[e.Value.Unit], e.Value.Local)
		}
	}

	binding := func(ref core.ExportRef) string {
		i := index[ref.Unit]
		return fmt.Sprintf("__lp%d_%d", i, slices.Index(needed[ref.Unit], ref.Local))
	}

	var sb strings.Builder
	for _, u := range units {
		spec := strconv.Quote(importPath(u.Path))
		locals := needed[u.Path]
		if len(locals) == 0 {
			fmt.Fprintf(&sb, "import %s;\n", spec)
			continue
		}
		clauses := make([]string, len(locals))
		for j, local := range locals {
			clauses[j] = fmt.Sprintf("%s as %s", moduleExportName(local), binding(core.ExportRef{Unit: u.Path, Local: local}))
		}
		fmt.Fprintf(&sb, "import { %s } from %s;\n", strings.Join(clauses, ", "), spec)
	}

	for _, e := range ns.Entries() {
		fmt.Fprintf(&sb, "%s%s = %s;\n", exportsRef, member(e.Name), binding(e.Value))
	}
	return sb.String()
}

func importPath(rel string) string {
	if strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + rel
}

// moduleExportName renders an import name; string names need ES2022 syntax
// and only appear for exports that are not identifiers.
func moduleExportName(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func member(name string) string {
	if identRe.MatchString(name) {
		return "." + name
	}
	return "[" + strconv.Quote(name) + "]"
}
