// Package dag models the import graph between module units.
//
// An edge runs from an imported unit to the unit that imports it, so a
// unit's parents are its imports and its children are its importers. ES
// modules may import each other cyclically; the graph records cycles rather
// than rejecting them, and only the ordering helpers refuse cyclic input.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Node is one unit in the graph.
type Node[T any] struct {
	// ID is the unit path relative to the project root.
	ID   string
	Data T
}

// Graph is a directed graph of units. Node iteration follows insertion
// order so every walk is deterministic.
type Graph[T any] struct {
	order   []string
	nodes   map[string]*Node[T]
	edges   map[string][]string // import -> importers
	parents map[string][]string // importer -> imports
}

// NewGraph creates an empty graph.
func NewGraph[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:   make(map[string]*Node[T]),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node, or replaces the data of an existing one.
func (g *Graph[T]) AddNode(id string, data T) {
	if n, exists := g.nodes[id]; exists {
		n.Data = data
		return
	}
	g.nodes[id] = &Node[T]{ID: id, Data: data}
	g.order = append(g.order, id)
}

// AddEdge records that importer imports dep.
func (g *Graph[T]) AddEdge(dep, importer string) error {
	if _, exists := g.nodes[dep]; !exists {
		return fmt.Errorf("unit %q is not in the graph", dep)
	}
	if _, exists := g.nodes[importer]; !exists {
		return fmt.Errorf("unit %q is not in the graph", importer)
	}
	if dep == importer {
		return fmt.Errorf("unit %s imports itself", dep)
	}

	if !slices.Contains(g.edges[dep], importer) {
		g.edges[dep] = append(g.edges[dep], importer)
	}
	if !slices.Contains(g.parents[importer], dep) {
		g.parents[importer] = append(g.parents[importer], dep)
	}
	return nil
}

// Node returns a node by ID.
func (g *Graph[T]) Node(id string) (*Node[T], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph[T]) Nodes() []*Node[T] {
	out := make([]*Node[T], len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Imports returns the units id imports.
func (g *Graph[T]) Imports(id string) []string {
	return slices.Clone(g.parents[id])
}

// Importers returns the units that import id.
func (g *Graph[T]) Importers(id string) []string {
	return slices.Clone(g.edges[id])
}

// NodeCount returns the number of nodes.
func (g *Graph[T]) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph[T]) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// Cycle reports the first import cycle found, walking nodes in insertion
// order. The returned path starts and ends with the same unit.
func (g *Graph[T]) Cycle() ([]string, bool) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	from := make(map[string]string)

	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, next := range g.edges[id] {
			if !visited[next] {
				from[next] = id
				if dfs(next) {
					return true
				}
			} else if onStack[next] {
				cycle = []string{next}
				for cur := id; cur != next; cur = from[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{next}, cycle...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] && dfs(id) {
			return cycle, true
		}
	}
	return nil, false
}

// CycleError is returned by the ordering helpers on cyclic graphs.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "import cycle: " + strings.Join(e.Path, " -> ")
}

// TopologicalSort returns node IDs with every import before its importers.
// Ties keep insertion order.
func (g *Graph[T]) TopologicalSort() ([]string, error) {
	if path, ok := g.Cycle(); ok {
		return nil, &CycleError{Path: path}
	}

	visited := make(map[string]bool)
	result := make([]string, 0, len(g.order))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.parents[id] {
			visit(dep)
		}
		result = append(result, id)
	}

	for _, id := range g.order {
		visit(id)
	}
	return result, nil
}

// Levels groups node IDs by import depth. Level 0 holds units that import no
// other unit; level N units import at least one unit at level N-1.
func (g *Graph[T]) Levels() ([][]string, error) {
	if path, ok := g.Cycle(); ok {
		return nil, &CycleError{Path: path}
	}

	assigned := make(map[string]int, len(g.order))

	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		l := 0
		for _, dep := range g.parents[id] {
			if pl := level(dep) + 1; pl > l {
				l = pl
			}
		}
		assigned[id] = l
		return l
	}

	maxLevel := 0
	for _, id := range g.order {
		if l := level(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range g.order {
		l := assigned[id]
		levels[l] = append(levels[l], id)
	}
	return levels, nil
}

// Affected returns the changed units plus every unit that transitively
// imports one of them, in insertion order. Unknown IDs are ignored.
func (g *Graph[T]) Affected(changed []string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, importer := range g.edges[id] {
			mark(importer)
		}
	}

	for _, id := range changed {
		if _, exists := g.nodes[id]; exists {
			mark(id)
		}
	}

	var out []string
	for _, id := range g.order {
		if affected[id] {
			out = append(out, id)
		}
	}
	return out
}

// Roots returns units that import no other unit.
func (g *Graph[T]) Roots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Leaves returns units no other unit imports.
func (g *Graph[T]) Leaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}
