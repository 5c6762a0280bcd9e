// Package namespace builds the export namespace of a bundle.
//
// A Builder collects (name, source, value) registrations in order. Later
// registrations of a name replace the value, but every registration is kept
// so collisions can be reported before the mapping is frozen by Finalize.
package namespace

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateExport is returned by Finalize under PolicyError when two
// sources register the same name.
var ErrDuplicateExport = errors.New("duplicate export")

// Policy controls how Finalize treats duplicate registrations.
type Policy int

const (
	// PolicyWarn keeps the last registration and reports duplicates.
	PolicyWarn Policy = iota
	// PolicyError rejects the namespace when any duplicate exists.
	PolicyError
)

// Duplicate describes one name registered by more than one source.
type Duplicate struct {
	Name string
	// Sources lists every registering source in registration order.
	Sources []string
	// Winner is the source whose value was kept (the last one).
	Winner string
}

// String formats the duplicate as a one-line warning.
func (d Duplicate) String() string {
	return fmt.Sprintf("export %q is defined by %s; using %s",
		d.Name, strings.Join(d.Sources, ", "), d.Winner)
}

// Entry is one finalized name.
type Entry[T any] struct {
	Name   string
	Source string
	Value  T
}

// Builder accumulates registrations. The zero value is not usable; call NewBuilder.
type Builder[T any] struct {
	order   []string
	entries map[string]Entry[T]
	sources map[string][]string
}

// NewBuilder creates an empty builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		entries: make(map[string]Entry[T]),
		sources: make(map[string][]string),
	}
}

// Register records value under name. The first registration of a name fixes
// its position; the last registration fixes its value.
func (b *Builder[T]) Register(name, source string, value T) {
	if _, exists := b.entries[name]; !exists {
		b.order = append(b.order, name)
	}
	b.entries[name] = Entry[T]{Name: name, Source: source, Value: value}
	b.sources[name] = append(b.sources[name], source)
}

// Len returns the number of distinct names registered so far.
func (b *Builder[T]) Len() int {
	return len(b.order)
}

// Duplicates returns every name registered more than once, in name order of
// first registration.
func (b *Builder[T]) Duplicates() []Duplicate {
	var dups []Duplicate
	for _, name := range b.order {
		srcs := b.sources[name]
		if len(srcs) < 2 {
			continue
		}
		dups = append(dups, Duplicate{
			Name:    name,
			Sources: append([]string(nil), srcs...),
			Winner:  b.entries[name].Source,
		})
	}
	return dups
}

// Finalize freezes the builder into a Namespace. Under PolicyWarn the
// duplicates are returned alongside the namespace; under PolicyError any
// duplicate yields an error wrapping ErrDuplicateExport and a nil namespace.
func (b *Builder[T]) Finalize(policy Policy) (*Namespace[T], []Duplicate, error) {
	dups := b.Duplicates()
	if policy == PolicyError && len(dups) > 0 {
		msgs := make([]string, len(dups))
		for i, d := range dups {
			msgs[i] = d.String()
		}
		return nil, dups, fmt.Errorf("%w: %s", ErrDuplicateExport, strings.Join(msgs, "; "))
	}

	ns := &Namespace[T]{
		names:   append([]string(nil), b.order...),
		entries: make(map[string]Entry[T], len(b.entries)),
	}
	for name, e := range b.entries {
		ns.entries[name] = e
	}
	return ns, dups, nil
}

// Namespace is an immutable name -> value mapping.
type Namespace[T any] struct {
	names   []string
	entries map[string]Entry[T]
}

// Lookup returns the value registered last for name.
func (n *Namespace[T]) Lookup(name string) (T, bool) {
	e, ok := n.entries[name]
	return e.Value, ok
}

// Source returns the source that provided name's value.
func (n *Namespace[T]) Source(name string) (string, bool) {
	e, ok := n.entries[name]
	return e.Source, ok
}

// Names returns the names in first-registration order.
func (n *Namespace[T]) Names() []string {
	return append([]string(nil), n.names...)
}

// Entries returns the entries in Names order.
func (n *Namespace[T]) Entries() []Entry[T] {
	out := make([]Entry[T], 0, len(n.names))
	for _, name := range n.names {
		out = append(out, n.entries[name])
	}
	return out
}

// Len returns the number of names.
func (n *Namespace[T]) Len() int {
	return len(n.names)
}
