package namespace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inc(x int) int { return x + 1 }
func dec(x int) int { return x - 1 }

func TestRegisterLookup(t *testing.T) {
	b := NewBuilder[func(int) int]()
	b.Register("doSomething", "src/modules/functions.js", inc)

	ns, dups, err := b.Finalize(PolicyWarn)
	require.NoError(t, err)
	assert.Empty(t, dups)

	fn, ok := ns.Lookup("doSomething")
	require.True(t, ok)
	assert.Equal(t, 11, fn(10))

	_, ok = ns.Lookup("missing")
	assert.False(t, ok)
}

func TestAggregationCompleteness(t *testing.T) {
	b := NewBuilder[func(int) int]()
	registered := map[string]func(int) int{
		"inc": inc,
		"dec": dec,
	}
	for _, name := range []string{"inc", "dec"} {
		b.Register(name, name+".js", registered[name])
	}

	ns, _, err := b.Finalize(PolicyWarn)
	require.NoError(t, err)

	for name, original := range registered {
		fn, ok := ns.Lookup(name)
		require.True(t, ok, "name %q should be present", name)
		for _, n := range []int{-5, 0, 7, 1 << 20} {
			assert.Equal(t, original(n), fn(n), "%s(%d)", name, n)
		}
	}
}

func TestLastWriteWins(t *testing.T) {
	tests := []struct {
		name       string
		order      []string
		wantValue  string
		wantWinner string
	}{
		{
			name:       "b registered last",
			order:      []string{"a.js", "b.js"},
			wantValue:  "from b.js",
			wantWinner: "b.js",
		},
		{
			name:       "a registered last",
			order:      []string{"b.js", "a.js"},
			wantValue:  "from a.js",
			wantWinner: "a.js",
		},
		{
			name:       "three sources",
			order:      []string{"a.js", "c.js", "b.js"},
			wantValue:  "from b.js",
			wantWinner: "b.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder[string]()
			for _, src := range tt.order {
				b.Register("x", src, "from "+src)
			}

			ns, dups, err := b.Finalize(PolicyWarn)
			require.NoError(t, err)

			got, ok := ns.Lookup("x")
			require.True(t, ok)
			assert.Equal(t, tt.wantValue, got)

			require.Len(t, dups, 1)
			assert.Equal(t, "x", dups[0].Name)
			assert.Equal(t, tt.order, dups[0].Sources)
			assert.Equal(t, tt.wantWinner, dups[0].Winner)

			src, _ := ns.Source("x")
			assert.Equal(t, tt.wantWinner, src)
		})
	}
}

func TestNamesKeepFirstRegistrationOrder(t *testing.T) {
	b := NewBuilder[int]()
	b.Register("b", "one.js", 1)
	b.Register("a", "one.js", 2)
	b.Register("b", "two.js", 3)
	b.Register("c", "two.js", 4)

	ns, _, err := b.Finalize(PolicyWarn)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, ns.Names())
	assert.Equal(t, 3, ns.Len())

	entries := ns.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Value)
	assert.Equal(t, "two.js", entries[0].Source)
}

func TestFinalizeStrictRejectsDuplicates(t *testing.T) {
	b := NewBuilder[int]()
	b.Register("x", "a.js", 1)
	b.Register("x", "b.js", 2)
	b.Register("y", "a.js", 3)

	ns, dups, err := b.Finalize(PolicyError)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateExport))
	assert.Nil(t, ns)
	require.Len(t, dups, 1)
	assert.Contains(t, err.Error(), `export "x" is defined by a.js, b.js; using b.js`)
}

func TestFinalizeStrictWithoutDuplicates(t *testing.T) {
	b := NewBuilder[int]()
	b.Register("x", "a.js", 1)
	b.Register("y", "b.js", 2)

	ns, dups, err := b.Finalize(PolicyError)
	require.NoError(t, err)
	assert.Empty(t, dups)
	assert.Equal(t, 2, ns.Len())
}

func TestNamespaceIsImmutable(t *testing.T) {
	b := NewBuilder[int]()
	b.Register("x", "a.js", 1)

	ns, _, err := b.Finalize(PolicyWarn)
	require.NoError(t, err)

	b.Register("x", "b.js", 2)
	b.Register("y", "b.js", 3)

	v, _ := ns.Lookup("x")
	assert.Equal(t, 1, v)
	assert.Equal(t, []string{"x"}, ns.Names())

	names := ns.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"x"}, ns.Names())
}
