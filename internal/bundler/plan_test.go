package bundler

import (
	"context"
	"testing"

	"github.com/leapstack-labs/leappack/internal/testutil"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_SampleProject(t *testing.T) {
	root := testutil.SetupSampleProject(t)
	b := newBundler(t, root, func(c *Config) {
		c.Aliases = map[string]string{"doSomething": sampleAlias}
	})

	plan, err := b.Plan(context.Background())
	require.NoError(t, err)

	require.Len(t, plan.Units, 2)
	assert.Equal(t, []string{"inc"}, plan.Units[0].Exports)
	assert.Equal(t, []string{"Namespace"}, plan.Units[1].Exports)
	assert.Equal(t, []string{"src/modules/functions.js"}, plan.Units[1].Imports)

	assert.Equal(t, []string{"inc", "Namespace", "doSomething"}, plan.Namespace.Names())
	ref, ok := plan.Namespace.Lookup("doSomething")
	require.True(t, ok)
	assert.Equal(t, core.ExportRef{Unit: "src/modules/functions.js", Local: "inc"}, ref)
	assert.Empty(t, plan.Duplicates)

	assert.Equal(t, []string{"src/modules/functions.js"}, plan.Graph.Imports("src/modules/index.js"))
	levels, err := plan.Graph.Levels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"src/modules/functions.js"}, {"src/modules/index.js"}}, levels)

	assert.Equal(t, `import { inc as __lp0_0 } from "./src/modules/functions.js";
import { Namespace as __lp1_0 } from "./src/modules/index.js";
__leappack_exports.inc = __lp0_0;
__leappack_exports.Namespace = __lp1_0;
__leappack_exports.doSomething = __lp0_0;
`, plan.Entry)
}

func TestPlan_DoesNotWrite(t *testing.T) {
	root := testutil.SetupSampleProject(t)
	_, err := newBundler(t, root, nil).Plan(context.Background())
	require.NoError(t, err)
	assert.NoDirExists(t, root+"/build")
}

func TestPlan_AliasErrors(t *testing.T) {
	tests := []struct {
		name    string
		alias   string
		wantErr string
	}{
		{"unknown unit", "src/modules/nope.js#inc", "src/modules/nope.js is not a module unit"},
		{"missing export", "src/modules/functions.js#dec", `does not export "dec"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testutil.SetupSampleProject(t)
			b := newBundler(t, root, func(c *Config) {
				c.Aliases = map[string]string{"x": tt.alias}
			})

			_, err := b.Plan(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEntrySource_SideEffectOnlyUnits(t *testing.T) {
	root := testutil.SetupProject(t, map[string]string{
		"src/modules/a.js":     "export const a = 1;",
		"src/modules/setup.js": "globalThis.touched = true;",
		"src/modules/z.js":     `const v = 2; export { v as "kebab-name" };`,
	})

	plan, err := newBundler(t, root, nil).Plan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `import { a as __lp0_0 } from "./src/modules/a.js";
import "./src/modules/setup.js";
import { "kebab-name" as __lp2_0 } from "./src/modules/z.js";
__leappack_exports.a = __lp0_0;
__leappack_exports["kebab-name"] = __lp2_0;
`, plan.Entry)
}

func TestImportGraph(t *testing.T) {
	units := []*core.Unit{
		{Path: "src/modules/a.js", Imports: []string{"src/lib/helper.js"}},
		{Path: "src/modules/b.js", Imports: []string{"src/modules/a.js", "src/modules/b.js", "src/modules/a.js"}},
	}

	g, err := importGraph(units)
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []string{"src/modules/a.js"}, g.Imports("src/modules/b.js"))
	assert.Empty(t, g.Imports("src/modules/a.js"))
}
