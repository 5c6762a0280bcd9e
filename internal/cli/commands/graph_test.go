package commands

import (
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/leappack/internal/cli/testutil"
	projtest "github.com/leapstack-labs/leappack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainProject has a -> b -> c imports plus an unrelated unit.
func chainProject(t *testing.T) string {
	t.Helper()
	return projtest.SetupProject(t, map[string]string{
		"src/modules/a.js":     "export const a = 1;\n",
		"src/modules/b.js":     "import { a } from './a.js';\nexport const b = a + 1;\n",
		"src/modules/c.js":     "import { b } from './b.js';\nexport const c = b + 1;\n",
		"src/modules/other.js": "export const other = 0;\n",
	})
}

func TestGraph_JSON(t *testing.T) {
	root := chainProject(t)
	loadProject(t, root, map[string]string{"output": "json"})

	out, _, err := execute(t, NewGraphCommand(), "--affected", "src/modules/a.js")
	require.NoError(t, err)

	var got GraphOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, 4, got.TotalUnits)
	assert.Equal(t, 2, got.TotalEdges)
	require.Len(t, got.Levels, 3)

	level0 := make([]string, 0, len(got.Levels[0].Units))
	for _, n := range got.Levels[0].Units {
		level0 = append(level0, n.Path)
	}
	assert.ElementsMatch(t, []string{"src/modules/a.js", "src/modules/other.js"}, level0)
	assert.Equal(t, "src/modules/c.js", got.Levels[2].Units[0].Path)
	assert.Equal(t, []string{"src/modules/b.js"}, got.Levels[2].Units[0].Imports)

	assert.ElementsMatch(t, []string{"src/modules/a.js", "src/modules/other.js"}, got.Roots)
	assert.Contains(t, got.Affected, "src/modules/c.js")
	assert.NotContains(t, got.Affected, "src/modules/other.js")
}

func TestGraph_Markdown(t *testing.T) {
	root := chainProject(t)
	loadProject(t, root, nil)

	out, _, err := execute(t, NewGraphCommand())
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "## Level 1")
	assert.Contains(t, out, "- src/modules/b.js\n  - imports: src/modules/a.js\n  - imported by: src/modules/c.js")
	assert.Contains(t, out, "- **Total Units**: 4")
	assert.NotContains(t, out, "## Affected")
}

func TestGraph_Text(t *testing.T) {
	root := chainProject(t)
	cfg := loadProject(t, root, nil)

	cmdCtx, err := NewCommandContextWithoutStore(NewGraphCommand())
	require.NoError(t, err)
	plan, err := cmdCtx.Bundler.Plan(t.Context())
	require.NoError(t, err)
	out, err := graphOutput(plan.Graph, nil)
	require.NoError(t, err)

	tr := testutil.NewTestRendererText()
	graphText(tr.Renderer, out)
	assert.Contains(t, tr.Output(), "Level 2:")
	assert.Contains(t, tr.Output(), "Total: 4 units, 2 imports")
	assert.Equal(t, root, cfg.ProjectRoot)
}

func TestGraph_UnknownAffectedUnit(t *testing.T) {
	root := chainProject(t)
	loadProject(t, root, nil)

	_, _, err := execute(t, NewGraphCommand(), "--affected", "src/modules/missing.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a module unit")
}
