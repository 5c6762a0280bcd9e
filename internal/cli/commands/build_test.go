package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leappack/internal/cli/testutil"
	"github.com/leapstack-labs/leappack/internal/state"
	projtest "github.com/leapstack-labs/leappack/internal/testutil"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_WritesArtifact(t *testing.T) {
	root := projtest.SetupSampleProject(t)
	cfg := loadProject(t, root, nil)

	out, _, err := execute(t, NewBuildCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "build/Bundle.js")
	assert.Contains(t, out, "2 units, 2 exports")

	content, err := os.ReadFile(filepath.Join(root, "build", "Bundle.js"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "/*"), "artifact starts with the banner")

	store := state.NewSQLiteStore(nil)
	require.NoError(t, store.Open(cfg.StatePath))
	defer func() { _ = store.Close() }()
	require.NoError(t, store.InitSchema())
	builds, err := store.ListBuilds(10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, core.BuildStatusSuccess, builds[0].Status)
}

func TestBuild_DryRunJSON(t *testing.T) {
	root := projtest.SetupSampleProject(t)
	loadProject(t, root, map[string]string{"output": "json"})

	out, _, err := execute(t, NewBuildCommand(), "--dry-run")
	require.NoError(t, err)

	var summary struct {
		Path    string   `json:"path"`
		Exports []string `json:"exports"`
		Units   []string `json:"units"`
		Bytes   int      `json:"bytes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, []string{"inc", "Namespace"}, summary.Exports)
	assert.Equal(t, []string{"src/modules/functions.js", "src/modules/index.js"}, summary.Units)
	assert.Positive(t, summary.Bytes)

	_, err = os.Stat(filepath.Join(root, "build", "Bundle.js"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, ".leappack"))
	assert.True(t, os.IsNotExist(err), "dry run opens no state store")
}

func TestBuild_StrictDuplicates(t *testing.T) {
	root := projtest.SetupProject(t, map[string]string{
		"src/modules/a.js": "export const same = 1;\n",
		"src/modules/b.js": "export const same = 2;\n",
	})

	t.Run("warns by default", func(t *testing.T) {
		loadProject(t, root, nil)
		_, errOut, err := execute(t, NewBuildCommand(), "--dry-run")
		require.NoError(t, err)
		assert.Contains(t, errOut, "same")
	})

	t.Run("fails when strict", func(t *testing.T) {
		loadProject(t, root, map[string]string{"strict": "true"})
		_, _, err := execute(t, NewBuildCommand(), "--dry-run")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same")
	})
}

func TestBuild_SecondBuildSkipped(t *testing.T) {
	root := projtest.SetupSampleProject(t)
	projtest.WriteFiles(t, root, map[string]string{"leappack.yaml": "incremental: true\n"})
	cfg := loadProject(t, root, nil)
	require.True(t, cfg.Incremental)

	_, _, err := execute(t, NewBuildCommand())
	require.NoError(t, err)

	out, _, err := execute(t, NewBuildCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	out, _, err = execute(t, NewBuildCommand(), "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "success")
}

func TestReportBuild(t *testing.T) {
	art := &core.Artifact{
		Path:     "build/Bundle.js",
		Contents: []byte("x"),
		Units:    []string{"a.js"},
		Exports:  []string{"a"},
		Warnings: []string{"duplicate"},
	}

	tests := []struct {
		name    string
		dryRun  bool
		skipped bool
		want    string
	}{
		{name: "written", want: "- build/Bundle.js: success (1 units, 1 exports, 1 B)"},
		{name: "dry run", dryRun: true, want: "(1 units, 1 exports, 1 B, not written)"},
		{name: "skipped", skipped: true, want: "- build/Bundle.js: skipped (inputs unchanged)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := *art
			a.Skipped = tt.skipped
			tr := testutil.NewTestRendererMarkdown()
			require.NoError(t, reportBuild(tr.Renderer, &a, tt.dryRun))
			assert.Contains(t, tr.Output(), tt.want)
			assert.Contains(t, tr.ErrorOutput(), "warning: duplicate")
		})
	}
}
