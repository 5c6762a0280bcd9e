package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leappack/internal/testutil"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".leappack", "state.db")

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	defer store.Close()

	require.NoError(t, store.InitSchema())
	assert.FileExists(t, path)
	assert.Equal(t, path, store.Path())

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Migrating twice is a no-op.
	require.NoError(t, store.InitSchema())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.CreateBuild("build/Bundle.js")
	assert.ErrorIs(t, err, errNotOpened)
	assert.ErrorIs(t, store.CompleteBuild(&core.Build{ID: "x"}), errNotOpened)
	_, err = store.ListBuilds(10)
	assert.ErrorIs(t, err, errNotOpened)
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_BuildLifecycle(t *testing.T) {
	store := setupTestStore(t)

	b, err := store.CreateBuild("build/Bundle.js")
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, core.BuildStatusRunning, b.Status)

	got, err := store.GetBuild(b.ID)
	require.NoError(t, err)
	assert.Equal(t, core.BuildStatusRunning, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Zero(t, got.Duration())

	done := b.StartedAt.Add(250 * time.Millisecond)
	b.Status = core.BuildStatusSuccess
	b.Fingerprint = "fp"
	b.ArtifactHash = "hash"
	b.UnitCount = 2
	b.ExportCount = 3
	b.WarningCount = 1
	b.CompletedAt = &done
	require.NoError(t, store.CompleteBuild(b))

	got, err = store.GetBuild(b.ID)
	require.NoError(t, err)
	assert.Equal(t, core.BuildStatusSuccess, got.Status)
	assert.Equal(t, "fp", got.Fingerprint)
	assert.Equal(t, "hash", got.ArtifactHash)
	assert.Equal(t, 2, got.UnitCount)
	assert.Equal(t, 3, got.ExportCount)
	assert.Equal(t, 1, got.WarningCount)
	require.NotNil(t, got.CompletedAt)
	assert.InDelta(t, float64(250*time.Millisecond), float64(got.Duration()), float64(time.Millisecond))
	assert.Empty(t, got.Error)
}

func TestSQLiteStore_FailedBuildKeepsError(t *testing.T) {
	store := setupTestStore(t)

	b, err := store.CreateBuild("build/Bundle.js")
	require.NoError(t, err)
	b.Status = core.BuildStatusFailed
	b.Error = `cannot resolve "./missing.js" imported by src/modules/a.js`
	require.NoError(t, store.CompleteBuild(b))

	got, err := store.GetBuild(b.ID)
	require.NoError(t, err)
	assert.Equal(t, core.BuildStatusFailed, got.Status)
	assert.Equal(t, b.Error, got.Error)
}

func TestSQLiteStore_GetBuildNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetBuild("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build not found")

	err = store.CompleteBuild(&core.Build{ID: "nope", Status: core.BuildStatusSuccess})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build not found")
}

func TestSQLiteStore_LatestSuccessfulBuild(t *testing.T) {
	store := setupTestStore(t)

	latest, err := store.GetLatestSuccessfulBuild("build/Bundle.js")
	require.NoError(t, err)
	assert.Nil(t, latest)

	complete := func(output string, status core.BuildStatus, fp string) *core.Build {
		b, err := store.CreateBuild(output)
		require.NoError(t, err)
		b.Status = status
		b.Fingerprint = fp
		require.NoError(t, store.CompleteBuild(b))
		return b
	}

	complete("build/Bundle.js", core.BuildStatusSuccess, "first")
	second := complete("build/Bundle.js", core.BuildStatusSuccess, "second")
	complete("build/Bundle.js", core.BuildStatusFailed, "third")
	complete("build/Bundle.js", core.BuildStatusSkipped, "fourth")
	complete("build/Other.js", core.BuildStatusSuccess, "other")

	latest, err = store.GetLatestSuccessfulBuild("build/Bundle.js")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "second", latest.Fingerprint)
}

func TestSQLiteStore_ListAndPruneBuilds(t *testing.T) {
	store := setupTestStore(t)

	var ids []string
	for range 5 {
		b, err := store.CreateBuild("build/Bundle.js")
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	builds, err := store.ListBuilds(3)
	require.NoError(t, err)
	require.Len(t, builds, 3)
	assert.Equal(t, ids[4], builds[0].ID)
	assert.Equal(t, ids[2], builds[2].ID)

	all, err := store.ListBuilds(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	require.NoError(t, store.SaveBuildInputs(ids[0], []core.ArtifactInput{{Path: "a.js"}}))
	require.NoError(t, store.PruneBuilds(2))

	all, err = store.ListBuilds(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ids[4], all[0].ID)
	assert.Equal(t, ids[3], all[1].ID)

	inputs, err := store.GetBuildInputs(ids[0])
	require.NoError(t, err)
	assert.Empty(t, inputs, "inputs of pruned builds cascade")
}

func TestSQLiteStore_BuildInputs(t *testing.T) {
	store := setupTestStore(t)

	b, err := store.CreateBuild("build/Bundle.js")
	require.NoError(t, err)

	inputs := []core.ArtifactInput{
		{Path: "src/modules/index.js", Hash: "h2", Bytes: 80, BytesInOutput: 40},
		{Path: "src/modules/functions.js", Hash: "h1", Bytes: 35, BytesInOutput: 20},
	}
	require.NoError(t, store.SaveBuildInputs(b.ID, inputs))

	got, err := store.GetBuildInputs(b.ID)
	require.NoError(t, err)
	assert.Equal(t, []core.ArtifactInput{inputs[1], inputs[0]}, got)

	// Saving again replaces the set.
	require.NoError(t, store.SaveBuildInputs(b.ID, inputs[:1]))
	got, err = store.GetBuildInputs(b.ID)
	require.NoError(t, err)
	assert.Equal(t, inputs[:1], got)

	err = store.SaveBuildInputs("unknown-build", inputs)
	assert.Error(t, err, "foreign key rejects inputs of unknown builds")
}
