package state

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return newWithDB(db, nil), mock
}

var errDiskFull = errors.New("disk I/O error")

func TestSQLiteStore_CreateBuild_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO builds")).WillReturnError(errDiskFull)

	_, err := store.CreateBuild("build/Bundle.js")
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.Contains(t, err.Error(), "failed to create build")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_GetBuild_QueryError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM builds WHERE id = ?")).
		WithArgs("b1").
		WillReturnError(errDiskFull)

	_, err := store.GetBuild("b1")
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListBuilds_ScanError(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("b1")
	mock.ExpectQuery(regexp.QuoteMeta("FROM builds ORDER BY seq DESC")).WillReturnRows(rows)

	_, err := store.ListBuilds(10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan build")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_SaveBuildInputs_RollsBack(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM build_inputs")).
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO build_inputs"))
	prep.ExpectExec().
		WithArgs("b1", "a.js", "h", 1, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs("b1", "b.js", "h", 1, 1).
		WillReturnError(errDiskFull)
	mock.ExpectRollback()

	err := store.SaveBuildInputs("b1", []core.ArtifactInput{
		{Path: "a.js", Hash: "h", Bytes: 1, BytesInOutput: 1},
		{Path: "b.js", Hash: "h", Bytes: 1, BytesInOutput: 1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save input b.js")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CompleteBuild_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE builds SET status")).WillReturnError(errDiskFull)

	err := store.CompleteBuild(&core.Build{ID: "b1", Status: core.BuildStatusFailed, Error: "boom"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_PruneBuilds_ExecError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM builds")).WithArgs(5).WillReturnError(errDiskFull)

	err := store.PruneBuilds(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to prune builds")
	assert.NoError(t, mock.ExpectationsWereMet())
}
