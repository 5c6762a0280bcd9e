package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leappack/pkg/core"
)

const buildColumns = `id, output_path, status, fingerprint, artifact_hash,
	unit_count, export_count, warning_count, started_at, completed_at, error`

// CreateBuild records the start of a build.
func (s *SQLiteStore) CreateBuild(outputPath string) (*core.Build, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	b := &core.Build{
		ID:         generateID(),
		OutputPath: outputPath,
		Status:     core.BuildStatusRunning,
		StartedAt:  time.Now().UTC(),
	}

	s.logger.Debug("creating build", slog.String("id", b.ID), slog.String("output", outputPath))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO builds (id, output_path, status, started_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.OutputPath, string(b.Status), b.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}
	return b, nil
}

// CompleteBuild stores the final state of b.
func (s *SQLiteStore) CompleteBuild(b *core.Build) error {
	if s.db == nil {
		return errNotOpened
	}

	completedAt := time.Now().UTC()
	if b.CompletedAt != nil {
		completedAt = b.CompletedAt.UTC()
	}
	var errMsg *string
	if b.Error != "" {
		errMsg = &b.Error
	}

	res, err := s.db.ExecContext(ctx(),
		`UPDATE builds SET status = ?, fingerprint = ?, artifact_hash = ?,
			unit_count = ?, export_count = ?, warning_count = ?, completed_at = ?, error = ?
		WHERE id = ?`,
		string(b.Status), b.Fingerprint, b.ArtifactHash,
		b.UnitCount, b.ExportCount, b.WarningCount, completedAt, errMsg, b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete build: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("build not found: %s", b.ID)
	}
	return nil
}

// GetBuild retrieves a build by ID.
func (s *SQLiteStore) GetBuild(id string) (*core.Build, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx(), `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("build not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}
	return b, nil
}

// GetLatestSuccessfulBuild returns the most recent successful build for
// outputPath, or nil when there is none.
func (s *SQLiteStore) GetLatestSuccessfulBuild(outputPath string) (*core.Build, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	row := s.db.QueryRowContext(ctx(),
		`SELECT `+buildColumns+` FROM builds
		WHERE output_path = ? AND status = ?
		ORDER BY seq DESC LIMIT 1`,
		outputPath, string(core.BuildStatusSuccess),
	)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest build: %w", err)
	}
	return b, nil
}

// ListBuilds returns the most recent builds, newest first.
func (s *SQLiteStore) ListBuilds(limit int) ([]*core.Build, error) {
	if s.db == nil {
		return nil, errNotOpened
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+buildColumns+` FROM builds ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	var builds []*core.Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	return builds, nil
}

// PruneBuilds deletes all but the newest keep builds.
func (s *SQLiteStore) PruneBuilds(keep int) error {
	if s.db == nil {
		return errNotOpened
	}

	res, err := s.db.ExecContext(ctx(),
		`DELETE FROM builds WHERE seq NOT IN (SELECT seq FROM builds ORDER BY seq DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune builds: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.logger.Debug("pruned builds", slog.Int64("count", n))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*core.Build, error) {
	var (
		b           core.Build
		status      string
		completedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(&b.ID, &b.OutputPath, &status, &b.Fingerprint, &b.ArtifactHash,
		&b.UnitCount, &b.ExportCount, &b.WarningCount, &b.StartedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	b.Status = core.BuildStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		b.CompletedAt = &t
	}
	if errMsg.Valid {
		b.Error = errMsg.String
	}
	return &b, nil
}
