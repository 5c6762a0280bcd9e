package state

import (
	"fmt"

	"github.com/leapstack-labs/leappack/pkg/core"
)

// SaveBuildInputs replaces the recorded inputs of a build.
func (s *SQLiteStore) SaveBuildInputs(buildID string, inputs []core.ArtifactInput) error {
	if s.db == nil {
		return errNotOpened
	}

	tx, err := s.db.BeginTx(ctx(), nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx(), `DELETE FROM build_inputs WHERE build_id = ?`, buildID); err != nil {
		return fmt.Errorf("failed to clear build inputs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx(),
		`INSERT INTO build_inputs (build_id, path, hash, bytes, bytes_in_output) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, in := range inputs {
		if _, err := stmt.ExecContext(ctx(), buildID, in.Path, in.Hash, in.Bytes, in.BytesInOutput); err != nil {
			return fmt.Errorf("failed to save input %s: %w", in.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit build inputs: %w", err)
	}
	return nil
}

// GetBuildInputs returns the recorded inputs of a build in path order.
func (s *SQLiteStore) GetBuildInputs(buildID string) ([]core.ArtifactInput, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT path, hash, bytes, bytes_in_output FROM build_inputs WHERE build_id = ? ORDER BY path`, buildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get build inputs: %w", err)
	}
	defer rows.Close()

	var inputs []core.ArtifactInput
	for rows.Next() {
		var in core.ArtifactInput
		if err := rows.Scan(&in.Path, &in.Hash, &in.Bytes, &in.BytesInOutput); err != nil {
			return nil, fmt.Errorf("failed to scan build input: %w", err)
		}
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get build inputs: %w", err)
	}
	return inputs, nil
}
