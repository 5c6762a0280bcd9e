package core

import "time"

// Store records build history.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Build operations
	CreateBuild(outputPath string) (*Build, error)
	CompleteBuild(b *Build) error
	GetBuild(id string) (*Build, error)
	GetLatestSuccessfulBuild(outputPath string) (*Build, error)
	ListBuilds(limit int) ([]*Build, error)
	PruneBuilds(keep int) error

	// Input hash tracking
	SaveBuildInputs(buildID string, inputs []ArtifactInput) error
	GetBuildInputs(buildID string) ([]ArtifactInput, error)
}

// BuildStatus represents the status of a build invocation.
type BuildStatus string

// Build status constants.
const (
	BuildStatusRunning BuildStatus = "running"
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
	BuildStatusSkipped BuildStatus = "skipped"
)

// Build is one recorded build invocation.
type Build struct {
	ID           string
	OutputPath   string
	Status       BuildStatus
	Fingerprint  string
	ArtifactHash string
	UnitCount    int
	ExportCount  int
	WarningCount int
	StartedAt    time.Time
	CompletedAt  *time.Time
	Error        string
}

// Duration returns the build duration, or zero while running.
func (b *Build) Duration() time.Duration {
	if b.CompletedAt == nil {
		return 0
	}
	return b.CompletedAt.Sub(b.StartedAt)
}
