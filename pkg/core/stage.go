package core

// Stage names accepted in the plugins list.
const (
	StageMultiEntry = "multi-entry"
	StageResolve    = "resolve"
	StageCommonJS   = "commonjs"
)

// DefaultStages is the pipeline used when none is configured.
var DefaultStages = []string{StageMultiEntry, StageResolve, StageCommonJS}
