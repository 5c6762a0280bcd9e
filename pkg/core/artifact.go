package core

import "time"

// Artifact is the emitted bundle entry point.
type Artifact struct {
	// Path is where the artifact was (or would be) written.
	Path string `json:"path"`
	// Contents is the complete artifact text.
	Contents []byte `json:"-"`
	// Hash is the hex sha256 of Contents.
	Hash string `json:"hash"`
	// Namespace is the name of the exports object in the artifact.
	Namespace string `json:"namespace"`
	// Exports lists the aggregated export names in emission order.
	Exports []string `json:"exports"`
	// Units lists the unit paths in concatenation order.
	Units []string `json:"units"`
	// Inputs lists every file esbuild read, with its share of the output.
	Inputs []ArtifactInput `json:"inputs"`
	// Warnings holds recoverable diagnostics (duplicate exports, esbuild warnings).
	Warnings []string `json:"warnings,omitempty"`
	// Fingerprint identifies the inputs and options that produced the artifact.
	Fingerprint string `json:"fingerprint"`
	// Skipped is set when an incremental build found nothing to do.
	Skipped bool `json:"skipped,omitempty"`
	// Duration is the wall time of the build.
	Duration time.Duration `json:"duration_ns"`
}

// ArtifactInput describes one input file's contribution to the artifact.
type ArtifactInput struct {
	Path          string `json:"path"`
	Hash          string `json:"hash,omitempty"`
	Bytes         int    `json:"bytes"`
	BytesInOutput int    `json:"bytes_in_output"`
}

// Size returns the artifact size in bytes.
func (a *Artifact) Size() int {
	return len(a.Contents)
}
