// Package core defines the shared language of leappack.
//
// This package contains:
//   - Domain entities (Unit, Artifact, Build)
//   - Service interfaces (Store)
//   - Build status and stage names shared by the CLI and the bundler
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
