package bundler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ResolutionError reports an import that no stage could resolve.
type ResolutionError struct {
	// Specifier is the import path as written.
	Specifier string
	// Importer is the project-relative path of the importing unit.
	Importer string
}

func (e *ResolutionError) Error() string {
	if e.Importer == "" {
		return fmt.Sprintf("cannot resolve %q", e.Specifier)
	}
	return fmt.Sprintf("cannot resolve %q imported by %s", e.Specifier, e.Importer)
}

// Diagnostic is one esbuild message.
type Diagnostic struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	ID     string `json:"id,omitempty"`
	Text   string `json:"text"`
}

func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}

// BuildError carries the errors of a failed pass.
type BuildError struct {
	// Phase names the failing pass. Empty means esbuild.
	Phase       string
	Diagnostics []Diagnostic
}

func (e *BuildError) Error() string {
	phase := e.Phase
	if phase == "" {
		phase = "esbuild"
	}
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return phase + " errors:\n" + strings.Join(lines, "\n")
}

func diagnosticFrom(msg api.Message) Diagnostic {
	d := Diagnostic{ID: msg.ID, Text: msg.Text}
	if msg.Location != nil {
		d.File = msg.Location.File
		d.Line = msg.Location.Line
		d.Column = msg.Location.Column
	}
	return d
}

var couldNotResolve = regexp.MustCompile(`^Could not resolve "([^"]+)"`)

// classify splits esbuild errors into resolution failures and everything
// else. Messages raised by our own plugins were already recorded and are
// dropped here.
func classify(msgs []api.Message) ([]*ResolutionError, []Diagnostic) {
	var resolution []*ResolutionError
	var other []Diagnostic
	for _, msg := range msgs {
		if msg.PluginName == resolvePluginName {
			continue
		}
		if m := couldNotResolve.FindStringSubmatch(msg.Text); m != nil {
			re := &ResolutionError{Specifier: m[1]}
			if msg.Location != nil {
				re.Importer = msg.Location.File
			}
			resolution = append(resolution, re)
			continue
		}
		other = append(other, diagnosticFrom(msg))
	}
	return resolution, other
}
