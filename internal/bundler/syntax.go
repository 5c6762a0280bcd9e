package bundler

import (
	"errors"
	"path/filepath"

	"github.com/dop251/goja/parser"
)

// checkSyntax parses the wrapped artifact. Banner text and stage output are
// spliced around esbuild's result, so the final file is not known to parse
// until it has been parsed here.
func checkSyntax(path string, contents []byte) error {
	name := filepath.Base(path)
	_, err := parser.ParseFile(nil, name, string(contents), 0)
	if err == nil {
		return nil
	}

	var list parser.ErrorList
	if !errors.As(err, &list) {
		return &BuildError{Phase: "syntax check", Diagnostics: []Diagnostic{{File: name, Text: err.Error()}}}
	}
	diags := make([]Diagnostic, 0, len(list))
	for _, e := range list {
		diags = append(diags, Diagnostic{
			File:   name,
			Line:   e.Position.Line,
			Column: e.Position.Column,
			Text:   e.Message,
		})
	}
	return &BuildError{Phase: "syntax check", Diagnostics: diags}
}
