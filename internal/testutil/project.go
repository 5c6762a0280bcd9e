package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FunctionsUnit is the sample unit exporting inc.
const FunctionsUnit = `export const inc = (x) => x + 1;
`

// IndexUnit is the sample unit exporting a Namespace object built from inc.
const IndexUnit = `import { inc } from './functions.js';

const Namespace = {
    doSomething: inc
};

export { Namespace };
`

// WriteFiles writes files (slash-separated relative path -> contents) under
// root, creating directories as needed.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

// SetupProject creates a temporary project containing files and returns its root.
func SetupProject(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// SetupSampleProject creates a project with the two sample units under
// src/modules.
func SetupSampleProject(t testing.TB) string {
	t.Helper()
	return SetupProject(t, map[string]string{
		"src/modules/functions.js": FunctionsUnit,
		"src/modules/index.js":     IndexUnit,
	})
}
