// Package loader discovers the module units matched by the input globs.
//
// Discovery is the only step that touches unit files directly: it expands
// the patterns, reads every match, and hashes its contents so later stages
// work from a consistent snapshot.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/leapstack-labs/leappack/pkg/core"
	"golang.org/x/sync/errgroup"
)

// ErrNoUnits is returned when the patterns match no files.
var ErrNoUnits = errors.New("no module units matched the input patterns")

// Options configures unit discovery.
type Options struct {
	// Root is the project root. Relative patterns and unit paths are
	// resolved against it.
	Root string
	// Patterns are doublestar globs, e.g. "src/modules/*.js".
	Patterns []string
	// Concurrency bounds parallel file reads. Zero means GOMAXPROCS.
	Concurrency int
	// Logger is optional; a discard logger is used when nil.
	Logger *slog.Logger
}

// Discover expands the patterns and returns the matched units in
// enumeration order: patterns in the given order, matches of one pattern in
// lexical order, each file at most once.
func Discover(ctx context.Context, opts Options) ([]*core.Unit, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	paths, err := expand(root, opts.Patterns)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoUnits, strings.Join(opts.Patterns, ", "))
	}

	units := make([]*core.Unit, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, abs := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := readUnit(root, abs)
			if err != nil {
				return err
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("discovered units", "count", len(units), "patterns", opts.Patterns)
	return units, nil
}

// expand resolves every pattern to absolute file paths.
func expand(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, pattern := range patterns {
		base, pat := root, filepath.ToSlash(pattern)
		if filepath.IsAbs(pattern) {
			base, pat = doublestar.SplitPattern(pat)
			base = filepath.FromSlash(base)
		}
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid input pattern %q", pattern)
		}

		matches, err := doublestar.Glob(os.DirFS(base), pat, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
		}
		sort.Strings(matches)

		for _, m := range matches {
			abs := filepath.Join(base, filepath.FromSlash(m))
			if seen[abs] {
				continue
			}
			seen[abs] = true
			out = append(out, abs)
		}
	}
	return out, nil
}

func readUnit(root, abs string) (*core.Unit, error) {
	content, err := os.ReadFile(abs) //nolint:gosec // G304: abs comes from glob expansion under the project root
	if err != nil {
		return nil, fmt.Errorf("failed to read unit %s: %w", abs, err)
	}
	return &core.Unit{
		Path:    RelPath(root, abs),
		AbsPath: abs,
		Hash:    HashBytes(content),
		Size:    int64(len(content)),
	}, nil
}

// RelPath returns abs relative to root with forward slashes. Paths outside
// root keep their leading "../" segments.
func RelPath(root, abs string) string {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// HashBytes returns the hex sha256 of b.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex sha256 of the file at path.
func HashFile(path string) (string, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path is a recorded build input
	if err != nil {
		return "", err
	}
	return HashBytes(content), nil
}

// Match reports whether a slash-separated path relative to the project root
// matches any of the patterns. Absolute patterns never match relative paths.
func Match(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(filepath.ToSlash(p), rel); err == nil && ok {
			return true
		}
	}
	return false
}
