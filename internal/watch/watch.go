// Package watch rebuilds the bundle when source files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/leappack/internal/loader"
)

// DefaultDebounce is the quiet period before a rebuild starts.
const DefaultDebounce = 100 * time.Millisecond

// BuildFunc runs one build. Errors are logged and do not stop the watcher.
type BuildFunc func(ctx context.Context) error

// sourceExts are the extensions that trigger a rebuild.
var sourceExts = map[string]bool{
	".js":   true,
	".mjs":  true,
	".cjs":  true,
	".json": true,
}

// Options configures a Watcher.
type Options struct {
	// Root is the directory tree to watch.
	Root string
	// Ignore holds glob patterns, relative to Root, whose changes are
	// dropped. The artifact path belongs here.
	Ignore []string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Watcher runs a build, then rebuilds after each burst of changes.
// Builds never overlap.
type Watcher struct {
	root     string
	ignore   []string
	debounce time.Duration
	build    BuildFunc
	logger   *slog.Logger
}

// New creates a watcher.
func New(opts Options, build BuildFunc) (*Watcher, error) {
	if build == nil {
		return nil, errors.New("watch: build function is required")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		ignore:   opts.Ignore,
		debounce: debounce,
		build:    build,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := w.watchDir(watcher, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	// Capacity one: a change during a build queues exactly one more build.
	pending := make(chan struct{}, 1)
	pending <- struct{}{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.buildLoop(ctx, pending)
	}()

	w.logger.Info("watching for changes", "root", w.root)
	w.watchLoop(ctx, watcher, pending)
	<-done
	return nil
}

func (w *Watcher) buildLoop(ctx context.Context, pending <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pending:
			if err := w.build(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("rebuild failed", "error", err)
			}
		}
	}
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pending chan<- struct{}) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watchDir(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			if !w.relevant(event.Name) {
				continue
			}
			w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// relevant reports whether a change to path should trigger a rebuild.
func (w *Watcher) relevant(path string) bool {
	if !sourceExts[strings.ToLower(filepath.Ext(path))] {
		return false
	}
	rel := loader.RelPath(w.root, path)
	return !loader.Match(w.ignore, rel)
}

// watchDir recursively adds a directory to the watcher.
func (w *Watcher) watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		// Skip node_modules and hidden directories
		name := d.Name()
		if path != w.root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
