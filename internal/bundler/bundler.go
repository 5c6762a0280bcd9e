// Package bundler turns the module units matched by the input globs into a
// single artifact.
//
// A build plans first (discover, analyse, aggregate, generate the merge
// entry), then runs esbuild through the configured stage pipeline, wraps
// the output in an isolating function scope and writes it atomically.
package bundler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leappack/internal/loader"
	"github.com/leapstack-labs/leappack/pkg/core"
	"github.com/spf13/afero"
)

// Config holds bundler configuration.
type Config struct {
	Options
	// Incremental skips the build when the last successful build recorded
	// in Store had the same fingerprint and its artifact is intact.
	Incremental bool
	// Fs receives the artifact. Defaults to the OS filesystem.
	Fs afero.Fs
	// Store records build history (optional).
	Store core.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// HistoryLimit is the number of build records kept in the store.
const HistoryLimit = 100

// Bundler builds artifacts for one set of options.
type Bundler struct {
	opts        Options
	incremental bool
	fs          afero.Fs
	store       core.Store
	logger      *slog.Logger
}

// BuildOptions tune a single invocation.
type BuildOptions struct {
	// Force rebuilds even when an incremental build would be skipped.
	Force bool
	// DryRun produces the artifact without writing it or recording history.
	DryRun bool
}

// New validates cfg and creates a bundler.
func New(cfg Config) (*Bundler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := cfg.Options.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bundle options: %w", err)
	}

	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	return &Bundler{
		opts:        opts,
		incremental: cfg.Incremental,
		fs:          fsys,
		store:       cfg.Store,
		logger:      logger,
	}, nil
}

// Options returns the effective options.
func (b *Bundler) Options() Options {
	return b.opts
}

// OutputPath returns the absolute artifact path.
func (b *Bundler) OutputPath() (string, error) {
	root, err := filepath.Abs(b.opts.Root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	if filepath.IsAbs(b.opts.Outfile) {
		return filepath.Clean(b.opts.Outfile), nil
	}
	return filepath.Join(root, filepath.FromSlash(b.opts.Outfile)), nil
}

// Build plans and emits the artifact. A failed build writes nothing.
func (b *Bundler) Build(ctx context.Context, bo BuildOptions) (*core.Artifact, error) {
	start := time.Now()

	outPath, err := b.OutputPath()
	if err != nil {
		return nil, err
	}
	root, _ := filepath.Abs(b.opts.Root)
	relOut := loader.RelPath(root, outPath)

	b.logger.Info("starting build", "outfile", relOut, "force", bo.Force, "dry_run", bo.DryRun)

	var record *core.Build
	if b.store != nil && !bo.DryRun {
		record, err = b.store.CreateBuild(relOut)
		if err != nil {
			b.logger.Warn("failed to record build start", "error", err)
		}
	}

	art, inputs, err := b.build(ctx, bo, outPath, relOut)
	if art != nil {
		art.Duration = time.Since(start)
	}
	b.finish(record, art, inputs, err)

	if err != nil {
		b.logger.Error("build failed", "outfile", relOut, "error", err)
		return nil, err
	}
	if art.Skipped {
		b.logger.Info("build skipped, inputs unchanged", "outfile", relOut)
	} else {
		b.logger.Info("build completed", "outfile", relOut, "units", len(art.Units),
			"exports", len(art.Exports), "bytes", art.Size(), "duration", art.Duration)
	}
	return art, nil
}

func (b *Bundler) build(ctx context.Context, bo BuildOptions, outPath, relOut string) (*core.Artifact, []core.ArtifactInput, error) {
	plan, err := b.Plan(ctx)
	if err != nil {
		return nil, nil, err
	}
	fp := b.fingerprint(plan)

	if b.incremental && !bo.Force && !bo.DryRun {
		if art, inputs, ok := b.unchanged(plan, fp, outPath, relOut); ok {
			return art, inputs, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	contents, inputs, warnings, err := b.bundle(plan, outPath)
	if err != nil {
		return nil, nil, err
	}

	art := &core.Artifact{
		Path:        relOut,
		Contents:    contents,
		Hash:        loader.HashBytes(contents),
		Namespace:   b.opts.Namespace,
		Exports:     plan.Namespace.Names(),
		Units:       unitPaths(plan.Units),
		Inputs:      inputs,
		Warnings:    append(append([]string(nil), plan.Warnings...), warnings...),
		Fingerprint: fp,
	}

	if bo.DryRun {
		return art, inputs, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := writeAtomic(b.fs, outPath, contents); err != nil {
		return nil, nil, err
	}
	return art, inputs, nil
}

// bundle runs esbuild over the merge entry and returns the wrapped output.
func (b *Bundler) bundle(plan *Plan, outPath string) ([]byte, []core.ArtifactInput, []string, error) {
	env := &stageEnv{
		root:        plan.Root,
		entry:       plan.Entry,
		hostModules: b.opts.HostModules,
		resolved:    newResolutionLog(plan.Root),
	}

	treeShaking := api.TreeShakingFalse
	if b.opts.TreeShake {
		treeShaking = api.TreeShakingTrue
	}

	opts := api.BuildOptions{
		EntryPoints:   []string{entrySpecifier},
		AbsWorkingDir: plan.Root,
		Bundle:        true,
		Write:         false,
		Outfile:       outPath,
		Format:        api.FormatIIFE,
		Platform:      api.PlatformNeutral,
		Target:        targets[strings.ToLower(b.opts.Target)],
		TreeShaking:   treeShaking,
		Charset:       api.CharsetUTF8,
		Metafile:      true,
		LogLevel:      api.LogLevelSilent,
		Banner:        map[string]string{"js": header(b.opts)},
		Footer:        map[string]string{"js": footer(b.opts)},
	}
	if b.opts.Minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}
	if err := applyStages(b.opts.Stages, env, &opts); err != nil {
		return nil, nil, nil, err
	}

	result := api.Build(opts)

	resolution := env.resolved.all()
	classified, diags := classify(result.Errors)
	resolution = append(resolution, classified...)
	if len(resolution) > 0 || len(diags) > 0 {
		return nil, nil, nil, failure(resolution, diags)
	}
	if len(result.OutputFiles) != 1 {
		return nil, nil, nil, fmt.Errorf("expected one output file, esbuild produced %d", len(result.OutputFiles))
	}

	contents := result.OutputFiles[0].Contents
	if err := checkSyntax(outPath, contents); err != nil {
		return nil, nil, nil, err
	}

	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		return nil, nil, nil, err
	}
	return contents, artifactInputs(plan.Root, meta), messages(result.Warnings), nil
}

// artifactInputs lists the files that contributed to the single output.
func artifactInputs(root string, meta *metafile) []core.ArtifactInput {
	var inputs []core.ArtifactInput
	for _, out := range meta.Outputs {
		for path, contrib := range out.Inputs {
			in := core.ArtifactInput{
				Path:          path,
				Bytes:         meta.Inputs[path].Bytes,
				BytesInOutput: contrib.BytesInOutput,
			}
			if !isVirtual(path) {
				if h, err := loader.HashFile(filepath.Join(root, filepath.FromSlash(path))); err == nil {
					in.Hash = h
				}
			}
			inputs = append(inputs, in)
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Path < inputs[j].Path })
	return inputs
}

func isVirtual(path string) bool {
	return strings.HasPrefix(path, entryNamespace+":") || strings.HasPrefix(path, hostNamespace+":")
}

// fingerprint identifies the options and unit contents of a plan.
func (b *Bundler) fingerprint(plan *Plan) string {
	type unitKey struct {
		Path string `json:"path"`
		Hash string `json:"hash"`
	}
	key := struct {
		Options Options   `json:"options"`
		Units   []unitKey `json:"units"`
	}{Options: b.opts}
	key.Options.Root = ""
	for _, u := range plan.Units {
		key.Units = append(key.Units, unitKey{Path: u.Path, Hash: u.Hash})
	}

	raw, _ := json.Marshal(key)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// unchanged reports whether the last successful build can stand in for
// this one: same fingerprint, artifact on disk untouched, every recorded
// input file still hashing the same.
func (b *Bundler) unchanged(plan *Plan, fp, outPath, relOut string) (*core.Artifact, []core.ArtifactInput, bool) {
	if b.store == nil {
		return nil, nil, false
	}
	prev, err := b.store.GetLatestSuccessfulBuild(relOut)
	if err != nil || prev == nil || prev.Fingerprint != fp {
		return nil, nil, false
	}

	contents, err := afero.ReadFile(b.fs, outPath)
	if err != nil || loader.HashBytes(contents) != prev.ArtifactHash {
		return nil, nil, false
	}

	inputs, err := b.store.GetBuildInputs(prev.ID)
	if err != nil {
		return nil, nil, false
	}
	for _, in := range inputs {
		if in.Hash == "" {
			continue
		}
		h, err := loader.HashFile(filepath.Join(plan.Root, filepath.FromSlash(in.Path)))
		if err != nil || h != in.Hash {
			b.logger.Debug("input changed", "path", in.Path)
			return nil, nil, false
		}
	}

	return &core.Artifact{
		Path:        relOut,
		Contents:    contents,
		Hash:        prev.ArtifactHash,
		Namespace:   b.opts.Namespace,
		Exports:     plan.Namespace.Names(),
		Units:       unitPaths(plan.Units),
		Inputs:      inputs,
		Warnings:    plan.Warnings,
		Fingerprint: fp,
		Skipped:     true,
	}, inputs, true
}

// finish completes the build record. History is best effort: store errors
// are logged, never returned.
func (b *Bundler) finish(record *core.Build, art *core.Artifact, inputs []core.ArtifactInput, buildErr error) {
	if b.store == nil || record == nil {
		return
	}

	now := time.Now()
	record.CompletedAt = &now
	switch {
	case buildErr != nil:
		record.Status = core.BuildStatusFailed
		record.Error = buildErr.Error()
	case art.Skipped:
		record.Status = core.BuildStatusSkipped
	default:
		record.Status = core.BuildStatusSuccess
	}
	if art != nil {
		record.Fingerprint = art.Fingerprint
		record.ArtifactHash = art.Hash
		record.UnitCount = len(art.Units)
		record.ExportCount = len(art.Exports)
		record.WarningCount = len(art.Warnings)
	}

	if err := b.store.CompleteBuild(record); err != nil {
		b.logger.Warn("failed to record build", "build_id", record.ID, "error", err)
		return
	}
	if record.Status == core.BuildStatusSuccess {
		if err := b.store.SaveBuildInputs(record.ID, inputs); err != nil {
			b.logger.Warn("failed to record build inputs", "build_id", record.ID, "error", err)
		}
	}
	if err := b.store.PruneBuilds(HistoryLimit); err != nil {
		b.logger.Warn("failed to prune build history", "error", err)
	}
}

func unitPaths(units []*core.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Path
	}
	return out
}

// IsResolutionError reports whether err contains a ResolutionError.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}
