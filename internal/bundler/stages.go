package bundler

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leappack/internal/loader"
	"github.com/leapstack-labs/leappack/pkg/core"
)

const (
	entrySpecifier    = "leappack:entry"
	entryNamespace    = "leappack-entry"
	hostNamespace     = "leappack-host"
	resolvePluginName = "leappack-resolve"
)

// stageEnv is the per-build state shared by the stages.
type stageEnv struct {
	root        string
	entry       string
	hostModules map[string]string
	resolved    *resolutionLog
}

// A stage adjusts the esbuild options, usually by adding a plugin.
type stage func(env *stageEnv, opts *api.BuildOptions)

var stageRegistry = map[string]stage{
	core.StageMultiEntry: multiEntryStage,
	core.StageResolve:    resolveStage,
	core.StageCommonJS:   commonJSStage,
}

// applyStages configures opts for the named stages in order. A guard that
// rejects bare specifiers is always installed last, so without the resolve
// stage packages are never looked up.
func applyStages(names []string, env *stageEnv, opts *api.BuildOptions) error {
	for _, name := range names {
		s, ok := stageRegistry[name]
		if !ok {
			return fmt.Errorf("unknown plugin stage %q", name)
		}
		s(env, opts)
	}
	opts.Plugins = append(opts.Plugins, bareGuardPlugin(env))
	return nil
}

// multiEntryStage serves the generated merge entry.
func multiEntryStage(env *stageEnv, opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: "leappack-multi-entry",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^leappack:entry$`},
				func(api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: "entry.js", Namespace: entryNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: entryNamespace},
				func(api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := env.entry
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: env.root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	})
}

type resolveMarker struct{}

// resolveStage maps host modules to host globals and resolves remaining
// bare specifiers through esbuild, recording failures.
func resolveStage(env *stageEnv, opts *api.BuildOptions) {
	opts.Plugins = append(opts.Plugins, api.Plugin{
		Name: resolvePluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint || !isBare(args.Path) {
						return api.OnResolveResult{}, nil
					}
					if _, ok := args.PluginData.(resolveMarker); ok {
						return api.OnResolveResult{}, nil
					}
					if global, ok := env.hostModules[args.Path]; ok {
						return api.OnResolveResult{Path: args.Path, Namespace: hostNamespace, PluginData: global}, nil
					}

					res := build.Resolve(args.Path, api.ResolveOptions{
						Importer:   args.Importer,
						Namespace:  args.Namespace,
						ResolveDir: args.ResolveDir,
						Kind:       args.Kind,
						PluginData: resolveMarker{},
					})
					if len(res.Errors) > 0 {
						return env.resolved.fail(args), nil
					}
					return api.OnResolveResult{
						Path:        res.Path,
						Namespace:   res.Namespace,
						External:    res.External,
						Suffix:      res.Suffix,
						PluginData:  res.PluginData,
						SideEffects: sideEffects(res.SideEffects),
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: hostNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					global, _ := args.PluginData.(string)
					contents := fmt.Sprintf("module.exports = %s;\n", global)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	})
}

// commonJSStage enables CommonJS interop and makes late-bound requires fatal.
func commonJSStage(_ *stageEnv, opts *api.BuildOptions) {
	if opts.Loader == nil {
		opts.Loader = make(map[string]api.Loader)
	}
	opts.Loader[".cjs"] = api.LoaderJS
	opts.MainFields = []string{"module", "main"}
	if opts.LogOverride == nil {
		opts.LogOverride = make(map[string]api.LogLevel)
	}
	opts.LogOverride["unsupported-require-call"] = api.LogLevelError
	opts.LogOverride["unsupported-dynamic-import"] = api.LogLevelError
}

// bareGuardPlugin fails every bare specifier no earlier stage claimed.
func bareGuardPlugin(env *stageEnv) api.Plugin {
	return api.Plugin{
		Name: resolvePluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint || !isBare(args.Path) {
						return api.OnResolveResult{}, nil
					}
					if _, ok := args.PluginData.(resolveMarker); ok {
						return api.OnResolveResult{}, nil
					}
					return env.resolved.fail(args), nil
				})
		},
	}
}

func sideEffects(has bool) api.SideEffects {
	if has {
		return api.SideEffectsTrue
	}
	return api.SideEffectsFalse
}

// resolutionLog collects resolution failures. esbuild runs plugin
// callbacks concurrently.
type resolutionLog struct {
	root string

	mu     sync.Mutex
	seen   map[ResolutionError]bool
	errors []*ResolutionError
}

func newResolutionLog(root string) *resolutionLog {
	return &resolutionLog{root: root, seen: make(map[ResolutionError]bool)}
}

// fail records the failure and returns the esbuild error result for it.
func (l *resolutionLog) fail(args api.OnResolveArgs) api.OnResolveResult {
	importer := args.Importer
	switch {
	case args.Namespace == entryNamespace:
		importer = "<merge entry>"
	case filepath.IsAbs(importer):
		importer = loader.RelPath(l.root, importer)
	}
	re := ResolutionError{Specifier: args.Path, Importer: importer}

	l.mu.Lock()
	if !l.seen[re] {
		l.seen[re] = true
		l.errors = append(l.errors, &re)
	}
	l.mu.Unlock()

	return api.OnResolveResult{
		Errors: []api.Message{{PluginName: resolvePluginName, Text: re.Error()}},
	}
}

func (l *resolutionLog) all() []*ResolutionError {
	l.mu.Lock()
	out := append([]*ResolutionError(nil), l.errors...)
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Importer != out[j].Importer {
			return out[i].Importer < out[j].Importer
		}
		return out[i].Specifier < out[j].Specifier
	})
	return out
}
