package bundler

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leappack/pkg/core"
)

// analyze fills in Exports and Imports of every unit from an esbuild
// metafile pass. Each unit is its own entry point and bare specifiers stay
// external, so only relative imports must resolve here. The returned
// strings are esbuild warnings.
func analyze(root string, units []*core.Unit) ([]string, error) {
	entries := make([]api.EntryPoint, len(units))
	for i, u := range units {
		entries[i] = api.EntryPoint{
			InputPath:  u.AbsPath,
			OutputPath: fmt.Sprintf("unit%d", i),
		}
	}

	result := api.Build(api.BuildOptions{
		EntryPointsAdvanced: entries,
		AbsWorkingDir:       root,
		Bundle:              true,
		Write:               false,
		Outdir:              filepath.Join(root, ".leappack", "analyze"),
		Format:              api.FormatESModule,
		Platform:            api.PlatformNeutral,
		Metafile:            true,
		LogLevel:            api.LogLevelSilent,
		LogOverride:         map[string]api.LogLevel{"commonjs-variable-in-esm": api.LogLevelSilent},
		Plugins:             []api.Plugin{externalBarePlugin()},
	})
	if len(result.Errors) > 0 {
		resolution, diags := classify(result.Errors)
		return nil, failure(resolution, diags)
	}

	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]*core.Unit, len(units))
	for _, u := range units {
		byPath[u.Path] = u
	}

	for _, out := range meta.Outputs {
		u, ok := byPath[filepath.ToSlash(out.EntryPoint)]
		if !ok {
			continue
		}
		u.Exports = u.Exports[:0]
		for _, name := range out.Exports {
			if name == "default" {
				continue
			}
			u.Exports = append(u.Exports, name)
		}
	}

	for path, in := range meta.Inputs {
		u, ok := byPath[filepath.ToSlash(path)]
		if !ok {
			continue
		}
		u.Imports = u.Imports[:0]
		for _, imp := range in.Imports {
			u.Imports = append(u.Imports, filepath.ToSlash(imp.Path))
		}
	}

	return messages(result.Warnings), nil
}

// externalBarePlugin leaves bare specifiers unresolved during analysis.
func externalBarePlugin() api.Plugin {
	return api.Plugin{
		Name: "leappack-analyze",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `^[^./]`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
		},
	}
}

func messages(msgs []api.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = diagnosticFrom(m).String()
	}
	return out
}

// failure combines resolution errors and other diagnostics into one error.
func failure(resolution []*ResolutionError, diags []Diagnostic) error {
	var errs []error
	for _, r := range resolution {
		errs = append(errs, r)
	}
	if len(diags) > 0 {
		errs = append(errs, &BuildError{Diagnostics: diags})
	}
	switch len(errs) {
	case 0:
		return errors.New("esbuild failed without diagnostics")
	case 1:
		return errs[0]
	default:
		return errors.Join(errs...)
	}
}

// isBare reports whether spec is a package-style specifier.
func isBare(spec string) bool {
	return spec != "" && !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") && !filepath.IsAbs(spec)
}
