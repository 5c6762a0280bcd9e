package bundler

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leappack/pkg/core"
)

// Options describes one bundle. Zero values fall back to the defaults below.
type Options struct {
	// Root is the project root; relative paths resolve against it.
	Root string
	// Input holds the unit glob patterns, in priority order.
	Input []string
	// Outfile is the artifact path.
	Outfile string
	// TreeShake drops code not reachable from an exported name.
	TreeShake bool
	// Banner is the leading comment. Text that is not already a comment is
	// wrapped in /* */.
	Banner string
	// Namespace names the object that receives the exports.
	Namespace string
	// GlobalParam names the wrapper's second parameter, bound to `this`.
	GlobalParam string
	// Target is the esbuild language target, e.g. "es2017".
	Target string
	Minify bool
	// StrictExports turns duplicate export names into an error.
	StrictExports bool
	// Stages is the ordered stage pipeline.
	Stages []string
	// HostModules maps bare specifiers to globals provided by the host.
	HostModules map[string]string
	// Aliases maps extra namespace names to "unit/path.js#local".
	Aliases map[string]string
}

// Defaults.
const (
	DefaultOutfile     = "build/Bundle.js"
	DefaultNamespace   = "Import"
	DefaultGlobalParam = "window"
	DefaultTarget      = "es2017"
)

// DefaultInput is the unit pattern used when none is configured.
var DefaultInput = []string{"src/modules/*.js"}

var (
	identRe      = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	globalPathRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)
)

var targets = map[string]api.Target{
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"esnext": api.ESNext,
}

// reserved words that cannot name the namespace or the global parameter.
var reserved = map[string]bool{
	"break": true, "case": true, "catch": true, "class": true, "const": true,
	"continue": true, "debugger": true, "default": true, "delete": true,
	"do": true, "else": true, "export": true, "extends": true, "false": true,
	"finally": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "let": true, "static": true, "yield": true, "await": true,
	"enum": true,
}

// withDefaults returns a copy with empty fields filled in.
func (o Options) withDefaults() Options {
	if o.Root == "" {
		o.Root = "."
	}
	if len(o.Input) == 0 {
		o.Input = slices.Clone(DefaultInput)
	}
	if o.Outfile == "" {
		o.Outfile = DefaultOutfile
	}
	if o.Namespace == "" {
		o.Namespace = DefaultNamespace
	}
	if o.GlobalParam == "" {
		o.GlobalParam = DefaultGlobalParam
	}
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	if len(o.Stages) == 0 {
		o.Stages = slices.Clone(core.DefaultStages)
	}
	if o.Banner == "" {
		o.Banner = fmt.Sprintf("Bundle as defined from all files in %s", strings.Join(o.Input, ", "))
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	if !identRe.MatchString(o.Namespace) || reserved[o.Namespace] {
		return fmt.Errorf("namespace %q is not a valid identifier", o.Namespace)
	}
	if !identRe.MatchString(o.GlobalParam) || reserved[o.GlobalParam] {
		return fmt.Errorf("global_param %q is not a valid identifier", o.GlobalParam)
	}
	if o.GlobalParam == "exports" || o.GlobalParam == o.Namespace {
		return fmt.Errorf("global_param %q collides with the wrapper bindings", o.GlobalParam)
	}
	if _, ok := targets[strings.ToLower(o.Target)]; !ok {
		return fmt.Errorf("unknown target %q", o.Target)
	}

	seen := make(map[string]bool)
	for _, s := range o.Stages {
		if _, ok := stageRegistry[s]; !ok {
			return fmt.Errorf("unknown plugin stage %q", s)
		}
		if seen[s] {
			return fmt.Errorf("plugin stage %q listed twice", s)
		}
		seen[s] = true
	}
	if !seen[core.StageMultiEntry] {
		return fmt.Errorf("plugin stage %q is required", core.StageMultiEntry)
	}

	for spec, global := range o.HostModules {
		if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
			return fmt.Errorf("host module %q must be a bare specifier", spec)
		}
		if !globalPathRe.MatchString(global) {
			return fmt.Errorf("host module %q: %q is not a global reference", spec, global)
		}
	}

	for name, target := range o.Aliases {
		if name == "" {
			return fmt.Errorf("alias with empty name")
		}
		if _, err := ParseRef(target); err != nil {
			return fmt.Errorf("alias %q: %w", name, err)
		}
	}
	return nil
}

// ParseRef parses "unit/path.js#local".
func ParseRef(s string) (core.ExportRef, error) {
	unit, local, ok := strings.Cut(s, "#")
	if !ok || unit == "" || local == "" {
		return core.ExportRef{}, fmt.Errorf("%q is not of the form unit/path.js#export", s)
	}
	return core.ExportRef{Unit: path.Clean(strings.TrimPrefix(unit, "./")), Local: local}, nil
}

// bannerComment renders the banner as a comment.
func bannerComment(banner string) string {
	b := strings.TrimSpace(banner)
	if strings.HasPrefix(b, "/*") || strings.HasPrefix(b, "//") {
		return b
	}
	return "/* " + strings.ReplaceAll(b, "*/", "* /") + " */"
}
