// Package sandbox loads a bundle artifact into an embedded JavaScript
// runtime and calls its exports, standing in for the scripting host.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// ErrNotFound is returned when a name is missing from the namespace.
var ErrNotFound = errors.New("export not found")

// ErrNotCallable is returned when Call targets a value that is not a function.
var ErrNotCallable = errors.New("export is not callable")

// Options configures a sandbox.
type Options struct {
	// Namespace is the artifact's namespace object. Defaults to "Import".
	Namespace string
	// AmbientExports defines a global `exports` object before the artifact
	// runs, like hosts that provide CommonJS bindings.
	AmbientExports bool
	// Timeout bounds loading and each call. Zero means no limit beyond ctx.
	Timeout time.Duration
	// Logger receives console output (optional, uses discard if nil).
	Logger *slog.Logger
}

// Sandbox is one loaded artifact. It is not safe for concurrent use.
type Sandbox struct {
	vm        *goja.Runtime
	namespace *goja.Object
	ambient   *goja.Object
	timeout   time.Duration
	logger    *slog.Logger
}

// LoadFile reads and loads the artifact at path.
func LoadFile(ctx context.Context, path string, opts Options) (*Sandbox, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path is the configured artifact
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return Load(ctx, path, src, opts)
}

// Load runs the artifact source once and captures its namespace object.
func Load(ctx context.Context, name string, src []byte, opts Options) (*Sandbox, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "Import"
	}

	prog, err := goja.Compile(name, string(src), false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile artifact: %w", err)
	}

	s := &Sandbox{vm: goja.New(), timeout: opts.Timeout, logger: logger}
	s.installConsole()
	if opts.AmbientExports {
		s.ambient = s.vm.NewObject()
		if err := s.vm.Set("exports", s.ambient); err != nil {
			return nil, err
		}
	}

	err = s.guard(ctx, func() error {
		_, err := s.vm.RunProgram(prog)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load artifact: %w", err)
	}

	// The namespace is a top-level const, which lives in the global lexical
	// scope rather than on the global object.
	v, err := s.vm.RunString(ns)
	if err != nil {
		return nil, fmt.Errorf("artifact does not define %s: %w", ns, err)
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("%s is not an object", ns)
	}
	s.namespace = obj

	logger.Debug("loaded artifact", "name", name, "exports", len(obj.Keys()))
	return s, nil
}

// Names returns the namespace's own property names.
func (s *Sandbox) Names() []string {
	return s.namespace.Keys()
}

// Has reports whether the namespace defines name.
func (s *Sandbox) Has(name string) bool {
	v := s.namespace.Get(name)
	return v != nil && !goja.IsUndefined(v)
}

// Get resolves a dotted path such as "Namespace.doSomething" against the
// namespace and exports the value to Go.
func (s *Sandbox) Get(path string) (any, error) {
	_, v, err := s.lookup(s.namespace, path)
	if err != nil {
		return nil, err
	}
	return v.Export(), nil
}

// Call invokes the function at path with Go arguments and returns the
// exported result. The function's receiver is its containing object.
func (s *Sandbox) Call(ctx context.Context, path string, args ...any) (any, error) {
	this, v, err := s.lookup(s.namespace, path)
	if err != nil {
		return nil, err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotCallable, path)
	}

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = s.vm.ToValue(a)
	}

	var result goja.Value
	err = s.guard(ctx, func() error {
		var callErr error
		result, callErr = fn(this, jsArgs...)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("call %s failed: %w", path, err)
	}
	return result.Export(), nil
}

// CallJSON is Call with JSON-encoded arguments.
func (s *Sandbox) CallJSON(ctx context.Context, path string, rawArgs []string) (any, error) {
	args := make([]any, len(rawArgs))
	for i, raw := range rawArgs {
		if err := json.Unmarshal([]byte(raw), &args[i]); err != nil {
			return nil, fmt.Errorf("argument %d is not valid JSON: %w", i+1, err)
		}
	}
	return s.Call(ctx, path, args...)
}

// Ambient returns the ambient exports object's value at name, if the
// sandbox was created with AmbientExports.
func (s *Sandbox) Ambient(name string) (*goja.Object, bool) {
	if s.ambient == nil {
		return nil, false
	}
	obj, ok := s.ambient.Get(name).(*goja.Object)
	return obj, ok
}

// SameObject reports whether the ambient exports binding holds exactly the
// namespace object.
func (s *Sandbox) SameObject(name string) bool {
	obj, ok := s.Ambient(name)
	return ok && obj.SameAs(s.namespace)
}

func (s *Sandbox) lookup(root *goja.Object, path string) (goja.Value, goja.Value, error) {
	var this goja.Value = root
	cur := root
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v := cur.Get(part)
		if v == nil || goja.IsUndefined(v) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return this, v, nil
		}
		obj, ok := v.(*goja.Object)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		this, cur = obj, obj
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
}

// guard runs fn, interrupting the runtime when ctx ends or the timeout
// passes.
func (s *Sandbox) guard(ctx context.Context, fn func() error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() {
		s.vm.Interrupt(ctx.Err())
	})
	defer func() {
		stop()
		s.vm.ClearInterrupt()
	}()

	err := fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
	}
	return err
}

func (s *Sandbox) installConsole() {
	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			s.logger.Log(context.Background(), level, strings.Join(parts, " "), "source", "console")
			return goja.Undefined()
		}
	}

	console := s.vm.NewObject()
	_ = console.Set("log", logAt(slog.LevelInfo))
	_ = console.Set("info", logAt(slog.LevelInfo))
	_ = console.Set("warn", logAt(slog.LevelWarn))
	_ = console.Set("error", logAt(slog.LevelError))
	_ = s.vm.Set("console", console)
}
