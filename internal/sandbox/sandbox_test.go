package sandbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leappack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// artifact has the same shape the bundler emits.
const artifact = `/* test bundle */
const Import = Object.create(null);
(function (exports, window) {
var inc = (x) => x + 1;
var Namespace = { doSomething: inc };
var counter = 0;
function bump() { counter++; return counter; }
function spin() { for (;;) {} }
exports.inc = inc;
exports.Namespace = Namespace;
exports.bump = bump;
exports.spin = spin;
exports.answer = 42;
exports.hasGlobal = typeof window === "object";
})(Import, this);
if (typeof exports === "object" && exports !== null) { exports.Import = Import; }
`

func load(t *testing.T, opts Options) *Sandbox {
	t.Helper()
	opts.Logger = testutil.NewTestLogger(t)
	s, err := Load(context.Background(), "Bundle.js", []byte(artifact), opts)
	require.NoError(t, err)
	return s
}

func TestCall(t *testing.T) {
	s := load(t, Options{})

	got, err := s.Call(context.Background(), "inc", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 11, got)

	got, err = s.Call(context.Background(), "Namespace.doSomething", 10)
	require.NoError(t, err)
	assert.EqualValues(t, 11, got)
}

func TestCallJSON(t *testing.T) {
	s := load(t, Options{})

	got, err := s.CallJSON(context.Background(), "inc", []string{"41"})
	require.NoError(t, err)
	assert.EqualValues(t, 42, got)

	_, err = s.CallJSON(context.Background(), "inc", []string{"{not json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "argument 1 is not valid JSON")
}

func TestCall_Errors(t *testing.T) {
	s := load(t, Options{})

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing export", "missing", ErrNotFound},
		{"missing member", "Namespace.missing", ErrNotFound},
		{"through a primitive", "answer.x", ErrNotFound},
		{"not a function", "answer", ErrNotCallable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Call(context.Background(), tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoadRunsOnce(t *testing.T) {
	s := load(t, Options{})

	for want := 1; want <= 3; want++ {
		got, err := s.Call(context.Background(), "bump")
		require.NoError(t, err)
		assert.EqualValues(t, want, got)
	}
}

func TestNamesAndGet(t *testing.T) {
	s := load(t, Options{})

	assert.ElementsMatch(t,
		[]string{"inc", "Namespace", "bump", "spin", "answer", "hasGlobal"},
		s.Names())
	assert.True(t, s.Has("inc"))
	assert.False(t, s.Has("nope"))

	v, err := s.Get("answer")
	require.NoError(t, err)
	assert.EqualValues(t, 42, v)

	v, err = s.Get("hasGlobal")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestShimWithoutAmbientExports(t *testing.T) {
	s := load(t, Options{})

	_, ok := s.Ambient("Import")
	assert.False(t, ok)
	assert.Len(t, s.Names(), 6)
}

func TestShimWithAmbientExports(t *testing.T) {
	s := load(t, Options{AmbientExports: true})

	assert.True(t, s.SameObject("Import"))
	assert.Len(t, s.Names(), 6)

	got, err := s.Call(context.Background(), "inc", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestTimeoutInterruptsCall(t *testing.T) {
	s := load(t, Options{Timeout: 50 * time.Millisecond})

	_, err := s.Call(context.Background(), "spin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	// The runtime stays usable after an interrupt.
	got, err := s.Call(context.Background(), "inc", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		opts    Options
		wantErr string
	}{
		{"syntax error", "const = ;", Options{}, "failed to compile artifact"},
		{"throws while loading", "throw new Error('boom');", Options{}, "failed to load artifact"},
		{"no namespace", "var x = 1;", Options{}, "artifact does not define Import"},
		{"namespace not an object", "const Import = 3;", Options{}, "Import is not an object"},
		{"custom namespace missing", artifact, Options{Namespace: "Lib"}, "artifact does not define Lib"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), "x.js", []byte(tt.src), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bundle.js")
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o600))

	s, err := LoadFile(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.True(t, s.Has("Namespace"))

	_, err = LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.js"), Options{})
	assert.Error(t, err)
}
