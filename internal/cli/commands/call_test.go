package commands

import (
	"encoding/json"
	"strings"
	"testing"

	projtest "github.com/leapstack-labs/leappack/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall(t *testing.T) {
	root := projtest.SetupSampleProject(t)
	loadProject(t, root, nil)

	_, _, err := execute(t, NewBuildCommand())
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "top level export", args: []string{"inc", "1"}, want: "2"},
		{name: "nested export", args: []string{"Namespace.doSomething", "41"}, want: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewCallCommand(), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestCall_InMemoryBuild(t *testing.T) {
	root := projtest.SetupSampleProject(t)
	loadProject(t, root, map[string]string{"output": "json"})

	out, _, err := execute(t, NewCallCommand(), "--build", "inc", "9")
	require.NoError(t, err)

	var got CallResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "inc", got.Name)
	assert.InDelta(t, 10, got.Result, 0)
}

func TestCall_Errors(t *testing.T) {
	root := projtest.SetupSampleProject(t)
	loadProject(t, root, nil)

	t.Run("artifact missing", func(t *testing.T) {
		_, _, err := execute(t, NewCallCommand(), "inc", "1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--build")
	})

	t.Run("unknown export", func(t *testing.T) {
		_, _, err := execute(t, NewCallCommand(), "--build", "dec", "1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dec")
	})

	t.Run("invalid json argument", func(t *testing.T) {
		_, _, err := execute(t, NewCallCommand(), "--build", "inc", "{nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not valid JSON")
	})
}
