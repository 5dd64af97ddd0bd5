package adapter

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchConfiguredViewer(t *testing.T) {
	l := NewLauncher("feh", []string{"--scale-down"}, NullLogger())

	var started *exec.Cmd
	l.start = func(cmd *exec.Cmd) error {
		started = cmd
		return nil
	}

	require.NoError(t, l.Launch("https://images.unsplash.com/photo-1?w=1080"))
	require.NotNil(t, started)
	assert.Equal(t, []string{"feh", "--scale-down", "https://images.unsplash.com/photo-1?w=1080"}, started.Args)
}

func TestLaunchConfiguredViewerDoesNotMutateArgs(t *testing.T) {
	args := make([]string, 1, 4)
	args[0] = "--flag"
	l := NewLauncher("viewer", args, NullLogger())
	l.start = func(cmd *exec.Cmd) error { return nil }

	require.NoError(t, l.Launch("a"))
	require.NoError(t, l.Launch("b"))
	assert.Equal(t, []string{"--flag"}, l.args)
}

func TestLaunchEmptyURL(t *testing.T) {
	l := NewLauncher("feh", nil, NullLogger())
	assert.Error(t, l.Launch(""))
}

func TestLaunchPropagatesStartError(t *testing.T) {
	l := NewLauncher("feh", nil, NullLogger())
	l.start = func(cmd *exec.Cmd) error { return errors.New("boom") }

	assert.EqualError(t, l.Launch("https://x"), "boom")
}

func TestLaunchSystemDefault(t *testing.T) {
	const url = "https://images.unsplash.com/photo-1?ixid=abc&fm=jpg&w=1080"

	tests := []struct {
		goos    string
		missing map[string]bool
		want    []string
	}{
		{goos: "windows", want: []string{"rundll32", "url.dll,FileProtocolHandler", url}},
		{goos: "darwin", want: []string{"open", url}},
		{goos: "linux", want: []string{"xdg-open", url}},
		{goos: "linux", missing: map[string]bool{"xdg-open": true}, want: []string{"gio", "open", url}},
		{goos: "plan9", want: []string{"xdg-open", url}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			l := NewLauncher("", nil, NullLogger())
			l.goos = tt.goos
			l.lookPath = func(file string) (string, error) {
				if tt.missing[file] {
					return "", exec.ErrNotFound
				}
				return "/usr/bin/" + file, nil
			}
			var started *exec.Cmd
			l.start = func(cmd *exec.Cmd) error {
				started = cmd
				return nil
			}

			require.NoError(t, l.Launch(url))
			require.NotNil(t, started)
			assert.Equal(t, tt.want, started.Args)
		})
	}
}

func TestLaunchSystemDefaultNoneAvailable(t *testing.T) {
	l := NewLauncher("", nil, NullLogger())
	l.goos = "linux"
	l.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	l.start = func(*exec.Cmd) error {
		t.Fatal("nothing should start")
		return nil
	}

	err := l.Launch("https://x")
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.ErrorContains(t, err, "no system opener found")
}
