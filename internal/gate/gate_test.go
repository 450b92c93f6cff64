package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current State
		probe   State
		want    State
	}{
		{name: "unknown takes probe result", current: Unknown, probe: NotFound, want: NotFound},
		{name: "not found retries into read-only", current: NotFound, probe: ReadOnly, want: ReadOnly},
		{name: "read-only can become writable", current: ReadOnly, probe: Writable, want: Writable},
		{name: "writable is terminal", current: Writable, probe: NotFound, want: Writable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Next(tt.current, tt.probe))
		})
	}
}

func TestWait(t *testing.T) {
	tests := []struct {
		name string
		do   func(*testing.T)
	}{
		{
			name: "writable on first probe proceeds without prompting",
			do: func(t *testing.T) {
				prompts := 0
				g := &Gate{
					Attempts: 5,
					Probe:    func(string) State { return Writable },
					Prompt:   func(string) { prompts++ },
					Unmount:  func(string) {},
				}
				require.NoError(t, g.Wait("/target"))
				require.Zero(t, prompts)
			},
		},
		{
			name: "missing mount twice then writable",
			do: func(t *testing.T) {
				probes := []State{NotFound, NotFound, Writable}
				prompts := 0
				g := &Gate{
					Attempts: 5,
					Probe: func(string) State {
						next := probes[0]
						probes = probes[1:]
						return next
					},
					Prompt:  func(string) { prompts++ },
					Unmount: func(string) {},
				}
				require.NoError(t, g.Wait("/target"))
				require.Equal(t, 2, prompts)
			},
		},
		{
			name: "read-only for all attempts exhausts the budget",
			do: func(t *testing.T) {
				unmounts := 0
				g := &Gate{
					Attempts: 5,
					Probe:    func(string) State { return ReadOnly },
					Prompt:   func(string) {},
					Unmount:  func(string) { unmounts++ },
				}
				err := g.Wait("/target")
				require.Error(t, err)
				require.Contains(t, err.Error(), "5 attempts")
				require.Equal(t, 5, unmounts)
			},
		},
		{
			name: "unmount is only advised for read-only mounts",
			do: func(t *testing.T) {
				probes := []State{NotFound, Writable}
				unmounts := 0
				g := &Gate{
					Attempts: 5,
					Probe: func(string) State {
						next := probes[0]
						probes = probes[1:]
						return next
					},
					Prompt:  func(string) {},
					Unmount: func(string) { unmounts++ },
				}
				require.NoError(t, g.Wait("/target"))
				require.Zero(t, unmounts)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.do(t)
		})
	}
}

func TestProbeTarget(t *testing.T) {
	t.Run("missing path is not found", func(t *testing.T) {
		require.Equal(t, NotFound, ProbeTarget(filepath.Join(t.TempDir(), "missing")))
	})

	t.Run("file instead of directory is not found", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.Equal(t, NotFound, ProbeTarget(path))
	})

	t.Run("writable directory probes writable", func(t *testing.T) {
		dir := t.TempDir()
		require.Equal(t, Writable, ProbeTarget(dir))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Empty(t, entries, "probe file must be cleaned up")
	})
}
