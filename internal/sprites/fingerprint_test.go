package sprites

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		do   func(*testing.T)
	}{
		{
			name: "missing directory yields empty fingerprint",
			do: func(t *testing.T) {
				fp, err := Fingerprint(filepath.Join(t.TempDir(), "missing"))
				require.NoError(t, err)
				require.Empty(t, fp)
			},
		},
		{
			name: "directory without animations yields empty fingerprint",
			do: func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, "notes.txt", "not an animation")
				fp, err := Fingerprint(dir)
				require.NoError(t, err)
				require.Empty(t, fp)
			},
		},
		{
			name: "stable across runs on unchanged tree",
			do: func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, "pulse.gif", "frames")
				writeFile(t, dir, "wave.GIF", "more frames")

				first, err := Fingerprint(dir)
				require.NoError(t, err)
				second, err := Fingerprint(dir)
				require.NoError(t, err)
				require.Equal(t, first, second)
				require.NotEmpty(t, first)
			},
		},
		{
			name: "adding an animation changes the fingerprint",
			do: func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, "pulse.gif", "frames")
				before, err := Fingerprint(dir)
				require.NoError(t, err)

				writeFile(t, dir, "new.gif", "fresh")
				after, err := Fingerprint(dir)
				require.NoError(t, err)
				require.NotEqual(t, before, after)
			},
		},
		{
			name: "renaming an animation changes the fingerprint",
			do: func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, "pulse.gif", "frames")
				before, err := Fingerprint(dir)
				require.NoError(t, err)

				require.NoError(t, os.Rename(filepath.Join(dir, "pulse.gif"), filepath.Join(dir, "beat.gif")))
				after, err := Fingerprint(dir)
				require.NoError(t, err)
				require.NotEqual(t, before, after)
			},
		},
		{
			name: "touching the modification time changes the fingerprint",
			do: func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, "pulse.gif", "frames")
				before, err := Fingerprint(dir)
				require.NoError(t, err)

				later := time.Now().Add(5 * time.Second)
				require.NoError(t, os.Chtimes(filepath.Join(dir, "pulse.gif"), later, later))
				after, err := Fingerprint(dir)
				require.NoError(t, err)
				require.NotEqual(t, before, after)
			},
		},
		{
			name: "non-animation files do not contribute",
			do: func(t *testing.T) {
				dir := t.TempDir()
				writeFile(t, dir, "pulse.gif", "frames")
				before, err := Fingerprint(dir)
				require.NoError(t, err)

				writeFile(t, dir, "README.md", "docs")
				after, err := Fingerprint(dir)
				require.NoError(t, err)
				require.Equal(t, before, after)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.do(t)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
