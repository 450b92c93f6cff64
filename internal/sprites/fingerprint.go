package sprites

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/nhaumann/boardsync/internal/sync"
)

const animationExt = ".gif"

// Fingerprint digests the animation set below sourceDir: the sorted sequence
// of (relative path, size, mtime in whole seconds) per matching file. It is a
// change proxy, not a content hash — an edit that keeps size and second-level
// mtime goes unnoticed here and is caught by the per-file freshness check on
// the next run. Returns "" when the directory is missing or holds no
// animations.
func Fingerprint(sourceDir string) (string, error) {
	files, err := sync.ListFiles(sourceDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("could not enumerate animation directory '%s': %w", sourceDir, err)
	}

	h := sha256.New()
	matched := false
	for _, f := range files {
		if !isAnimation(f.Path) {
			continue
		}
		matched = true
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", f.Path, f.Size, f.ModTime.Unix())
	}
	if !matched {
		return "", nil
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func isAnimation(path string) bool {
	return strings.EqualFold(filepath.Ext(path), animationExt)
}
