package sprites

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhaumann/boardsync/internal/logging"
	"github.com/nhaumann/boardsync/internal/sync"
)

const artifactExt = ".bmp"

// Converter renders one animation into a single square spritesheet with all
// frames laid out in one row.
type Converter interface {
	Convert(src, dst string, size, frames int) error
}

// Prober reports frame counts for an animation. PreciseFrames decodes the
// stream, DeclaredFrames only reads the container header. Either may return 0
// for "unknown".
type Prober interface {
	PreciseFrames(path string) (int, error)
	DeclaredFrames(path string) (int, error)
}

type Pipeline struct {
	SourceDir string
	BuildDir  string
	TargetDir string
	Size      int

	Converter Converter
	Prober    Prober
	Syncer    *sync.Syncer
	Stamps    *StampStore

	// Preflight verifies the external toolchain before any conversion runs.
	// Nil skips the check (tests inject fakes).
	Preflight func() error
}

// RegenerateIfNeeded rebuilds the spritesheet set when the animation sources
// changed since the last successful run, then syncs the build directory into
// the target tree. The stamp advances only after the sync succeeded, so a
// failed run is retried in full on the next invocation.
func (p *Pipeline) RegenerateIfNeeded(force bool) (sync.Result, error) {
	var res sync.Result

	current, err := Fingerprint(p.SourceDir)
	if err != nil {
		return res, err
	}
	if current == "" {
		logging.Infof("No animations under '%s', skipping spritesheets", p.SourceDir)
		return res, nil
	}

	if !force && p.Stamps.Load() == current && p.targetHasArtifacts() {
		logging.Infof("Spritesheets are up to date (stamp %.12s)", current)
		return res, nil
	}

	if p.Preflight != nil {
		if err = p.Preflight(); err != nil {
			return res, err
		}
	}

	if err = p.regenerate(force); err != nil {
		return res, err
	}

	res, err = p.Syncer.Sync(p.BuildDir, p.TargetDir, force)
	if err != nil {
		return res, fmt.Errorf("could not sync spritesheets to '%s': %w", p.TargetDir, err)
	}

	if err = p.Stamps.Save(current); err != nil {
		return res, err
	}
	logging.Debugf("Advanced sprite stamp to %.12s", current)
	return res, nil
}

func (p *Pipeline) regenerate(force bool) error {
	if err := os.MkdirAll(p.BuildDir, 0755); err != nil {
		return fmt.Errorf("could not create sprite build directory '%s': %w", p.BuildDir, err)
	}

	sources, err := sync.ListFiles(p.SourceDir)
	if err != nil {
		return fmt.Errorf("could not enumerate animation directory '%s': %w", p.SourceDir, err)
	}

	wanted := make(map[string]struct{})
	for _, f := range sources {
		if !isAnimation(f.Path) {
			continue
		}
		name := artifactName(f.Path)
		wanted[name] = struct{}{}

		src := filepath.Join(p.SourceDir, filepath.FromSlash(f.Path))
		dst := filepath.Join(p.BuildDir, name)
		if !force && freshEnough(src, dst) {
			logging.Debugf("Spritesheet '%s' is newer than its source, skipping", name)
			continue
		}

		frames := p.frameCount(src)
		logging.Infof("Rendering '%s' (%d frames, %dx%d)", name, frames, p.Size, p.Size)
		if err = p.Converter.Convert(src, dst, p.Size, frames); err != nil {
			return fmt.Errorf("could not convert animation '%s': %w", src, err)
		}
	}

	return p.dropOrphans(wanted)
}

// dropOrphans removes build artifacts whose animation no longer exists, so the
// following tree sync deletes them from the target as well.
func (p *Pipeline) dropOrphans(wanted map[string]struct{}) error {
	entries, err := os.ReadDir(p.BuildDir)
	if err != nil {
		return fmt.Errorf("could not read sprite build directory '%s': %w", p.BuildDir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := wanted[e.Name()]; ok {
			continue
		}
		stale := filepath.Join(p.BuildDir, e.Name())
		logging.Debugf("Dropping orphaned spritesheet '%s'", stale)
		if err = os.Remove(stale); err != nil {
			return fmt.Errorf("could not remove orphaned spritesheet '%s': %w", stale, err)
		}
	}
	return nil
}

// frameCount resolves the number of frames for one animation: decoded count
// first, declared count second, one frame as the last resort.
func (p *Pipeline) frameCount(path string) int {
	if n, err := p.Prober.PreciseFrames(path); err == nil && n > 0 {
		return n
	}
	if n, err := p.Prober.DeclaredFrames(path); err == nil && n > 0 {
		return n
	}
	return 1
}

func (p *Pipeline) targetHasArtifacts() bool {
	entries, err := os.ReadDir(p.TargetDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), artifactExt) {
			return true
		}
	}
	return false
}

func freshEnough(src, dst string) bool {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return false
	}
	return dstInfo.ModTime().After(srcInfo.ModTime())
}

func artifactName(relPath string) string {
	base := filepath.Base(filepath.FromSlash(relPath))
	return strings.TrimSuffix(base, filepath.Ext(base)) + artifactExt
}
