package sync

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/nhaumann/boardsync/internal/logging"
)

// FileRecord is one file below a synced root, identified by its slash-separated
// relative path. Records are recomputed on every pass and never persisted.
type FileRecord struct {
	Path    string
	Size    int64
	ModTime time.Time
}

type CopyOp struct {
	Source string
	Target string
	Rel    string
	Size   int64
}

// Plan is the diff between a source and a target tree: files to copy and stale
// target files to delete. A file identical on both sides appears in neither.
type Plan struct {
	Copies     []CopyOp
	Deletes    []string
	TotalBytes int64
}

type Progress struct {
	FilesDone  int
	FilesTotal int
	BytesDone  int64
	BytesTotal int64
	Elapsed    time.Duration
}

type Result struct {
	Copied   int
	Deleted  int
	Bytes    int64
	UpToDate bool
}

// Add folds another sync's counters into this one.
func (r *Result) Add(other Result) {
	r.Copied += other.Copied
	r.Deleted += other.Deleted
	r.Bytes += other.Bytes
}

type Syncer struct {
	Comparer   Comparer
	OnProgress func(Progress)
}

// Sync mirrors sourceDir into targetDir: stale target files go first, then
// every new or changed source file is copied. Enumeration is sorted by relative
// path so the copy order and progress sequence are reproducible.
func (s *Syncer) Sync(sourceDir, targetDir string, force bool) (Result, error) {
	var res Result

	sourceFiles, err := ListFiles(sourceDir)
	if err != nil {
		return res, fmt.Errorf("could not enumerate source directory '%s': %w", sourceDir, err)
	}

	plan, err := s.buildPlan(sourceDir, targetDir, sourceFiles, force)
	if err != nil {
		return res, err
	}

	for _, stale := range plan.Deletes {
		logging.Debugf("Deleting stale file '%s'", stale)
		if err = os.Remove(stale); err != nil {
			return res, fmt.Errorf("could not delete stale file '%s': %w", stale, err)
		}
		res.Deleted++
	}
	if res.Deleted > 0 {
		if err = pruneEmptyDirs(targetDir); err != nil {
			return res, err
		}
	}

	if len(plan.Copies) == 0 {
		res.UpToDate = res.Deleted == 0
		if res.UpToDate {
			logging.Infof("'%s' is up to date", targetDir)
		}
		return res, nil
	}

	start := time.Now()
	for _, op := range plan.Copies {
		if err = CopyFile(op.Source, op.Target); err != nil {
			return res, err
		}
		res.Copied++
		res.Bytes += op.Size
		s.report(Progress{
			FilesDone:  res.Copied,
			FilesTotal: len(plan.Copies),
			BytesDone:  res.Bytes,
			BytesTotal: plan.TotalBytes,
			Elapsed:    time.Since(start),
		}, op.Rel)
	}
	return res, nil
}

func (s *Syncer) buildPlan(sourceDir, targetDir string, sourceFiles []FileRecord, force bool) (Plan, error) {
	var plan Plan

	targetFiles, err := ListFiles(targetDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		targetFiles = nil
	case err != nil:
		return plan, fmt.Errorf("could not enumerate target directory '%s': %w", targetDir, err)
	}

	known := make(map[string]struct{}, len(sourceFiles))
	for _, f := range sourceFiles {
		known[f.Path] = struct{}{}
	}
	for _, f := range targetFiles {
		if _, ok := known[f.Path]; !ok {
			plan.Deletes = append(plan.Deletes, filepath.Join(targetDir, filepath.FromSlash(f.Path)))
		}
	}

	for _, f := range sourceFiles {
		src := filepath.Join(sourceDir, filepath.FromSlash(f.Path))
		dst := filepath.Join(targetDir, filepath.FromSlash(f.Path))
		needed, err := s.Comparer.NeedsCopy(src, dst, force)
		if err != nil {
			return plan, err
		}
		if needed {
			plan.Copies = append(plan.Copies, CopyOp{Source: src, Target: dst, Rel: f.Path, Size: f.Size})
			plan.TotalBytes += f.Size
		}
	}
	return plan, nil
}

func (s *Syncer) report(p Progress, rel string) {
	if s.OnProgress != nil {
		s.OnProgress(p)
		return
	}
	logging.Infof("Copied %s (%d/%d files, %s/%s, %.1fs)",
		rel,
		p.FilesDone, p.FilesTotal,
		humanize.Bytes(uint64(p.BytesDone)), humanize.Bytes(uint64(p.BytesTotal)),
		p.Elapsed.Seconds(),
	)
}

// ListFiles returns every regular file below root, sorted by relative path.
func ListFiles(root string) ([]FileRecord, error) {
	var files []FileRecord
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, FileRecord{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// pruneEmptyDirs removes directories left empty below root, deepest first.
// The root itself is never removed.
func pruneEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not scan '%s' for empty directories: %w", root, err)
	}
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("could not read directory '%s': %w", dir, err)
		}
		if len(entries) == 0 {
			logging.Debugf("Pruning empty directory '%s'", dir)
			if err = os.Remove(dir); err != nil {
				return fmt.Errorf("could not remove empty directory '%s': %w", dir, err)
			}
		}
	}
	return nil
}

// CopyFile writes source over target, creating parent directories on demand.
func CopyFile(source, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("could not create directory for '%s': %w", target, err)
	}
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("could not open source file '%s': %w", source, err)
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open target file '%s': %w", target, err)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("could not copy '%s' to '%s': %w", source, target, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("could not close target file '%s': %w", target, err)
	}
	return nil
}
