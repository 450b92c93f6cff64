package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nhaumann/boardsync/internal/db"
	"github.com/nhaumann/boardsync/internal/deviceconfig"
	"github.com/nhaumann/boardsync/internal/logging"
	"github.com/nhaumann/boardsync/internal/netutil"
	"github.com/nhaumann/boardsync/internal/sync"
)

type DeployOptions struct {
	Force    bool
	SkipAuth bool
}

// Deploy stages the whole source tree onto the board: readiness gate, proxy
// rewrite, credential refresh, per-group tree sync, spritesheet pipeline, and
// the bootstrap files last. Every run is recorded in the journal.
func (s *Service) Deploy(ctx context.Context, opts DeployOptions) error {
	started := time.Now()
	var totals sync.Result

	err := s.deploy(ctx, opts, &totals)

	status := "ok"
	if err != nil {
		status = "failed"
	}
	s.record(ctx, db.Deployment{
		StartedAt:    started,
		FinishedAt:   time.Now(),
		FilesCopied:  totals.Copied,
		FilesDeleted: totals.Deleted,
		BytesCopied:  totals.Bytes,
		SpriteStamp:  s.pipeline.Stamps.Load(),
		Status:       status,
	})
	return err
}

func (s *Service) deploy(ctx context.Context, opts DeployOptions, totals *sync.Result) error {
	if _, err := os.Stat(s.cfg.SourceDir); err != nil {
		return fmt.Errorf("could not find source tree '%s': %w", s.cfg.SourceDir, err)
	}

	if err := s.gate.Wait(s.cfg.TargetDir); err != nil {
		return err
	}

	s.rewriteProxyURL()

	if !opts.SkipAuth {
		if err := s.RefreshAuth(ctx); err != nil {
			return err
		}
	}

	for _, group := range s.cfg.Groups {
		src := filepath.Join(s.cfg.SourceDir, group.Name)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			if group.Optional {
				logging.Infof("Skipping optional group '%s', no source directory", group.Name)
				continue
			}
			return fmt.Errorf("required group '%s' has no source directory '%s'", group.Name, src)
		}
		logging.Infof("Syncing group '%s'", group.Name)
		res, err := s.syncer.Sync(src, filepath.Join(s.cfg.TargetDir, group.Name), opts.Force)
		if err != nil {
			return fmt.Errorf("could not sync group '%s': %w", group.Name, err)
		}
		totals.Add(res)
	}

	res, err := s.pipeline.RegenerateIfNeeded(opts.Force)
	if err != nil {
		return err
	}
	totals.Add(res)

	if err = s.copyBootstrap(opts.Force, totals); err != nil {
		return err
	}

	logging.Infof("Deploy complete: %d files copied, %d deleted", totals.Copied, totals.Deleted)
	return nil
}

// copyBootstrap ships the root files last, config.json at the very end so the
// board never boots against fresher code than config.
func (s *Service) copyBootstrap(force bool, totals *sync.Result) error {
	for _, name := range s.cfg.Bootstrap {
		src := filepath.Join(s.cfg.SourceDir, name)
		dst := filepath.Join(s.cfg.TargetDir, name)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			if name == "config.json" {
				return fmt.Errorf("device config '%s' does not exist", src)
			}
			logging.Debugf("Skipping bootstrap file '%s', not present", name)
			continue
		}
		needed, err := s.syncer.Comparer.NeedsCopy(src, dst, force)
		if err != nil {
			return err
		}
		if !needed {
			continue
		}
		logging.Infof("Copying bootstrap file '%s'", name)
		if err = sync.CopyFile(src, dst); err != nil {
			return err
		}
		totals.Copied++
	}
	return nil
}

// RefreshAuth runs the credential refresh against the device config: fails on
// placeholder credentials, writes the new refresh token back on success.
func (s *Service) RefreshAuth(ctx context.Context) error {
	doc, err := deviceconfig.Load(s.cfg.DeviceConfigPath())
	if err != nil {
		return err
	}
	clientID, clientSecret, err := doc.Credentials()
	if err != nil {
		return err
	}
	refreshToken, err := s.auth.Refresh(ctx, clientID, clientSecret)
	if err != nil {
		return fmt.Errorf("could not refresh spotify credentials: %w", err)
	}
	doc.Set(deviceconfig.KeyRefreshToken, refreshToken)
	return doc.Save()
}

// Sprites runs only the readiness gate and the spritesheet pipeline.
func (s *Service) Sprites(force bool) error {
	if err := s.gate.Wait(s.cfg.TargetDir); err != nil {
		return err
	}
	_, err := s.pipeline.RegenerateIfNeeded(force)
	return err
}

// rewriteProxyURL points a loopback image proxy URL at the LAN address of this
// host so the board can reach it. Advisory: any failure logs and moves on.
func (s *Service) rewriteProxyURL() {
	doc, err := deviceconfig.Load(s.cfg.DeviceConfigPath())
	if err != nil {
		logging.Debugf("Skipping proxy rewrite: %s", err)
		return
	}
	changed, err := doc.RewriteProxyHost(netutil.LANAddress)
	if err != nil {
		logging.Infof("Skipping proxy rewrite: %s", err)
		return
	}
	if !changed {
		return
	}
	if err = doc.Save(); err != nil {
		logging.Error("Could not persist rewritten proxy URL", err)
		return
	}
	logging.Infof("Rewrote image proxy URL to '%s'", doc.String(deviceconfig.KeyImageProxy))
}

// record appends the run to the journal. The journal is bookkeeping, not part
// of the deployment contract, so failures only log.
func (s *Service) record(ctx context.Context, dep db.Deployment) {
	d, err := db.New(ctx)
	if err != nil {
		logging.Debugf("Could not open journal: %s", err)
		return
	}
	defer func() { _ = d.Close() }()
	if err = d.RecordDeployment(ctx, dep); err != nil {
		logging.Debugf("Could not record deployment: %s", err)
	}
}
