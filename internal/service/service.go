package service

import (
	"context"
	"path/filepath"

	"github.com/nhaumann/boardsync/internal/auth"
	"github.com/nhaumann/boardsync/internal/config"
	"github.com/nhaumann/boardsync/internal/gate"
	"github.com/nhaumann/boardsync/internal/sprites"
	"github.com/nhaumann/boardsync/internal/sync"
)

// Authorizer is the credential refresh collaborator: given client credentials
// it produces a fresh refresh token. The real implementation drives a browser
// OAuth flow; tests substitute a fake.
type Authorizer interface {
	Refresh(ctx context.Context, clientID, clientSecret string) (string, error)
}

type Service struct {
	cfg      config.Config
	gate     *gate.Gate
	syncer   *sync.Syncer
	auth     Authorizer
	pipeline *sprites.Pipeline
}

func New(cfg config.Config) *Service {
	syncer := &sync.Syncer{}
	toolchain := sprites.NewToolchain()
	return &Service{
		cfg:    cfg,
		gate:   gate.New(cfg.MountAttempts),
		syncer: syncer,
		auth:   spotifyAuthorizer{},
		pipeline: &sprites.Pipeline{
			SourceDir: filepath.Join(cfg.SourceDir, cfg.SpriteSource),
			BuildDir:  cfg.SpriteBuildDir,
			TargetDir: filepath.Join(cfg.TargetDir, cfg.SpriteTarget),
			Size:      cfg.SpriteSize,
			Converter: toolchain,
			Prober:    toolchain,
			Syncer:    syncer,
			Stamps:    sprites.NewStampStore(),
			Preflight: toolchain.Check,
		},
	}
}

type spotifyAuthorizer struct{}

func (spotifyAuthorizer) Refresh(ctx context.Context, clientID, clientSecret string) (string, error) {
	tok, err := auth.Authorize(ctx, auth.Options{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
	if err != nil {
		return "", err
	}
	return tok.RefreshToken, nil
}
