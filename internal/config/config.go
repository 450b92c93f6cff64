package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nhaumann/boardsync/internal/logging"
	"github.com/nhaumann/boardsync/internal/util"
)

var (
	configFilePath      = filepath.Join(util.ConfigDir, "config.toml")
	defaultSpriteSize   = 64
	defaultAttempts     = 5
	defaultWatchSettle  = 2 * time.Second
	defaultBootstrap    = []string{"boot.py", "main.py", "config.json"}
	defaultSpriteSource = "animations"
)

// Group is one logical asset directory under the source tree. Optional groups
// are skipped with a log line when the directory is missing; required ones are
// a fatal precondition.
type Group struct {
	Name     string `toml:"name"`
	Optional bool   `toml:"optional"`
}

type Config struct {
	SourceDir      string        `toml:"source_dir"`
	TargetDir      string        `toml:"target_dir"`
	Groups         []Group       `toml:"groups"`
	Bootstrap      []string      `toml:"bootstrap_files"`
	SpriteSource   string        `toml:"sprite_source"`
	SpriteTarget   string        `toml:"sprite_target"`
	SpriteSize     int           `toml:"sprite_size"`
	MountAttempts  int           `toml:"mount_attempts"`
	WatchSettle    time.Duration `toml:"watch_settle"`
	SpriteBuildDir string        `toml:"sprite_build_dir"`
}

// DeviceConfigPath is the config.json inside the source tree. The auth flow
// and the proxy rewrite mutate this copy; the bootstrap step ships it.
func (c *Config) DeviceConfigPath() string {
	return filepath.Join(c.SourceDir, "config.json")
}

func Get() (Config, error) {
	return get(false)
}

func GetInteractive() (Config, error) {
	return get(true)
}

func get(interactive bool) (Config, error) {
	c := Config{}
	f, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return initConfig(interactive)
	case err != nil:
		return c, fmt.Errorf("could not open config file for reading '%s': %s", configFilePath, err)
	}

	_, err = toml.NewDecoder(f).Decode(&c)
	if err != nil {
		return c, fmt.Errorf("could not decode config file '%s': %s", configFilePath, err)
	}
	c.applyDefaults()
	return c, nil
}

func initConfig(interactive bool) (Config, error) {
	c := initialConfig()
	if interactive {
		err := guidedInitialization(&c)
		if err != nil {
			return c, fmt.Errorf("could not initialize config interactively: %w", err)
		}
	}
	return c, c.persist()
}

func (c *Config) persist() error {
	f, err := util.OpenWithParents(configFilePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open config file for writing '%s': %w", configFilePath, err)
	}

	logging.Debugf("Persisting config file to '%s'", configFilePath)
	err = toml.NewEncoder(f).Encode(c)
	if err != nil {
		return fmt.Errorf("could not persist config to file '%s': %w", configFilePath, err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.SpriteSize == 0 {
		c.SpriteSize = defaultSpriteSize
	}
	if c.MountAttempts == 0 {
		c.MountAttempts = defaultAttempts
	}
	if c.WatchSettle == 0 {
		c.WatchSettle = defaultWatchSettle
	}
	if len(c.Bootstrap) == 0 {
		c.Bootstrap = defaultBootstrap
	}
	if c.SpriteSource == "" {
		c.SpriteSource = defaultSpriteSource
	}
	if c.SpriteTarget == "" {
		c.SpriteTarget = "sprites"
	}
	if c.SpriteBuildDir == "" {
		c.SpriteBuildDir = filepath.Join(util.ConfigDir, "sprite_build")
	}
}

func initialConfig() Config {
	c := Config{
		SourceDir: "pi_files",
		TargetDir: defaultMountPath(),
		Groups: []Group{
			{Name: "api"},
			{Name: "local"},
			{Name: "widgets"},
			{Name: "lib", Optional: true},
			{Name: "fonts", Optional: true},
		},
	}
	c.applyDefaults()
	return c
}

func defaultMountPath() string {
	if runtime.GOOS == "darwin" {
		return "/Volumes/CIRCUITPY"
	}
	return filepath.Join("/media", os.Getenv("USER"), "CIRCUITPY")
}
