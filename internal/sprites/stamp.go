package sprites

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhaumann/boardsync/internal/util"
)

var stampFile = filepath.Join(util.ConfigDir, "sprite_stamp")

// StampStore persists the fingerprint of the last animation set that made it
// through a full regenerate-and-sync cycle. A missing or unreadable stamp
// means "always regenerate".
type StampStore struct {
	path string
}

func NewStampStore() *StampStore {
	return &StampStore{path: stampFile}
}

// StampStoreAt pins the stamp to an explicit path instead of the config dir.
func StampStoreAt(path string) *StampStore {
	return &StampStore{path: path}
}

func (s *StampStore) Load() string {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *StampStore) Save(stamp string) error {
	if err := util.WriteFile(s.path, []byte(stamp+"\n")); err != nil {
		return fmt.Errorf("could not write sprite stamp to file '%s': %w", s.path, err)
	}
	return nil
}
