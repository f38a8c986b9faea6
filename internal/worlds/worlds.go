// Package worlds finds the world directory the game is currently writing to.
package worlds

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var (
	ErrNoCandidates        = errors.New("worlds: no candidate worlds")
	ErrDirectoryUnreadable = errors.New("worlds: saves directory unreadable")
)

// SelectActive returns the path of the most recently modified entry directly
// under dir. Entries whose metadata cannot be read are skipped. os.ReadDir
// yields entries sorted by name and only a strictly newer entry replaces the
// current pick, so among equal modification times the first name wins.
func SelectActive(dir string) (string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDirectoryUnreadable, err)
	}
	best := newest(ents)
	if best == "" {
		return "", fmt.Errorf("%w in %s", ErrNoCandidates, dir)
	}
	return filepath.Join(dir, best), nil
}

// newest returns the name of the latest entry, or "" when none has readable
// metadata.
func newest(ents []fs.DirEntry) string {
	var (
		best     string
		bestTime time.Time
	)
	for _, e := range ents {
		info, err := e.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime()
		if best == "" || mod.After(bestTime) {
			best = e.Name()
			bestTime = mod
		}
	}
	return best
}
