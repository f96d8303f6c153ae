// Package storage manages the photo directory on disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Store lists and rotates photo directories.
type Store struct {
	now func() time.Time
}

// New creates a store.
func New() *Store {
	return &Store{now: time.Now}
}

// Ensure creates dir if it does not exist.
func (s *Store) Ensure(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create photo directory %s", dir)
	}
	return nil
}

// List returns the photos in dir, sorted by name. A missing directory is
// empty.
func (s *Store) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if photoExts[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Count returns the number of photos in dir.
func (s *Store) Count(dir string) (int, error) {
	files, err := s.List(dir)
	return len(files), err
}

// Rotate creates a fresh sibling of dir named after the current time and
// returns its path. dir itself is left untouched.
func (s *Store) Rotate(dir string) (string, error) {
	clean := filepath.Clean(dir)
	base := strings.TrimRight(clean, string(filepath.Separator))
	if i := strings.LastIndex(filepath.Base(base), "_"); i > 0 && isStamp(filepath.Base(base)[i+1:]) {
		base = filepath.Join(filepath.Dir(base), filepath.Base(base)[:i])
	}

	stamp := s.now().Format("20060102-150405")
	next := base + "_" + stamp
	for n := 2; exists(next); n++ {
		next = fmt.Sprintf("%s_%s-%d", base, stamp, n)
	}

	if err := os.MkdirAll(next, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create %s", next)
	}
	zlog.Info().Msgf("storage: rotated photo directory %s -> %s", clean, next)
	return next, nil
}

// isStamp reports whether s looks like a suffix added by Rotate.
func isStamp(s string) bool {
	if len(s) < 15 {
		return false
	}
	_, err := time.Parse("20060102-150405", s[:15])
	return err == nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
