package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"wildwatch/internal/model"
)

// SnapshotLayout names snapshot files after the capture second.
const SnapshotLayout = "2006-01-02_15-04-05"

// maxCollisions bounds the _N suffix search for one second.
const maxCollisions = 1000

// SnapshotStore writes event snapshots as JPEG files.
type SnapshotStore struct {
	imagesDir string
}

// NewSnapshotStore creates a SnapshotStore rooted at imagesDir.
func NewSnapshotStore(imagesDir string) *SnapshotStore {
	return &SnapshotStore{imagesDir: imagesDir}
}

// Dir returns the snapshot directory.
func (s *SnapshotStore) Dir() string {
	return s.imagesDir
}

// Save writes the frame under a timestamp-derived name and returns its path.
// A second snapshot within the same second gets a numeric suffix instead of
// overwriting the first. Errors wrap model.ErrStorage.
func (s *SnapshotStore) Save(frame model.Frame) (string, error) {
	if len(frame.Data) == 0 {
		return "", fmt.Errorf("%w: empty snapshot", model.ErrStorage)
	}
	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create image directory: %w", model.ErrStorage, err)
	}

	base := frame.CapturedAt.Format(SnapshotLayout)
	for i := 0; i < maxCollisions; i++ {
		name := base + ".jpg"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.jpg", base, i)
		}
		fullpath := filepath.Join(s.imagesDir, name)

		file, err := os.OpenFile(fullpath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: failed to create %s: %w", model.ErrStorage, name, err)
		}

		if _, err := file.Write(frame.Data); err != nil {
			file.Close()
			os.Remove(fullpath)
			return "", fmt.Errorf("%w: failed to write %s: %w", model.ErrStorage, name, err)
		}
		if err := file.Close(); err != nil {
			os.Remove(fullpath)
			return "", fmt.Errorf("%w: failed to close %s: %w", model.ErrStorage, name, err)
		}
		return fullpath, nil
	}
	return "", fmt.Errorf("%w: too many snapshots for %s", model.ErrStorage, base)
}

// Discard removes a snapshot written by Save whose event was never recorded.
// A snapshot that is already gone is not an error.
func (s *SnapshotStore) Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to discard %s: %w", model.ErrStorage, filepath.Base(path), err)
	}
	return nil
}

// Resolve maps a bare snapshot file name to its path, rejecting anything that
// would escape the snapshot directory.
func (s *SnapshotStore) Resolve(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) ||
		name == "." || name == ".." || filepath.Ext(name) != ".jpg" {
		return "", fmt.Errorf("%w: bad snapshot name %q", model.ErrInvalidInput, name)
	}
	return filepath.Join(s.imagesDir, name), nil
}
