package workspace

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockFileName = "splitter.lock"

// ErrLocked means another server already owns the data directory.
var ErrLocked = errors.New("data directory is in use by another splitter instance")

// DirLock is an exclusive advisory lock on the data directory.
type DirLock struct {
	path string
	lock *flock.Flock
}

// Lock acquires the data directory lock without blocking. The layout root
// must exist.
func (l Layout) Lock() (*DirLock, error) {
	path := filepath.Join(l.root, lockFileName)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &DirLock{path: path, lock: fl}, nil
}

// Path returns the lock file location.
func (d *DirLock) Path() string {
	return d.path
}

// Release unlocks the data directory.
func (d *DirLock) Release() error {
	if err := d.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
