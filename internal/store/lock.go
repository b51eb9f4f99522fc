package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another Talkatoo process owns the data directory.
var ErrLocked = errors.New("data directory is in use by another talkatoo process")

// LockFile is the name of the lock file inside the data dir.
const LockFile = "talkatoo.lock"

// LockDataDir takes an exclusive, non-blocking lock on dir so two trackers
// never write the same database. The returned function releases it.
func LockDataDir(dir string) (func() error, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock.Unlock, nil
}
