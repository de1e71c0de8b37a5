package batch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created inside the input folder while a batch runs.
const LockFileName = ".reelfit.lock"

// ErrLocked means another batch already holds the input folder.
var ErrLocked = errors.New("input folder is locked by another reelfit batch")

// LockInputs takes an exclusive, non-blocking lock on dir. Call Unlock on the
// result when the batch ends.
func LockInputs(dir string) (*flock.Flock, error) {
	lock := flock.New(filepath.Join(dir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return lock, nil
}
