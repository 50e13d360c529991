package device

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// LockName is the advisory lock file kept at the volume root while a
// sync is writing. It guards against two processes syncing the same
// volume at once.
const LockName = ".nutune.lock"

// Volume is an opened, locked mount point ready for library writes.
type Volume struct {
	Root       string
	TotalBytes uint64
	FreeBytes  uint64

	lock *flock.Flock
}

// OpenVolume verifies a mount point is usable, takes the advisory lock,
// and reads filesystem capacity. Callers must Close the volume when the
// sync finishes to release the lock.
func OpenVolume(root string) (*Volume, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrVolumeUnavailable, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", shared.ErrVolumeUnavailable, root)
	}

	lock := flock.New(filepath.Join(root, LockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrVolumeLocked, root, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", shared.ErrVolumeLocked, root)
	}

	volume := &Volume{Root: root, lock: lock}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(root, &stat); err == nil {
		volume.TotalBytes = stat.Blocks * uint64(stat.Bsize)
		volume.FreeBytes = stat.Bavail * uint64(stat.Bsize)
	}

	return volume, nil
}

// Close releases the advisory lock.
func (v *Volume) Close() error {
	if v.lock == nil {
		return nil
	}
	return v.lock.Unlock()
}
